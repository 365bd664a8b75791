package product

import (
	"time"

	"github.com/google/uuid"
)

// Status represents where a consigned item sits in its fulfillment
// lifecycle, from seller intake through delivery or cancellation.
type Status string

const (
	StatusInbound    Status = "inbound"
	StatusInspection Status = "inspection"
	StatusStorage    Status = "storage"
	StatusListing    Status = "listing"
	StatusSold       Status = "sold"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// validTransitions defines the allowed status state machine. A failed
// inspection keeps the item in inspection (the self-loop) for re-work;
// cancellation is only reachable before the item is sold. Sold items go
// through the return flow, never direct cancellation.
var validTransitions = map[Status][]Status{
	StatusInbound:    {StatusInspection, StatusCancelled},
	StatusInspection: {StatusInspection, StatusStorage, StatusCancelled},
	StatusStorage:    {StatusListing, StatusCancelled},
	StatusListing:    {StatusSold},
	StatusSold:       {StatusProcessing},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// IsValid reports whether s is a member of the status enum.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransition returns true if the transition from current to next is valid.
func CanTransition(current, next Status) bool {
	allowed, ok := validTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

// Product represents one physical consigned item. SKU is immutable and
// globally unique; the row is never deleted once it has activity
// history, cancellation is a terminal status instead.
type Product struct {
	ID              uuid.UUID  `json:"id"`
	SKU             string     `json:"sku"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	Condition       string     `json:"condition,omitempty"`
	Price           float64    `json:"price"`
	Status          Status     `json:"status"`
	SellerID        *uuid.UUID `json:"seller_id,omitempty"`
	CurrentLocation string     `json:"current_location,omitempty"`
	Metadata        *Metadata  `json:"metadata,omitempty"`
	InspectedAt     *time.Time `json:"inspected_at,omitempty"`
	InspectedBy     string     `json:"inspected_by,omitempty"`
	Version         int        `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TransitionRequest is the payload for advancing a product's status.
type TransitionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// CancelRequest is the payload for cancelling a product.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}
