package shipping

import (
	"time"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
)

// Status represents the lifecycle state of a shipment, correlated with
// but independent from the product's own status.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPicked         Status = "picked"
	StatusPacked         Status = "packed"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// validTransitions defines the allowed state machine transitions for
// shipments. Cancellation is reachable until the parcel leaves the
// building.
var validTransitions = map[Status][]Status{
	StatusPending:        {StatusPicked, StatusCancelled},
	StatusPicked:         {StatusPacked, StatusCancelled},
	StatusPacked:         {StatusReadyForPickup, StatusCancelled},
	StatusReadyForPickup: {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
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

// Shipment is the physical fulfillment unit for one product bound for
// one destination. Bundled siblings carry the same BundleID and travel
// in one parcel.
type Shipment struct {
	ID             uuid.UUID  `json:"id"`
	OrderID        uuid.UUID  `json:"order_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	Status         Status     `json:"status"`
	Carrier        string     `json:"carrier,omitempty"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	Priority       string     `json:"priority"`
	CustomerName   string     `json:"customer_name,omitempty"`
	Address        string     `json:"address,omitempty"`
	Location       string     `json:"location,omitempty"`
	BundleID       string     `json:"bundle_id,omitempty"`
	Notes          *Notes     `json:"notes,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	PickedAt       *time.Time `json:"picked_at,omitempty"`
	PackedAt       *time.Time `json:"packed_at,omitempty"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// advance moves s to next, setting the stage timestamp exactly once and
// enforcing monotonic stage order. It is the single place shipment
// status is allowed to change.
func (s *Shipment) advance(next Status, now time.Time) error {
	if !CanTransition(s.Status, next) {
		return apperr.InvalidTransition(string(s.Status), string(next))
	}
	switch next {
	case StatusPicked:
		if s.PickedAt == nil {
			s.PickedAt = &now
		}
	case StatusPacked:
		if s.PickedAt == nil {
			return apperr.InvalidState("shipment %s has no picked timestamp", s.ID)
		}
		if s.PackedAt == nil {
			s.PackedAt = &now
		}
	case StatusShipped:
		if s.Carrier == "" || s.TrackingNumber == "" {
			return apperr.InvalidState("shipment %s cannot ship without carrier and tracking number", s.ID)
		}
		if s.ShippedAt == nil {
			s.ShippedAt = &now
		}
	case StatusDelivered:
		if s.ShippedAt == nil {
			return apperr.InvalidState("shipment %s cannot be delivered before it ships", s.ID)
		}
		if s.DeliveredAt == nil {
			s.DeliveredAt = &now
		}
	}
	s.Status = next
	s.UpdatedAt = now
	return nil
}

// advanceMembers moves the target shipment and its bundle siblings to
// next. A cancelled target is a terminal-state violation; cancelled
// siblings are passed over so a split-out item never blocks the rest.
func advanceMembers(members []*Shipment, targetID string, next Status, carrier, tracking string, now time.Time) error {
	for _, s := range members {
		if s.Status == StatusCancelled {
			if s.ID.String() == targetID {
				return apperr.InvalidTransition(string(StatusCancelled), string(next))
			}
			continue
		}
		if carrier != "" {
			s.Carrier = carrier
			s.TrackingNumber = tracking
		}
		if err := s.advance(next, now); err != nil {
			return err
		}
	}
	return nil
}

// PickingRequest is the payload for creating picking instructions.
type PickingRequest struct {
	ProductIDs []string `json:"product_ids"`
	Location   string   `json:"location,omitempty"`
}

// PackingRequest is the payload for completing packing, bundle-aware.
type PackingRequest struct {
	ShipmentIDs []string `json:"shipment_ids"`
}

// ReadyRequest selects the carrier whose label is generated before the
// shipment becomes ready for pickup.
type ReadyRequest struct {
	Carrier string `json:"carrier"`
}
