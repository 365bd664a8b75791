package order

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// validTransitions is the order status machine. Orders move to
// processing when picking starts on any of their shipments and to
// completed when the last shipment is delivered. Cancellation is only
// possible while no shipment has left the warehouse.
var validTransitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCompleted, StatusCancelled},
	StatusProcessing: {StatusCompleted},
}

// CanTransition reports whether an order may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is one buyer purchase. Items are immutable once the order
// reaches a terminal status.
type Order struct {
	ID              uuid.UUID    `json:"id"`
	OrderNumber     string       `json:"order_number"`
	BuyerID         uuid.UUID    `json:"buyer_id"`
	Destination     string       `json:"destination"`
	DestinationHash string       `json:"-"`
	Status          string       `json:"status"`
	Total           float64      `json:"total"`
	Items           []*OrderItem `json:"items"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// OrderItem references one sold product. Consigned items are unique,
// so quantity is always 1 today; the column exists for future stock.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// PlaceRequest is the payload for the atomic purchase operation.
type PlaceRequest struct {
	BuyerID     string   `json:"buyer_id"`
	Destination string   `json:"destination"`
	ProductIDs  []string `json:"product_ids"`
}

// HashDestination normalizes and hashes a shipping address so items
// bound for the same place can be grouped without comparing free text.
func HashDestination(destination string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(destination), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
