package activity

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded on the audit trail. One Activity row is appended
// per meaningful state transition; rows are never updated or deleted.
const (
	TypePlanCancelled       = "plan_cancelled"
	TypeProductReceived     = "product_received"
	TypeStatusChange        = "status_change"
	TypeProductCancelled    = "product_cancelled"
	TypeInspectionCompleted = "inspection_completed"
	TypeInspectionFailed    = "inspection_failed"
	TypeProductSold         = "product_sold"
	TypeOrderConfirmed      = "order_confirmed"
	TypeOrderCancelled      = "order_cancelled"
	TypePickingStarted      = "picking_started"
	TypePackingCompleted    = "packing_completed"
	TypeShipmentCreated     = "shipment_created"
	TypeShipmentUpdated     = "shipment_updated"
	TypeBundleFormed        = "bundle_formed"
	TypeBundleSplit         = "bundle_split"
)

// Activity is one immutable audit event.
type Activity struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	UserID      string    `json:"user_id,omitempty"`
	ProductID   string    `json:"product_id,omitempty"`
	OrderID     string    `json:"order_id,omitempty"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
