package shipping

import (
	"context"

	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

// Repository defines data access for shipments. Methods that change
// state run a single transaction covering the shipment rows, the
// correlated product status write, and the audit append; bundle-wide
// methods lock sibling rows in id order.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Shipment, error)
	List(ctx context.Context, status string, limit int) ([]*Shipment, error)

	// GetActiveByProduct returns the product's non-cancelled shipment,
	// or nil when none exists.
	GetActiveByProduct(ctx context.Context, productID string) (*Shipment, error)

	// ActiveOrderForProduct returns the id of the confirmed order that
	// references the product, or "" when there is none.
	ActiveOrderForProduct(ctx context.Context, productID string) (string, error)

	// SynthesizeDemoOrder creates a confirmed order and item for the
	// product on behalf of the demo buyer and picks it, atomically.
	// Demo contexts only.
	SynthesizeDemoOrder(ctx context.Context, productID, location string, actor auth.Actor) (*Shipment, error)

	// PlanForOrder confirms a pending order and creates one pending
	// shipment per item, tagging multi-item groups as a bundle.
	PlanForOrder(ctx context.Context, orderID string, actor auth.Actor) ([]*Shipment, error)

	// CreateForOrderItem inserts the shipment for a product that has an
	// active order but no shipment yet, already advanced to picked.
	CreateForOrderItem(ctx context.Context, orderID, productID, location string, actor auth.Actor) (*Shipment, error)

	// Pick advances (idempotently re-picks) an existing shipment.
	Pick(ctx context.Context, shipmentID, location string, actor auth.Actor) (*Shipment, error)

	// Pack transitions the given shipments picked→packed after the
	// bundle completeness check, all in one transaction.
	Pack(ctx context.Context, shipmentIDs []string, actor auth.Actor) error

	// AdvanceBundle moves a shipment and all its bundle siblings to
	// next, applying carrier and tracking when non-empty and mirroring
	// shipped/delivered onto the product rows.
	AdvanceBundle(ctx context.Context, shipmentID string, next Status, carrier, tracking string, actor auth.Actor) ([]*Shipment, error)

	// RemoveFromBundle splits the product out of its bundle.
	RemoveFromBundle(ctx context.Context, productID string, actor auth.Actor) error
}
