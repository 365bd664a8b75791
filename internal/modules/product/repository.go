package product

import (
	"context"

	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

// Repository defines data access for products.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context, status string, limit int) ([]*Product, error)

	// UpdateStatus applies one lifecycle transition atomically: the
	// versioned status write, the cancellation cascade onto checklist
	// and shipment when entering cancelled, and the audit row all
	// commit in a single transaction. A version mismatch surfaces as
	// ConcurrentModification.
	UpdateStatus(ctx context.Context, p *Product, next Status, reason string, actor auth.Actor) error

	// SetLocation moves the item to a storage location and records the
	// movement on the audit trail.
	SetLocation(ctx context.Context, productID, location string, actor auth.Actor) error
}
