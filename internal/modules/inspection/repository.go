package inspection

import (
	"context"

	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

// Repository defines data access for inspection checklists.
type Repository interface {
	GetByProduct(ctx context.Context, productID string) (*Checklist, error)

	// ProductCategory returns the category and status of the product,
	// outside any transaction, for request validation.
	ProductCategory(ctx context.Context, productID string) (category, status string, err error)

	// Save persists the checklist and applies its outcome in one
	// transaction: pass and needs_review advance the product to
	// storage, fail leaves it in inspection, splits any bundle the
	// product sits in, and records the failure on the audit trail. The
	// product must be in inspection status.
	Save(ctx context.Context, c *Checklist, actor auth.Actor) error
}
