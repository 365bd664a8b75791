package order

import (
	"context"

	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

// Repository defines data access for orders.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*Order, error)

	// Place runs the atomic purchase: every product is locked in id
	// order, must be in listing, and moves to sold together with the
	// order and item inserts. Any failure rolls back the whole
	// purchase.
	Place(ctx context.Context, buyerID, destination string, productIDs []string, actor auth.Actor) (*Order, error)

	// Cancel voids a pending or confirmed order: its shipments still in
	// the warehouse are cancelled and its products go back to listing.
	Cancel(ctx context.Context, id string, actor auth.Actor) (*Order, error)
}
