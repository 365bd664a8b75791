package intake

import (
	"context"

	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

// Repository defines data access for delivery plans.
type Repository interface {
	GetByID(ctx context.Context, id string) (*DeliveryPlan, error)
	ListBySeller(ctx context.Context, sellerID string, limit int) ([]*DeliveryPlan, error)

	// Create persists the plan and its declared products.
	Create(ctx context.Context, plan *DeliveryPlan) error

	// Accept marks a submitted plan received and creates one inbound
	// product row per declared item, linking each back to its plan
	// product, all in one transaction.
	Accept(ctx context.Context, planID string, actor auth.Actor) (*DeliveryPlan, error)

	// Cancel withdraws a plan that has not been accepted yet.
	Cancel(ctx context.Context, planID string, actor auth.Actor) (*DeliveryPlan, error)
}
