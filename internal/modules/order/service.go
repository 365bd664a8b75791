package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
	"github.com/soko-dev/fulfillment-backend/internal/modules/shipping"
)

// ShipmentPlanner is the slice of the shipping service confirmation
// delegates to.
type ShipmentPlanner interface {
	PlanShipments(ctx context.Context, orderID string, actor auth.Actor) ([]*shipping.Shipment, error)
}

// Service handles buyer purchases and order confirmation.
type Service interface {
	// PlaceOrder atomically sells the products to the buyer: every
	// product moves listing→sold and the order is created pending.
	PlaceOrder(ctx context.Context, req PlaceRequest, actor auth.Actor) (*Order, error)

	// ConfirmOrder hands the order to the fulfillment side: shipments
	// are planned and multi-item orders become one bundle.
	ConfirmOrder(ctx context.Context, orderID string, actor auth.Actor) ([]*shipping.Shipment, error)

	// CancelOrder voids an order that has not started fulfillment and
	// puts its products back on sale.
	CancelOrder(ctx context.Context, orderID string, actor auth.Actor) (*Order, error)

	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, buyerID string, limit int) ([]*Order, error)
}

type service struct {
	repo    Repository
	planner ShipmentPlanner
}

func NewService(repo Repository, planner ShipmentPlanner) Service {
	return &service{repo: repo, planner: planner}
}

func (s *service) PlaceOrder(ctx context.Context, req PlaceRequest, actor auth.Actor) (*Order, error) {
	if _, err := uuid.Parse(req.BuyerID); err != nil {
		return nil, apperr.Validation("invalid buyer id %q", req.BuyerID)
	}
	if req.Destination == "" {
		return nil, apperr.Validation("destination is required")
	}
	if len(req.ProductIDs) == 0 {
		return nil, apperr.Validation("at least one product id is required")
	}
	seen := map[string]bool{}
	for _, id := range req.ProductIDs {
		if _, err := uuid.Parse(id); err != nil {
			return nil, apperr.Validation("invalid product id %q", id)
		}
		if seen[id] {
			return nil, apperr.Validation("duplicate product id %q", id)
		}
		seen[id] = true
	}

	return s.repo.Place(ctx, req.BuyerID, req.Destination, req.ProductIDs, actor)
}

func (s *service) ConfirmOrder(ctx context.Context, orderID string, actor auth.Actor) ([]*shipping.Shipment, error) {
	return s.planner.PlanShipments(ctx, orderID, actor)
}

func (s *service) CancelOrder(ctx context.Context, orderID string, actor auth.Actor) (*Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, apperr.Validation("invalid order id %q", orderID)
	}
	return s.repo.Cancel(ctx, orderID, actor)
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListOrders(ctx context.Context, buyerID string, limit int) ([]*Order, error) {
	if buyerID == "" {
		return nil, apperr.Validation("buyer id is required")
	}
	return s.repo.ListByBuyer(ctx, buyerID, limit)
}
