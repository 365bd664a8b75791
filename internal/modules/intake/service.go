package intake

import (
	"context"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

// Service handles seller intake: plan submission and staff acceptance.
type Service interface {
	// SubmitPlan records a seller's declared batch of items.
	SubmitPlan(ctx context.Context, req SubmitRequest) (*DeliveryPlan, error)

	// AcceptPlan is the staff action that turns declared items into
	// canonical inbound product rows.
	AcceptPlan(ctx context.Context, planID string, actor auth.Actor) (*DeliveryPlan, error)

	// CancelPlan withdraws a plan the warehouse has not accepted yet.
	CancelPlan(ctx context.Context, planID string, actor auth.Actor) (*DeliveryPlan, error)

	GetPlan(ctx context.Context, id string) (*DeliveryPlan, error)
	ListPlans(ctx context.Context, sellerID string, limit int) ([]*DeliveryPlan, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) SubmitPlan(ctx context.Context, req SubmitRequest) (*DeliveryPlan, error) {
	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		return nil, apperr.Validation("invalid seller id %q", req.SellerID)
	}
	if len(req.Products) == 0 {
		return nil, apperr.Validation("a delivery plan needs at least one product")
	}

	plan := &DeliveryPlan{
		ID:       uuid.New(),
		SellerID: sellerID,
		Status:   StatusSubmitted,
		Notes:    req.Notes,
	}
	for _, item := range req.Products {
		if item.Name == "" || item.Category == "" {
			return nil, apperr.Validation("every declared product needs a name and category")
		}
		if item.EstimatedValue < 0 {
			return nil, apperr.Validation("estimated value cannot be negative")
		}
		plan.Products = append(plan.Products, &PlanProduct{
			ID:                uuid.New(),
			PlanID:            plan.ID,
			DeclaredName:      item.Name,
			DeclaredCategory:  item.Category,
			DeclaredCondition: item.Condition,
			EstimatedValue:    item.EstimatedValue,
		})
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *service) AcceptPlan(ctx context.Context, planID string, actor auth.Actor) (*DeliveryPlan, error) {
	return s.repo.Accept(ctx, planID, actor)
}

func (s *service) CancelPlan(ctx context.Context, planID string, actor auth.Actor) (*DeliveryPlan, error) {
	return s.repo.Cancel(ctx, planID, actor)
}

func (s *service) GetPlan(ctx context.Context, id string) (*DeliveryPlan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListPlans(ctx context.Context, sellerID string, limit int) ([]*DeliveryPlan, error) {
	if sellerID == "" {
		return nil, apperr.Validation("seller id is required")
	}
	return s.repo.ListBySeller(ctx, sellerID, limit)
}
