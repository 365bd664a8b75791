package product

import (
	"context"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

// Service enforces the product lifecycle rules: every status change
// goes through the transition table, and cancellations cascade onto
// whatever the product left behind.
type Service interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*Product, error)
	ListProducts(ctx context.Context, status string, limit int) ([]*Product, error)

	// Transition advances the product to the requested status, failing
	// with InvalidTransition when the state machine forbids it.
	Transition(ctx context.Context, id string, req TransitionRequest, actor auth.Actor) (*Product, error)

	// Cancel is the dedicated cancellation path. Sold and later
	// products cannot be cancelled.
	Cancel(ctx context.Context, id string, req CancelRequest, actor auth.Actor) (*Product, error)

	// MoveToLocation places the product at a storage location.
	MoveToLocation(ctx context.Context, id, location string, actor auth.Actor) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetProductBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}

func (s *service) ListProducts(ctx context.Context, status string, limit int) ([]*Product, error) {
	if status != "" && !Status(status).IsValid() {
		return nil, apperr.Validation("unknown status %q", status)
	}
	return s.repo.List(ctx, status, limit)
}

func (s *service) Transition(ctx context.Context, id string, req TransitionRequest, actor auth.Actor) (*Product, error) {
	next := Status(req.Status)
	if !next.IsValid() {
		return nil, apperr.Validation("unknown status %q", req.Status)
	}
	// sold needs an order behind it
	if next == StatusSold {
		return nil, apperr.Validation("products are sold by placing an order, not by a status change")
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(p.Status, next) {
		return nil, apperr.InvalidTransition(string(p.Status), string(next))
	}
	if err := s.repo.UpdateStatus(ctx, p, next, req.Reason, actor); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Cancel(ctx context.Context, id string, req CancelRequest, actor auth.Actor) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(p.Status, StatusCancelled) {
		return nil, apperr.InvalidTransition(string(p.Status), string(StatusCancelled))
	}
	if err := s.repo.UpdateStatus(ctx, p, StatusCancelled, req.Reason, actor); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) MoveToLocation(ctx context.Context, id, location string, actor auth.Actor) error {
	if location == "" {
		return apperr.Validation("location is required")
	}
	return s.repo.SetLocation(ctx, id, location, actor)
}
