package inspection

import (
	"context"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

// Service records checklist results and derives the inspection verdict.
type Service interface {
	// RecordChecklist validates the responses against the product's
	// category definition, derives the outcome, and persists both. A
	// pass or needs_review verdict advances the product to storage in
	// the same transaction; a fail keeps it in inspection.
	RecordChecklist(ctx context.Context, productID string, req ChecklistRequest, actor auth.Actor) (*Checklist, error)

	GetChecklist(ctx context.Context, productID string) (*Checklist, error)

	// ChecklistDefinition exposes the category structure so clients
	// can render the form.
	ChecklistDefinition(ctx context.Context, productID string) (Definition, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RecordChecklist(ctx context.Context, productID string, req ChecklistRequest, actor auth.Actor) (*Checklist, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, apperr.Validation("invalid product id %q", productID)
	}

	category, status, err := s.repo.ProductCategory(ctx, productID)
	if err != nil {
		return nil, err
	}
	if status != "inspection" {
		return nil, apperr.InvalidState("product %s is %s, checklists can only be recorded during inspection", productID, status)
	}

	def := DefinitionFor(category)
	if err := def.Validate(req.Responses); err != nil {
		return nil, err
	}

	c := &Checklist{
		ProductID: pid,
		Category:  def.Category,
		Responses: req.Responses,
		Outcome:   def.DeriveOutcome(req.Responses),
		Notes:     req.Notes,
	}
	if err := s.repo.Save(ctx, c, actor); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetChecklist(ctx context.Context, productID string) (*Checklist, error) {
	return s.repo.GetByProduct(ctx, productID)
}

func (s *service) ChecklistDefinition(ctx context.Context, productID string) (Definition, error) {
	category, _, err := s.repo.ProductCategory(ctx, productID)
	if err != nil {
		return Definition{}, err
	}
	return DefinitionFor(category), nil
}
