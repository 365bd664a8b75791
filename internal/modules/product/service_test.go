package product

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

type fakeRepo struct {
	products map[string]*Product
}

func newFakeRepo(products ...*Product) *fakeRepo {
	r := &fakeRepo{products: map[string]*Product{}}
	for _, p := range products {
		r.products[p.ID.String()] = p
	}
	return r
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, apperr.NotFound("product", id)
	}
	copied := *p
	return &copied, nil
}

func (r *fakeRepo) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			copied := *p
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("product", sku)
}

func (r *fakeRepo) List(ctx context.Context, status string, limit int) ([]*Product, error) {
	var out []*Product
	for _, p := range r.products {
		if status == "" || string(p.Status) == status {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, p *Product, next Status, reason string, actor auth.Actor) error {
	stored, ok := r.products[p.ID.String()]
	if !ok {
		return apperr.NotFound("product", p.ID.String())
	}
	if stored.Version != p.Version {
		return apperr.Concurrent("product", p.ID.String())
	}
	stored.Status = next
	stored.Version++
	p.Status = next
	p.Version++
	return nil
}

func (r *fakeRepo) SetLocation(ctx context.Context, productID, location string, actor auth.Actor) error {
	stored, ok := r.products[productID]
	if !ok {
		return apperr.NotFound("product", productID)
	}
	stored.CurrentLocation = location
	return nil
}

func newProduct(status Status) *Product {
	return &Product{ID: uuid.New(), SKU: "CAM-20260801-ABCDEF", Name: "Nikon F3", Category: "camera", Status: status}
}

func TestTransitionAdvancesStatus(t *testing.T) {
	p := newProduct(StatusInbound)
	svc := NewService(newFakeRepo(p))

	got, err := svc.Transition(context.Background(), p.ID.String(),
		TransitionRequest{Status: "inspection"}, auth.System)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusInspection {
		t.Errorf("status = %s, want inspection", got.Status)
	}
	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}
}

func TestTransitionRejectsSkippedStage(t *testing.T) {
	p := newProduct(StatusInbound)
	svc := NewService(newFakeRepo(p))

	_, err := svc.Transition(context.Background(), p.ID.String(),
		TransitionRequest{Status: "storage"}, auth.System)
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	p := newProduct(StatusInbound)
	svc := NewService(newFakeRepo(p))

	_, err := svc.Transition(context.Background(), p.ID.String(),
		TransitionRequest{Status: "limbo"}, auth.System)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestTransitionRejectsDirectSale(t *testing.T) {
	p := newProduct(StatusListing)
	svc := NewService(newFakeRepo(p))

	_, err := svc.Transition(context.Background(), p.ID.String(),
		TransitionRequest{Status: "sold"}, auth.System)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
	if p.Status != StatusListing {
		t.Errorf("status = %s, want listing (unchanged)", p.Status)
	}
}

func TestCancelFromSoldRejected(t *testing.T) {
	p := newProduct(StatusSold)
	svc := NewService(newFakeRepo(p))

	_, err := svc.Cancel(context.Background(), p.ID.String(), CancelRequest{Reason: "changed mind"}, auth.System)
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
}

func TestCancelFromStorage(t *testing.T) {
	p := newProduct(StatusStorage)
	svc := NewService(newFakeRepo(p))

	got, err := svc.Cancel(context.Background(), p.ID.String(), CancelRequest{}, auth.System)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
}

func TestConcurrentTransitionLoses(t *testing.T) {
	p := newProduct(StatusStorage)
	repo := newFakeRepo(p)

	// both callers read version 0; the repo accepts the first write
	// and bumps the version, so the second write is stale
	first := *p
	second := *p
	if err := repo.UpdateStatus(context.Background(), &first, StatusListing, "", auth.System); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}
	err := repo.UpdateStatus(context.Background(), &second, StatusListing, "", auth.System)
	if apperr.KindOf(err) != apperr.KindConcurrent {
		t.Fatalf("expected ConcurrentModification, got %v", err)
	}
}
