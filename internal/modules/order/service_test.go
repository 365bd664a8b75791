package order

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
	"github.com/soko-dev/fulfillment-backend/internal/modules/shipping"
)

type fakeRepo struct {
	placed *Order
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	return nil, apperr.NotFound("order", id)
}

func (r *fakeRepo) Cancel(ctx context.Context, id string, actor auth.Actor) (*Order, error) {
	if r.placed == nil || r.placed.ID.String() != id {
		return nil, apperr.NotFound("order", id)
	}
	if !CanTransition(r.placed.Status, StatusCancelled) {
		return nil, apperr.InvalidTransition(r.placed.Status, StatusCancelled)
	}
	r.placed.Status = StatusCancelled
	return r.placed, nil
}

func (r *fakeRepo) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*Order, error) {
	return nil, nil
}

func (r *fakeRepo) Place(ctx context.Context, buyerID, destination string, productIDs []string, actor auth.Actor) (*Order, error) {
	r.placed = &Order{
		ID:          uuid.New(),
		BuyerID:     uuid.MustParse(buyerID),
		Destination: destination,
		Status:      StatusPending,
	}
	for _, id := range productIDs {
		r.placed.Items = append(r.placed.Items, &OrderItem{ProductID: uuid.MustParse(id), Quantity: 1})
	}
	return r.placed, nil
}

type fakePlanner struct {
	planned []string
}

func (p *fakePlanner) PlanShipments(ctx context.Context, orderID string, actor auth.Actor) ([]*shipping.Shipment, error) {
	p.planned = append(p.planned, orderID)
	return nil, nil
}

func TestPlaceOrderValidation(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakePlanner{})
	ctx := context.Background()
	productID := uuid.New().String()

	cases := []struct {
		name string
		req  PlaceRequest
	}{
		{"bad buyer id", PlaceRequest{BuyerID: "nope", Destination: "Tokyo", ProductIDs: []string{productID}}},
		{"empty destination", PlaceRequest{BuyerID: uuid.New().String(), ProductIDs: []string{productID}}},
		{"no products", PlaceRequest{BuyerID: uuid.New().String(), Destination: "Tokyo"}},
		{"bad product id", PlaceRequest{BuyerID: uuid.New().String(), Destination: "Tokyo", ProductIDs: []string{"nope"}}},
		{"duplicate product", PlaceRequest{BuyerID: uuid.New().String(), Destination: "Tokyo", ProductIDs: []string{productID, productID}}},
	}

	for _, tc := range cases {
		if _, err := svc.PlaceOrder(ctx, tc.req, auth.System); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("%s: expected Validation, got %v", tc.name, err)
		}
	}
}

func TestPlaceOrderDelegates(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakePlanner{})

	o, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		BuyerID:     uuid.New().String(),
		Destination: "1-2-3 Shibuya, Tokyo",
		ProductIDs:  []string{uuid.New().String(), uuid.New().String()},
	}, auth.System)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Items) != 2 {
		t.Errorf("items = %d, want 2", len(o.Items))
	}
	if o.Status != StatusPending {
		t.Errorf("status = %s, want pending", o.Status)
	}
}

func TestCancelOrderBeforeFulfillment(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakePlanner{})

	placed, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		BuyerID:     uuid.New().String(),
		Destination: "Osaka",
		ProductIDs:  []string{uuid.New().String()},
	}, auth.System)
	if err != nil {
		t.Fatal(err)
	}

	o, err := svc.CancelOrder(context.Background(), placed.ID.String(), auth.System)
	if err != nil {
		t.Fatalf("cancel pending order: %v", err)
	}
	if o.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", o.Status)
	}
}

func TestCancelOrderRejectedOnceProcessing(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakePlanner{})

	placed, err := svc.PlaceOrder(context.Background(), PlaceRequest{
		BuyerID:     uuid.New().String(),
		Destination: "Osaka",
		ProductIDs:  []string{uuid.New().String()},
	}, auth.System)
	if err != nil {
		t.Fatal(err)
	}
	repo.placed.Status = StatusProcessing

	_, err = svc.CancelOrder(context.Background(), placed.ID.String(), auth.System)
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
}

func TestCancelOrderInvalidID(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakePlanner{})
	if _, err := svc.CancelOrder(context.Background(), "nope", auth.System); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestConfirmOrderPlansShipments(t *testing.T) {
	planner := &fakePlanner{}
	svc := NewService(&fakeRepo{}, planner)
	orderID := uuid.New().String()

	if _, err := svc.ConfirmOrder(context.Background(), orderID, auth.System); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(planner.planned) != 1 || planner.planned[0] != orderID {
		t.Errorf("planned = %v, want [%s]", planner.planned, orderID)
	}
}
