package intake

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

type fakeRepo struct {
	created *DeliveryPlan
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*DeliveryPlan, error) {
	if r.created != nil && r.created.ID.String() == id {
		return r.created, nil
	}
	return nil, apperr.NotFound("delivery plan", id)
}

func (r *fakeRepo) ListBySeller(ctx context.Context, sellerID string, limit int) ([]*DeliveryPlan, error) {
	return nil, nil
}

func (r *fakeRepo) Create(ctx context.Context, plan *DeliveryPlan) error {
	r.created = plan
	return nil
}

func (r *fakeRepo) Accept(ctx context.Context, planID string, actor auth.Actor) (*DeliveryPlan, error) {
	if r.created == nil || r.created.ID.String() != planID {
		return nil, apperr.NotFound("delivery plan", planID)
	}
	if r.created.Status != StatusSubmitted {
		return nil, apperr.InvalidState("plan %s is %s", planID, r.created.Status)
	}
	r.created.Status = StatusReceived
	for _, p := range r.created.Products {
		id := uuid.New()
		p.ProductID = &id
	}
	return r.created, nil
}

func (r *fakeRepo) Cancel(ctx context.Context, planID string, actor auth.Actor) (*DeliveryPlan, error) {
	if r.created == nil || r.created.ID.String() != planID {
		return nil, apperr.NotFound("delivery plan", planID)
	}
	if r.created.Status != StatusSubmitted {
		return nil, apperr.InvalidState("plan %s is %s", planID, r.created.Status)
	}
	r.created.Status = StatusCancelled
	return r.created, nil
}

func TestSubmitPlanValidation(t *testing.T) {
	svc := NewService(&fakeRepo{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  SubmitRequest
	}{
		{"bad seller id", SubmitRequest{SellerID: "nope", Products: []SubmitRequestItem{{Name: "Rolleiflex", Category: "camera"}}}},
		{"no products", SubmitRequest{SellerID: uuid.New().String()}},
		{"missing name", SubmitRequest{SellerID: uuid.New().String(), Products: []SubmitRequestItem{{Category: "camera"}}}},
		{"negative value", SubmitRequest{SellerID: uuid.New().String(), Products: []SubmitRequestItem{{Name: "Rolleiflex", Category: "camera", EstimatedValue: -1}}}},
	}
	for _, tc := range cases {
		if _, err := svc.SubmitPlan(ctx, tc.req); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("%s: expected Validation, got %v", tc.name, err)
		}
	}
}

func TestSubmitAndAcceptPlan(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	plan, err := svc.SubmitPlan(ctx, SubmitRequest{
		SellerID: uuid.New().String(),
		Products: []SubmitRequestItem{
			{Name: "Rolleiflex 2.8F", Category: "camera", EstimatedValue: 250000},
			{Name: "Summicron 50mm", Category: "lens", EstimatedValue: 180000},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if plan.Status != StatusSubmitted || len(plan.Products) != 2 {
		t.Fatalf("plan = %+v", plan)
	}

	accepted, err := svc.AcceptPlan(ctx, plan.ID.String(), auth.System)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != StatusReceived {
		t.Errorf("status = %s, want received", accepted.Status)
	}
	for _, p := range accepted.Products {
		if p.ProductID == nil {
			t.Error("every declared item should link to a product after acceptance")
		}
	}

	// accepting twice is rejected
	if _, err := svc.AcceptPlan(ctx, plan.ID.String(), auth.System); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Errorf("expected InvalidState on second accept, got %v", err)
	}
}

func TestCancelPlanBeforeAcceptance(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	plan, err := svc.SubmitPlan(ctx, SubmitRequest{
		SellerID: uuid.New().String(),
		Products: []SubmitRequestItem{{Name: "Rolleiflex 2.8F", Category: "camera", EstimatedValue: 250000}},
	})
	if err != nil {
		t.Fatal(err)
	}

	cancelled, err := svc.CancelPlan(ctx, plan.ID.String(), auth.System)
	if err != nil {
		t.Fatalf("cancel submitted plan: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
}

func TestCancelPlanRejectedAfterAcceptance(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	plan, err := svc.SubmitPlan(ctx, SubmitRequest{
		SellerID: uuid.New().String(),
		Products: []SubmitRequestItem{{Name: "Summicron 50mm", Category: "lens", EstimatedValue: 180000}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AcceptPlan(ctx, plan.ID.String(), auth.System); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CancelPlan(ctx, plan.ID.String(), auth.System); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected InvalidState cancelling a received plan, got %v", err)
	}
}
