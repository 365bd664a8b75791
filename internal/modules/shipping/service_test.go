package shipping

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

type fakeRepo struct {
	shipments    map[string]*Shipment
	activeOrders map[string]string
	demoOrders   int
	picks        int
	advances     []Status
}

func newFakeShippingRepo() *fakeRepo {
	return &fakeRepo{shipments: map[string]*Shipment{}, activeOrders: map[string]string{}}
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*Shipment, error) {
	s, ok := r.shipments[id]
	if !ok {
		return nil, apperr.NotFound("shipment", id)
	}
	return s, nil
}

func (r *fakeRepo) List(ctx context.Context, status string, limit int) ([]*Shipment, error) {
	var out []*Shipment
	for _, s := range r.shipments {
		if status == "" || string(s.Status) == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetActiveByProduct(ctx context.Context, productID string) (*Shipment, error) {
	for _, s := range r.shipments {
		if s.ProductID.String() == productID && s.Status != StatusCancelled {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ActiveOrderForProduct(ctx context.Context, productID string) (string, error) {
	return r.activeOrders[productID], nil
}

func (r *fakeRepo) SynthesizeDemoOrder(ctx context.Context, productID, location string, actor auth.Actor) (*Shipment, error) {
	r.demoOrders++
	r.activeOrders[productID] = uuid.New().String()
	return r.CreateForOrderItem(ctx, r.activeOrders[productID], productID, location, actor)
}

func (r *fakeRepo) PlanForOrder(ctx context.Context, orderID string, actor auth.Actor) ([]*Shipment, error) {
	return nil, nil
}

func (r *fakeRepo) CreateForOrderItem(ctx context.Context, orderID, productID, location string, actor auth.Actor) (*Shipment, error) {
	s := newShipment(StatusPending)
	s.ProductID = uuid.MustParse(productID)
	s.Location = location
	if err := s.advance(StatusPicked, time.Now()); err != nil {
		return nil, err
	}
	r.shipments[s.ID.String()] = s
	return s, nil
}

func (r *fakeRepo) Pick(ctx context.Context, shipmentID, location string, actor auth.Actor) (*Shipment, error) {
	r.picks++
	return r.shipments[shipmentID], nil
}

func (r *fakeRepo) Pack(ctx context.Context, shipmentIDs []string, actor auth.Actor) error {
	return nil
}

func (r *fakeRepo) AdvanceBundle(ctx context.Context, shipmentID string, next Status, carrier, tracking string, actor auth.Actor) ([]*Shipment, error) {
	r.advances = append(r.advances, next)
	s, ok := r.shipments[shipmentID]
	if !ok {
		return nil, apperr.NotFound("shipment", shipmentID)
	}
	if carrier != "" {
		s.Carrier = carrier
		s.TrackingNumber = tracking
	}
	if err := s.advance(next, time.Now()); err != nil {
		return nil, err
	}
	return []*Shipment{s}, nil
}

func (r *fakeRepo) RemoveFromBundle(ctx context.Context, productID string, actor auth.Actor) error {
	return nil
}

type failingGateway struct{}

func (failingGateway) CreateLabel(ctx context.Context, req *LabelRequest) (*LabelResponse, error) {
	return nil, fmt.Errorf("carrier api unavailable")
}

func testGateways() GatewayRegistry {
	return GatewayRegistry{CarrierYamato: NewStubGateway(CarrierYamato)}
}

func TestPickingWithoutOrderRejected(t *testing.T) {
	repo := newFakeShippingRepo()
	svc := NewService(repo, testGateways(), false)

	_, err := svc.CreatePickingInstruction(context.Background(),
		PickingRequest{ProductIDs: []string{uuid.New().String()}}, auth.System)
	if apperr.KindOf(err) != apperr.KindNoActiveOrder {
		t.Fatalf("expected NoActiveOrder, got %v", err)
	}
}

func TestPickingDemoModeSynthesizesOrder(t *testing.T) {
	repo := newFakeShippingRepo()
	svc := NewService(repo, testGateways(), true)

	shipments, err := svc.CreatePickingInstruction(context.Background(),
		PickingRequest{ProductIDs: []string{uuid.New().String()}, Location: "A-12"}, auth.System)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.demoOrders != 1 {
		t.Errorf("demo orders = %d, want 1", repo.demoOrders)
	}
	if len(shipments) != 1 || shipments[0].Status != StatusPicked {
		t.Fatalf("shipments = %+v, want one picked shipment", shipments)
	}
	if shipments[0].Location != "A-12" {
		t.Errorf("location = %s, want the requested pick location", shipments[0].Location)
	}
	if len(repo.shipments) != 1 {
		t.Errorf("shipments created = %d, want exactly one from the synthesized order", len(repo.shipments))
	}
}

func TestPickingIsIdempotent(t *testing.T) {
	repo := newFakeShippingRepo()
	productID := uuid.New().String()
	repo.activeOrders[productID] = uuid.New().String()
	svc := NewService(repo, testGateways(), false)

	if _, err := svc.CreatePickingInstruction(context.Background(),
		PickingRequest{ProductIDs: []string{productID}}, auth.System); err != nil {
		t.Fatalf("first pick: %v", err)
	}
	if _, err := svc.CreatePickingInstruction(context.Background(),
		PickingRequest{ProductIDs: []string{productID}}, auth.System); err != nil {
		t.Fatalf("second pick: %v", err)
	}

	if len(repo.shipments) != 1 {
		t.Errorf("shipments = %d, want exactly one per product", len(repo.shipments))
	}
	if repo.picks != 1 {
		t.Errorf("re-picks = %d, want 1 (second request reuses the shipment)", repo.picks)
	}
}

func TestReadyForPickupObtainsLabelFirst(t *testing.T) {
	repo := newFakeShippingRepo()
	s := newShipment(StatusPacked)
	s.Address = "1-2-3 Shibuya, Tokyo"
	repo.shipments[s.ID.String()] = s
	svc := NewService(repo, testGateways(), false)

	shipments, err := svc.MarkReadyForPickup(context.Background(), s.ID.String(),
		ReadyRequest{Carrier: "yamato"}, auth.System)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shipments[0].TrackingNumber == "" {
		t.Error("tracking number should be assigned before ready_for_pickup")
	}
	if shipments[0].Status != StatusReadyForPickup {
		t.Errorf("status = %s, want ready_for_pickup", shipments[0].Status)
	}
}

func TestReadyForPickupGatewayFailureAborts(t *testing.T) {
	repo := newFakeShippingRepo()
	s := newShipment(StatusPacked)
	s.Address = "1-2-3 Shibuya, Tokyo"
	repo.shipments[s.ID.String()] = s
	svc := NewService(repo, GatewayRegistry{CarrierYamato: failingGateway{}}, false)

	_, err := svc.MarkReadyForPickup(context.Background(), s.ID.String(),
		ReadyRequest{Carrier: "yamato"}, auth.System)

	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindExternalService {
		t.Fatalf("expected ExternalService, got %v", err)
	}
	if !appErr.Retryable() {
		t.Error("gateway failures should be retryable")
	}
	if len(repo.advances) != 0 {
		t.Error("no state change may happen when the label call fails")
	}
	if s.Status != StatusPacked {
		t.Errorf("status = %s, want packed (unchanged)", s.Status)
	}
}

func TestReadyForPickupUnknownCarrier(t *testing.T) {
	repo := newFakeShippingRepo()
	svc := NewService(repo, testGateways(), false)

	_, err := svc.MarkReadyForPickup(context.Background(), uuid.New().String(),
		ReadyRequest{Carrier: "pigeon"}, auth.System)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestReadyForPickupRequiresPacked(t *testing.T) {
	repo := newFakeShippingRepo()
	s := newShipment(StatusPicked)
	repo.shipments[s.ID.String()] = s
	svc := NewService(repo, testGateways(), false)

	_, err := svc.MarkReadyForPickup(context.Background(), s.ID.String(),
		ReadyRequest{Carrier: "yamato"}, auth.System)
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
}
