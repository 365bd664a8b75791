package shipping

import (
	"context"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

// Service orchestrates picking, packing and carrier hand-off for
// shipments, keeping bundled siblings moving together.
type Service interface {
	GetShipment(ctx context.Context, id string) (*Shipment, error)
	ListShipments(ctx context.Context, status string, limit int) ([]*Shipment, error)

	// PlanShipments confirms the order and creates its pending
	// shipments, bundling multi-item orders into one parcel.
	PlanShipments(ctx context.Context, orderID string, actor auth.Actor) ([]*Shipment, error)

	// CreatePickingInstruction starts (or idempotently restarts)
	// picking for each product. Products without an active order fail
	// unless demo mode synthesizes one.
	CreatePickingInstruction(ctx context.Context, req PickingRequest, actor auth.Actor) ([]*Shipment, error)

	// CompletePacking packs the given shipments; bundles must be packed
	// whole in a single call.
	CompletePacking(ctx context.Context, req PackingRequest, actor auth.Actor) error

	// MarkReadyForPickup obtains a carrier label first, then moves the
	// shipment and its bundle siblings to ready_for_pickup. A gateway
	// failure leaves every shipment untouched.
	MarkReadyForPickup(ctx context.Context, shipmentID string, req ReadyRequest, actor auth.Actor) ([]*Shipment, error)

	MarkShipped(ctx context.Context, shipmentID string, actor auth.Actor) ([]*Shipment, error)
	MarkDelivered(ctx context.Context, shipmentID string, actor auth.Actor) ([]*Shipment, error)

	// RemoveFromBundle splits one product out of its bundle so the rest
	// can keep moving.
	RemoveFromBundle(ctx context.Context, productID string, actor auth.Actor) error
}

type service struct {
	repo     Repository
	gateways GatewayRegistry
	demoMode bool
}

func NewService(repo Repository, gateways GatewayRegistry, demoMode bool) Service {
	return &service{repo: repo, gateways: gateways, demoMode: demoMode}
}

func (s *service) GetShipment(ctx context.Context, id string) (*Shipment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListShipments(ctx context.Context, status string, limit int) ([]*Shipment, error) {
	return s.repo.List(ctx, status, limit)
}

func (s *service) PlanShipments(ctx context.Context, orderID string, actor auth.Actor) ([]*Shipment, error) {
	if orderID == "" {
		return nil, apperr.Validation("order id is required")
	}
	return s.repo.PlanForOrder(ctx, orderID, actor)
}

func (s *service) CreatePickingInstruction(ctx context.Context, req PickingRequest, actor auth.Actor) ([]*Shipment, error) {
	if len(req.ProductIDs) == 0 {
		return nil, apperr.Validation("at least one product id is required")
	}

	var out []*Shipment
	for _, productID := range req.ProductIDs {
		shipment, err := s.pickOne(ctx, productID, req.Location, actor)
		if err != nil {
			return nil, err
		}
		out = append(out, shipment)
	}
	return out, nil
}

func (s *service) pickOne(ctx context.Context, productID, location string, actor auth.Actor) (*Shipment, error) {
	existing, err := s.repo.GetActiveByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.repo.Pick(ctx, existing.ID.String(), location, actor)
	}

	orderID, err := s.repo.ActiveOrderForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if orderID == "" {
		if !s.demoMode {
			return nil, apperr.NoActiveOrder(productID)
		}
		return s.repo.SynthesizeDemoOrder(ctx, productID, location, actor)
	}
	return s.repo.CreateForOrderItem(ctx, orderID, productID, location, actor)
}

func (s *service) CompletePacking(ctx context.Context, req PackingRequest, actor auth.Actor) error {
	if len(req.ShipmentIDs) == 0 {
		return apperr.Validation("at least one shipment id is required")
	}
	return s.repo.Pack(ctx, req.ShipmentIDs, actor)
}

func (s *service) MarkReadyForPickup(ctx context.Context, shipmentID string, req ReadyRequest, actor auth.Actor) ([]*Shipment, error) {
	carrier := Carrier(req.Carrier)
	gateway, ok := s.gateways[carrier]
	if !ok {
		return nil, apperr.Validation("unknown carrier %q", req.Carrier)
	}

	shipment, err := s.repo.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.Status != StatusPacked {
		return nil, apperr.InvalidTransition(string(shipment.Status), string(StatusReadyForPickup))
	}

	// label first: any gateway failure aborts before state changes
	label, err := gateway.CreateLabel(ctx, &LabelRequest{
		ShipmentID:   shipment.ID.String(),
		OrderID:      shipment.OrderID.String(),
		CustomerName: shipment.CustomerName,
		Address:      shipment.Address,
	})
	if err != nil {
		return nil, apperr.External(string(carrier), err)
	}

	return s.repo.AdvanceBundle(ctx, shipmentID, StatusReadyForPickup, string(carrier), label.TrackingNumber, actor)
}

func (s *service) MarkShipped(ctx context.Context, shipmentID string, actor auth.Actor) ([]*Shipment, error) {
	return s.repo.AdvanceBundle(ctx, shipmentID, StatusShipped, "", "", actor)
}

func (s *service) MarkDelivered(ctx context.Context, shipmentID string, actor auth.Actor) ([]*Shipment, error) {
	return s.repo.AdvanceBundle(ctx, shipmentID, StatusDelivered, "", "", actor)
}

func (s *service) RemoveFromBundle(ctx context.Context, productID string, actor auth.Actor) error {
	if productID == "" {
		return apperr.Validation("product id is required")
	}
	return s.repo.RemoveFromBundle(ctx, productID, actor)
}
