package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

// Service exposes the audit trail and standardized helpers for events
// that happen outside a ledger transaction.
type Service interface {
	Record(ctx context.Context, a *Activity) error
	RecordProductReceived(ctx context.Context, productID, productName string, actor auth.Actor) error
	RecordInspectionFailed(ctx context.Context, productID, reason string, actor auth.Actor) error
	ListByProduct(ctx context.Context, productID string, limit int) ([]*Activity, error)
	ListByOrder(ctx context.Context, orderID string, limit int) ([]*Activity, error)
	ListRecent(ctx context.Context, limit int) ([]*Activity, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Record(ctx context.Context, a *Activity) error {
	return s.repo.Insert(ctx, a)
}

func (s *service) RecordProductReceived(ctx context.Context, productID, productName string, actor auth.Actor) error {
	return s.repo.Insert(ctx, &Activity{
		Type:        TypeProductReceived,
		Description: fmt.Sprintf("product %s received into the warehouse", productName),
		UserID:      actor.ID,
		ProductID:   productID,
	})
}

func (s *service) RecordInspectionFailed(ctx context.Context, productID, reason string, actor auth.Actor) error {
	meta, _ := json.Marshal(map[string]string{"reason": reason})
	return s.repo.Insert(ctx, &Activity{
		Type:        TypeInspectionFailed,
		Description: "inspection failed, awaiting staff decision",
		UserID:      actor.ID,
		ProductID:   productID,
		Metadata:    string(meta),
	})
}

func (s *service) ListByProduct(ctx context.Context, productID string, limit int) ([]*Activity, error) {
	return s.repo.ListByProduct(ctx, productID, limit)
}

func (s *service) ListByOrder(ctx context.Context, orderID string, limit int) ([]*Activity, error) {
	return s.repo.ListByOrder(ctx, orderID, limit)
}

func (s *service) ListRecent(ctx context.Context, limit int) ([]*Activity, error) {
	return s.repo.ListRecent(ctx, limit)
}
