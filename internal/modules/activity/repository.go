package activity

import "context"

// Repository defines read access and standalone appends. Appends that
// must commit together with a state change go through InsertTx instead.
type Repository interface {
	Insert(ctx context.Context, a *Activity) error
	ListByProduct(ctx context.Context, productID string, limit int) ([]*Activity, error)
	ListByOrder(ctx context.Context, orderID string, limit int) ([]*Activity, error)
	ListRecent(ctx context.Context, limit int) ([]*Activity, error)
}
