package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/activity"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	o := &Order{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_number, buyer_id, destination, destination_hash, status, total, created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.Destination, &o.DestinationHash,
			&o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("order", id)
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_number, buyer_id, destination, destination_hash, status, total, created_at, updated_at
		FROM orders WHERE buyer_id=$1 ORDER BY created_at DESC LIMIT $2`, buyerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o := &Order{}
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.Destination, &o.DestinationHash,
			&o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range orders {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *postgresRepo) Place(ctx context.Context, buyerID, destination string, productIDs []string, actor auth.Actor) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// lock all requested products in id order before touching any
	rows, err := tx.QueryContext(ctx, `
		SELECT id, sku, name, price, status FROM products
		WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	type locked struct {
		id     uuid.UUID
		sku    string
		name   string
		price  float64
		status string
	}
	found := map[string]locked{}
	for rows.Next() {
		var p locked
		if err := rows.Scan(&p.id, &p.sku, &p.name, &p.price, &p.status); err != nil {
			rows.Close()
			return nil, err
		}
		found[p.id.String()] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range productIDs {
		p, ok := found[id]
		if !ok {
			return nil, apperr.NotFound("product", id)
		}
		if p.status != "listing" {
			return nil, apperr.InvalidState("product %s is %s, only listed products can be purchased", id, p.status)
		}
	}

	now := time.Now()
	o := &Order{
		ID:              uuid.New(),
		OrderNumber:     fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), now.UnixNano()%10000),
		BuyerID:         uuid.MustParse(buyerID),
		Destination:     destination,
		DestinationHash: HashDestination(destination),
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, id := range productIDs {
		p := found[id]
		o.Total += p.price
		o.Items = append(o.Items, &OrderItem{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: p.id,
			SKU:       p.sku,
			UnitPrice: p.price,
			Quantity:  1,
			CreatedAt: now,
		})
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, buyer_id, destination, destination_hash, status, total)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.OrderNumber, o.BuyerID, o.Destination, o.DestinationHash, o.Status, o.Total); err != nil {
		return nil, err
	}

	for _, item := range o.Items {
		p := found[item.ProductID.String()]
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET status='sold', version=version+1, updated_at=now()
			WHERE id=$1 AND status='listing'`, item.ProductID)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, apperr.Concurrent("product", item.ProductID.String())
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, sku, unit_price, quantity)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			item.ID, item.OrderID, item.ProductID, item.SKU, item.UnitPrice, item.Quantity); err != nil {
			return nil, err
		}
		if err := activity.InsertTx(ctx, tx, &activity.Activity{
			Type:        activity.TypeProductSold,
			Description: fmt.Sprintf("%s sold on order %s", p.name, o.OrderNumber),
			UserID:      actor.ID,
			ProductID:   item.ProductID.String(),
			OrderID:     o.ID.String(),
		}); err != nil {
			return nil, err
		}
	}

	return o, tx.Commit()
}

func (r *postgresRepo) Cancel(ctx context.Context, id string, actor auth.Actor) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("order", id)
	}
	if err != nil {
		return nil, err
	}
	if !CanTransition(status, StatusCancelled) {
		return nil, apperr.InvalidTransition(status, StatusCancelled)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status='cancelled', updated_at=now() WHERE id=$1`, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE shipments SET status='cancelled', updated_at=now()
		WHERE order_id=$1 AND status NOT IN ('shipped', 'delivered', 'cancelled')`, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE products SET status='listing', version=version+1, updated_at=now()
		WHERE id IN (SELECT product_id FROM order_items WHERE order_id=$1)
		  AND status='sold'`, id); err != nil {
		return nil, err
	}
	if err := activity.InsertTx(ctx, tx, &activity.Activity{
		Type:        activity.TypeOrderCancelled,
		Description: "order cancelled, items relisted",
		UserID:      actor.ID,
		OrderID:     id,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, sku, unit_price, quantity, created_at
		FROM order_items WHERE order_id=$1 ORDER BY created_at`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		item := &OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.SKU,
			&item.UnitPrice, &item.Quantity, &item.CreatedAt); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}
