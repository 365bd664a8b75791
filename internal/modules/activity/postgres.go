package activity

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// InsertTx appends an activity inside a caller-owned transaction, so the
// audit row commits atomically with the transition it records. Sibling
// module repositories call this from their own transactions.
func InsertTx(ctx context.Context, tx *sql.Tx, a *Activity) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO activities (id, type, description, user_id, product_id, order_id, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.Type, a.Description,
		nullable(a.UserID), nullable(a.ProductID), nullable(a.OrderID), nullable(a.Metadata))
	return err
}

func (r *postgresRepo) Insert(ctx context.Context, a *Activity) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (id, type, description, user_id, product_id, order_id, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.Type, a.Description,
		nullable(a.UserID), nullable(a.ProductID), nullable(a.OrderID), nullable(a.Metadata))
	return err
}

func (r *postgresRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]*Activity, error) {
	return r.query(ctx, `
		SELECT id, type, description, user_id, product_id, order_id, metadata, created_at
		FROM activities WHERE product_id=$1 ORDER BY created_at DESC LIMIT $2`, productID, clamp(limit))
}

func (r *postgresRepo) ListByOrder(ctx context.Context, orderID string, limit int) ([]*Activity, error) {
	return r.query(ctx, `
		SELECT id, type, description, user_id, product_id, order_id, metadata, created_at
		FROM activities WHERE order_id=$1 ORDER BY created_at DESC LIMIT $2`, orderID, clamp(limit))
}

func (r *postgresRepo) ListRecent(ctx context.Context, limit int) ([]*Activity, error) {
	return r.query(ctx, `
		SELECT id, type, description, user_id, product_id, order_id, metadata, created_at
		FROM activities ORDER BY created_at DESC LIMIT $1`, clamp(limit))
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]*Activity, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Activity
	for rows.Next() {
		a := &Activity{}
		var userID, productID, orderID, metadata sql.NullString
		if err := rows.Scan(&a.ID, &a.Type, &a.Description,
			&userID, &productID, &orderID, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.UserID = userID.String
		a.ProductID = productID.String
		a.OrderID = orderID.String
		a.Metadata = metadata.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func clamp(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
