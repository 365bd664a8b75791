package product

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/activity"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
	"github.com/soko-dev/fulfillment-backend/internal/modules/shipping"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const productCols = `id, sku, name, category, COALESCE(condition,''), price, status,
	seller_id, COALESCE(current_location,''), COALESCE(metadata,''),
	inspected_at, COALESCE(inspected_by,''), version, created_at, updated_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("product", id)
	}
	return p, err
}

func (r *postgresRepo) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE sku=$1`, sku))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("product", sku)
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context, status string, limit int) ([]*Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + productCols + ` FROM products`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, p *Product, next Status, reason string, actor auth.Actor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	metadata, err := EncodeMetadata(p.Metadata)
	if err != nil {
		return err
	}

	// versioned write: a stale caller loses the race and must re-read
	res, err := tx.ExecContext(ctx, `
		UPDATE products SET
		  status=$1, metadata=$2, inspected_at=$3, inspected_by=$4,
		  version=version+1, updated_at=now()
		WHERE id=$5 AND version=$6`,
		next, nullIfEmpty(metadata), p.InspectedAt, nullIfEmpty(p.InspectedBy),
		p.ID, p.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, p.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("product", p.ID.String())
		}
		return apperr.Concurrent("product", p.ID.String())
	}

	if next == StatusCancelled {
		if err := cascadeCancellation(ctx, tx, p.ID.String()); err != nil {
			return err
		}
	}

	eventType := activity.TypeStatusChange
	if next == StatusCancelled {
		eventType = activity.TypeProductCancelled
	}
	description := fmt.Sprintf("%s moved from %s to %s", p.Name, p.Status, next)
	if reason != "" {
		description += ": " + reason
	}
	meta, _ := json.Marshal(map[string]string{"from": string(p.Status), "to": string(next)})
	if err := activity.InsertTx(ctx, tx, &activity.Activity{
		Type:        eventType,
		Description: description,
		UserID:      actor.ID,
		ProductID:   p.ID.String(),
		Metadata:    string(meta),
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.Status = next
	p.Version++
	return nil
}

func (r *postgresRepo) SetLocation(ctx context.Context, productID, location string, actor auth.Actor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE products SET current_location=$1, updated_at=now() WHERE id=$2`,
		location, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("product", productID)
	}

	if err := activity.InsertTx(ctx, tx, &activity.Activity{
		Type:        activity.TypeStatusChange,
		Description: fmt.Sprintf("product moved to %s", location),
		UserID:      actor.ID,
		ProductID:   productID,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// cascadeCancellation closes out everything attached to a cancelled
// product: its active checklist, its bundle membership, and its
// not-yet-shipped shipment.
func cascadeCancellation(ctx context.Context, tx *sql.Tx, productID string) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE inspection_checklists SET status='cancelled', updated_at=now()
		WHERE product_id=$1 AND status='active'`, productID); err != nil {
		return err
	}
	if err := shipping.SplitBundleTx(ctx, tx, productID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE shipments SET status='cancelled', updated_at=now()
		WHERE product_id=$1 AND status NOT IN ('shipped','delivered','cancelled')`, productID)
	return err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanProduct(row rowScanner) (*Product, error) {
	p := &Product{}
	var rawMetadata string
	var sellerID sql.NullString
	var inspectedAt sql.NullTime
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Condition, &p.Price, &p.Status,
		&sellerID, &p.CurrentLocation, &rawMetadata,
		&inspectedAt, &p.InspectedBy, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Metadata, err = DecodeMetadata(rawMetadata); err != nil {
		return nil, err
	}
	if sellerID.Valid {
		id, err := uuid.Parse(sellerID.String)
		if err != nil {
			return nil, err
		}
		p.SellerID = &id
	}
	if inspectedAt.Valid {
		t := inspectedAt.Time
		p.InspectedAt = &t
	}
	return p, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
