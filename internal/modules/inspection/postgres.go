package inspection

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/activity"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
	"github.com/soko-dev/fulfillment-backend/internal/modules/shipping"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetByProduct(ctx context.Context, productID string) (*Checklist, error) {
	c := &Checklist{}
	var rawResponses string
	var notes, verifiedBy sql.NullString
	var verifiedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, product_id, category, responses, outcome, notes, status,
		       verified_at, verified_by, created_at, updated_at
		FROM inspection_checklists WHERE product_id=$1`, productID).
		Scan(&c.ID, &c.ProductID, &c.Category, &rawResponses, &c.Outcome, &notes, &c.Status,
			&verifiedAt, &verifiedBy, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("inspection checklist for product", productID)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rawResponses), &c.Responses); err != nil {
		return nil, err
	}
	c.Notes = notes.String
	c.VerifiedBy = verifiedBy.String
	if verifiedAt.Valid {
		t := verifiedAt.Time
		c.VerifiedAt = &t
	}
	return c, nil
}

func (r *postgresRepo) ProductCategory(ctx context.Context, productID string) (string, string, error) {
	var category, status string
	err := r.db.QueryRowContext(ctx,
		`SELECT category, status FROM products WHERE id=$1`, productID).Scan(&category, &status)
	if err == sql.ErrNoRows {
		return "", "", apperr.NotFound("product", productID)
	}
	return category, status, err
}

func (r *postgresRepo) Save(ctx context.Context, c *Checklist, actor auth.Actor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	productID := c.ProductID.String()
	var name, status string
	err = tx.QueryRowContext(ctx,
		`SELECT name, status FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&name, &status)
	if err == sql.ErrNoRows {
		return apperr.NotFound("product", productID)
	}
	if err != nil {
		return err
	}
	if status != "inspection" {
		return apperr.InvalidState("product %s is %s, checklists can only be recorded during inspection", productID, status)
	}

	responses, err := json.Marshal(c.Responses)
	if err != nil {
		return err
	}

	now := time.Now()
	if c.Outcome != OutcomeFail {
		c.VerifiedAt = &now
		c.VerifiedBy = actor.ID
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Status = "active"

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO inspection_checklists
		  (id, product_id, category, responses, outcome, notes, status, verified_at, verified_by)
		VALUES ($1,$2,$3,$4,$5,$6,'active',$7,$8)
		ON CONFLICT (product_id) DO UPDATE SET
		  responses=EXCLUDED.responses, outcome=EXCLUDED.outcome, notes=EXCLUDED.notes,
		  status='active',
		  verified_at=COALESCE(inspection_checklists.verified_at, EXCLUDED.verified_at),
		  verified_by=COALESCE(NULLIF(inspection_checklists.verified_by,''), EXCLUDED.verified_by),
		  updated_at=now()`,
		c.ID, c.ProductID, c.Category, string(responses), c.Outcome,
		nullIfEmpty(c.Notes), c.VerifiedAt, nullIfEmpty(c.VerifiedBy)); err != nil {
		return err
	}

	switch c.Outcome {
	case OutcomeFail:
		// product stays in inspection; a bundled sibling must not wait
		if err := shipping.SplitBundleTx(ctx, tx, productID); err != nil {
			return err
		}
		if err := activity.InsertTx(ctx, tx, &activity.Activity{
			Type:        activity.TypeInspectionFailed,
			Description: fmt.Sprintf("%s failed inspection, awaiting staff decision", name),
			UserID:      actor.ID,
			ProductID:   productID,
		}); err != nil {
			return err
		}
	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET status='storage', inspected_at=$1, inspected_by=$2,
			  version=version+1, updated_at=now()
			WHERE id=$3`, now, actor.ID, productID); err != nil {
			return err
		}
		if err := activity.InsertTx(ctx, tx, &activity.Activity{
			Type:        activity.TypeInspectionCompleted,
			Description: fmt.Sprintf("%s passed inspection (%s), moved to storage", name, c.Outcome),
			UserID:      actor.ID,
			ProductID:   productID,
		}); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
