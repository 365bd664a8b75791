package intake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/activity"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*DeliveryPlan, error) {
	plan, err := r.scanPlan(r.db.QueryRowContext(ctx, `
		SELECT id, seller_id, status, COALESCE(notes,''), created_at, updated_at
		FROM delivery_plans WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("delivery plan", id)
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadProducts(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *postgresRepo) ListBySeller(ctx context.Context, sellerID string, limit int) ([]*DeliveryPlan, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, seller_id, status, COALESCE(notes,''), created_at, updated_at
		FROM delivery_plans WHERE seller_id=$1 ORDER BY created_at DESC LIMIT $2`,
		sellerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*DeliveryPlan
	for rows.Next() {
		plan, err := r.scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, plan := range plans {
		if err := r.loadProducts(ctx, plan); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func (r *postgresRepo) Create(ctx context.Context, plan *DeliveryPlan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO delivery_plans (id, seller_id, status, notes)
		VALUES ($1,$2,$3,$4)`,
		plan.ID, plan.SellerID, plan.Status, nullIfEmpty(plan.Notes)); err != nil {
		return err
	}
	for _, p := range plan.Products {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO delivery_plan_products
			  (id, plan_id, declared_name, declared_category, declared_condition, estimated_value)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			p.ID, plan.ID, p.DeclaredName, p.DeclaredCategory,
			nullIfEmpty(p.DeclaredCondition), p.EstimatedValue); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *postgresRepo) Accept(ctx context.Context, planID string, actor auth.Actor) (*DeliveryPlan, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	var sellerID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT status, seller_id FROM delivery_plans WHERE id=$1 FOR UPDATE`, planID).
		Scan(&status, &sellerID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("delivery plan", planID)
	}
	if err != nil {
		return nil, err
	}
	if status != StatusSubmitted {
		return nil, apperr.InvalidState("delivery plan %s is %s, only submitted plans can be accepted", planID, status)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, declared_name, declared_category, COALESCE(declared_condition,''), estimated_value
		FROM delivery_plan_products WHERE plan_id=$1 ORDER BY created_at`, planID)
	if err != nil {
		return nil, err
	}
	type declared struct {
		id        uuid.UUID
		name      string
		category  string
		condition string
		value     float64
	}
	var items []declared
	for rows.Next() {
		var d declared
		if err := rows.Scan(&d.id, &d.name, &d.category, &d.condition, &d.value); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.InvalidState("delivery plan %s has no declared products", planID)
	}

	for _, d := range items {
		productID := uuid.New()
		sku := generateSKU(d.category, productID)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, sku, name, category, condition, price, status, seller_id)
			VALUES ($1,$2,$3,$4,$5,$6,'inbound',$7)`,
			productID, sku, d.name, d.category, nullIfEmpty(d.condition), d.value, sellerID); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE delivery_plan_products SET product_id=$1 WHERE id=$2`,
			productID, d.id); err != nil {
			return nil, err
		}
		if err := activity.InsertTx(ctx, tx, &activity.Activity{
			Type:        activity.TypeProductReceived,
			Description: fmt.Sprintf("%s received as %s", d.name, sku),
			UserID:      actor.ID,
			ProductID:   productID.String(),
		}); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE delivery_plans SET status='received', updated_at=now() WHERE id=$1`, planID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, planID)
}

func (r *postgresRepo) Cancel(ctx context.Context, planID string, actor auth.Actor) (*DeliveryPlan, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM delivery_plans WHERE id=$1 FOR UPDATE`, planID).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("delivery plan", planID)
	}
	if err != nil {
		return nil, err
	}
	if status != StatusSubmitted {
		return nil, apperr.InvalidState("delivery plan %s is %s, only submitted plans can be cancelled", planID, status)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE delivery_plans SET status='cancelled', updated_at=now() WHERE id=$1`, planID); err != nil {
		return nil, err
	}
	if err := activity.InsertTx(ctx, tx, &activity.Activity{
		Type:        activity.TypePlanCancelled,
		Description: fmt.Sprintf("delivery plan %s cancelled before acceptance", planID),
		UserID:      actor.ID,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, planID)
}

// generateSKU derives the immutable warehouse identifier from the
// category prefix and the product id.
func generateSKU(category string, productID uuid.UUID) string {
	prefix := "ITM"
	switch strings.ToLower(category) {
	case "camera", "camera_body":
		prefix = "CAM"
	case "lens":
		prefix = "LEN"
	case "watch", "timepiece":
		prefix = "WAT"
	}
	compact := strings.ToUpper(strings.ReplaceAll(productID.String(), "-", ""))
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102"), compact[:6])
}

func (r *postgresRepo) loadProducts(ctx context.Context, plan *DeliveryPlan) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, plan_id, declared_name, declared_category, COALESCE(declared_condition,''),
		       estimated_value, product_id, created_at
		FROM delivery_plan_products WHERE plan_id=$1 ORDER BY created_at`, plan.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		p := &PlanProduct{}
		var productID sql.NullString
		if err := rows.Scan(&p.ID, &p.PlanID, &p.DeclaredName, &p.DeclaredCategory,
			&p.DeclaredCondition, &p.EstimatedValue, &productID, &p.CreatedAt); err != nil {
			return err
		}
		if productID.Valid {
			id, err := uuid.Parse(productID.String)
			if err != nil {
				return err
			}
			p.ProductID = &id
		}
		plan.Products = append(plan.Products, p)
	}
	return rows.Err()
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanPlan(row rowScanner) (*DeliveryPlan, error) {
	plan := &DeliveryPlan{}
	err := row.Scan(&plan.ID, &plan.SellerID, &plan.Status, &plan.Notes,
		&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
