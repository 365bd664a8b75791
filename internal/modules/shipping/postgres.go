package shipping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
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

const shipmentCols = `id, order_id, product_id, status, COALESCE(carrier,''), COALESCE(tracking_number,''),
	priority, COALESCE(customer_name,''), COALESCE(address,''), COALESCE(location,''),
	COALESCE(bundle_id,''), COALESCE(notes,''), deadline,
	picked_at, packed_at, shipped_at, delivered_at, created_at, updated_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Shipment, error) {
	s, err := scanShipment(r.db.QueryRowContext(ctx,
		`SELECT `+shipmentCols+` FROM shipments WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("shipment", id)
	}
	return s, err
}

func (r *postgresRepo) List(ctx context.Context, status string, limit int) ([]*Shipment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + shipmentCols + ` FROM shipments`
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
	var out []*Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *postgresRepo) GetActiveByProduct(ctx context.Context, productID string) (*Shipment, error) {
	s, err := scanShipment(r.db.QueryRowContext(ctx,
		`SELECT `+shipmentCols+` FROM shipments WHERE product_id=$1 AND status<>'cancelled'`, productID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *postgresRepo) ActiveOrderForProduct(ctx context.Context, productID string) (string, error) {
	var orderID string
	err := r.db.QueryRowContext(ctx, `
		SELECT o.id FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE oi.product_id=$1 AND o.status IN ('confirmed','processing')
		ORDER BY o.created_at DESC LIMIT 1`, productID).Scan(&orderID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return orderID, err
}

// SynthesizeDemoOrder fabricates a confirmed demo order for the product
// and picks it, all in one transaction, so an abort leaves no half-made
// order behind.
func (r *postgresRepo) SynthesizeDemoOrder(ctx context.Context, productID, location string, actor auth.Actor) (*Shipment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var name, sku string
	var price float64
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT name, sku, price, status FROM products WHERE id=$1 FOR UPDATE`, productID).
		Scan(&name, &sku, &price, &status)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("product", productID)
	}
	if err != nil {
		return nil, err
	}

	// demo buyer account, created on first use
	buyerID := uuid.New()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, role)
		VALUES ($1, 'demo-buyer@example.test', '', 'Demo Buyer', 'seller')
		ON CONFLICT (email) DO NOTHING`, buyerID); err != nil {
		return nil, err
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE email='demo-buyer@example.test'`).Scan(&buyerID); err != nil {
		return nil, err
	}

	if status == "listing" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET status='sold', version=version+1, updated_at=now() WHERE id=$1`,
			productID); err != nil {
			return nil, err
		}
	}

	orderID := uuid.New()
	orderNumber := fmt.Sprintf("ORD-DEMO-%s", time.Now().Format("20060102150405"))
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, buyer_id, destination, destination_hash, status, total)
		VALUES ($1,$2,$3,'demo warehouse pickup','demo',$4,$5)`,
		orderID, orderNumber, buyerID, "confirmed", price); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_items (id, order_id, product_id, sku, unit_price, quantity)
		VALUES ($1,$2,$3,$4,$5,1)`, uuid.New(), orderID, productID, sku, price); err != nil {
		return nil, err
	}

	if err := activity.InsertTx(ctx, tx, &activity.Activity{
		Type:        activity.TypeOrderConfirmed,
		Description: fmt.Sprintf("demo order %s synthesized for product %s", orderNumber, name),
		UserID:      actor.ID,
		ProductID:   productID,
		OrderID:     orderID.String(),
	}); err != nil {
		return nil, err
	}

	s, err := createPickedShipment(ctx, tx, orderID.String(), productID, "demo warehouse pickup", "Demo Buyer", location, actor)
	if err != nil {
		return nil, err
	}

	return s, tx.Commit()
}

func (r *postgresRepo) PlanForOrder(ctx context.Context, orderID string, actor auth.Actor) ([]*Shipment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status, destination, customerName string
	err = tx.QueryRowContext(ctx, `
		SELECT o.status, o.destination, u.full_name
		FROM orders o JOIN users u ON u.id = o.buyer_id
		WHERE o.id=$1 FOR UPDATE`, orderID).Scan(&status, &destination, &customerName)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("order", orderID)
	}
	if err != nil {
		return nil, err
	}
	if status != "pending" {
		return nil, apperr.InvalidState("order %s is %s, only pending orders can be confirmed", orderID, status)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status='confirmed', updated_at=now() WHERE id=$1`, orderID); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT oi.product_id, p.name
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id=$1 ORDER BY oi.product_id`, orderID)
	if err != nil {
		return nil, err
	}
	var items []BundleItem
	for rows.Next() {
		var it BundleItem
		if err := rows.Scan(&it.ProductID, &it.ProductName); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.InvalidState("order %s has no items", orderID)
	}

	var tag *BundleTag
	if len(items) > 1 {
		tag = &BundleTag{BundleID: uuid.New().String(), Items: items}
	}

	now := time.Now()
	deadline := now.Add(4 * time.Hour)
	oid := uuid.MustParse(orderID)

	var shipments []*Shipment
	for _, it := range items {
		s := &Shipment{
			ID:           uuid.New(),
			OrderID:      oid,
			ProductID:    uuid.MustParse(it.ProductID),
			Status:       StatusPending,
			Priority:     "normal",
			CustomerName: customerName,
			Address:      destination,
			Deadline:     &deadline,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if tag != nil {
			s.BundleID = tag.BundleID
			s.Notes = &Notes{Bundle: tag}
		}
		if err := insertShipment(ctx, tx, s); err != nil {
			return nil, err
		}
		if err := activity.InsertTx(ctx, tx, &activity.Activity{
			Type:        activity.TypeShipmentCreated,
			Description: fmt.Sprintf("shipment created for product %s", it.ProductName),
			UserID:      actor.ID,
			ProductID:   it.ProductID,
			OrderID:     orderID,
		}); err != nil {
			return nil, err
		}
		shipments = append(shipments, s)
	}

	if err := activity.InsertTx(ctx, tx, &activity.Activity{
		Type:        activity.TypeOrderConfirmed,
		Description: "order confirmed, shipments planned",
		UserID:      actor.ID,
		OrderID:     orderID,
	}); err != nil {
		return nil, err
	}
	if tag != nil {
		meta, _ := json.Marshal(tag)
		if err := activity.InsertTx(ctx, tx, &activity.Activity{
			Type:        activity.TypeBundleFormed,
			Description: fmt.Sprintf("%d items bundled for one parcel", len(items)),
			UserID:      actor.ID,
			OrderID:     orderID,
			Metadata:    string(meta),
		}); err != nil {
			return nil, err
		}
	}

	return shipments, tx.Commit()
}

func (r *postgresRepo) CreateForOrderItem(ctx context.Context, orderID, productID, location string, actor auth.Actor) (*Shipment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var destination, customerName string
	err = tx.QueryRowContext(ctx, `
		SELECT o.destination, u.full_name
		FROM orders o JOIN users u ON u.id = o.buyer_id
		WHERE o.id=$1`, orderID).Scan(&destination, &customerName)
	if err != nil {
		return nil, err
	}

	s, err := createPickedShipment(ctx, tx, orderID, productID, destination, customerName, location, actor)
	if err != nil {
		return nil, err
	}

	return s, tx.Commit()
}

// createPickedShipment inserts a shipment already in picked, moves the
// product to processing and the order out of confirmed, inside the
// caller's transaction.
func createPickedShipment(ctx context.Context, tx *sql.Tx, orderID, productID, destination, customerName, location string, actor auth.Actor) (*Shipment, error) {
	now := time.Now()
	deadline := now.Add(4 * time.Hour)
	s := &Shipment{
		ID:           uuid.New(),
		OrderID:      uuid.MustParse(orderID),
		ProductID:    uuid.MustParse(productID),
		Status:       StatusPending,
		Priority:     "normal",
		CustomerName: customerName,
		Address:      destination,
		Location:     location,
		Deadline:     &deadline,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.advance(StatusPicked, now); err != nil {
		return nil, err
	}
	if err := insertShipment(ctx, tx, s); err != nil {
		if isUniqueViolation(err) {
			// another request created the shipment first
			return nil, apperr.Concurrent("shipment for product", productID)
		}
		return nil, err
	}

	if err := markProductProcessing(ctx, tx, productID); err != nil {
		return nil, err
	}
	if err := markOrderProcessing(ctx, tx, orderID); err != nil {
		return nil, err
	}
	if err := activity.InsertTx(ctx, tx, &activity.Activity{
		Type:        activity.TypePickingStarted,
		Description: fmt.Sprintf("picking instruction created at %s", location),
		UserID:      actor.ID,
		ProductID:   productID,
		OrderID:     orderID,
	}); err != nil {
		return nil, err
	}

	return s, nil
}

func (r *postgresRepo) Pick(ctx context.Context, shipmentID, location string, actor auth.Actor) (*Shipment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	s, err := scanShipment(tx.QueryRowContext(ctx,
		`SELECT `+shipmentCols+` FROM shipments WHERE id=$1 FOR UPDATE`, shipmentID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("shipment", shipmentID)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if s.Status != StatusPicked {
		// a repeated pick of an already-picked shipment is a no-op
		if err := s.advance(StatusPicked, now); err != nil {
			return nil, err
		}
	}
	if location != "" {
		s.Location = location
	}
	s.UpdatedAt = now

	if err := updateShipment(ctx, tx, s); err != nil {
		return nil, err
	}
	if err := markProductProcessing(ctx, tx, s.ProductID.String()); err != nil {
		return nil, err
	}
	if err := markOrderProcessing(ctx, tx, s.OrderID.String()); err != nil {
		return nil, err
	}
	if err := activity.InsertTx(ctx, tx, &activity.Activity{
		Type:        activity.TypePickingStarted,
		Description: fmt.Sprintf("shipment picked at %s", s.Location),
		UserID:      actor.ID,
		ProductID:   s.ProductID.String(),
		OrderID:     s.OrderID.String(),
	}); err != nil {
		return nil, err
	}

	return s, tx.Commit()
}

func (r *postgresRepo) Pack(ctx context.Context, shipmentIDs []string, actor auth.Actor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// lock the requested shipments and every bundle sibling together,
	// in id order, so two bundle-wide operations cannot deadlock
	rows, err := tx.QueryContext(ctx, `
		SELECT `+shipmentCols+` FROM shipments
		WHERE id = ANY($1)
		   OR bundle_id IN (SELECT DISTINCT bundle_id FROM shipments
		                    WHERE id = ANY($1) AND bundle_id IS NOT NULL)
		ORDER BY id FOR UPDATE`, pq.Array(shipmentIDs))
	if err != nil {
		return err
	}
	var locked []*Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			rows.Close()
			return err
		}
		locked = append(locked, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	requested := map[string]bool{}
	for _, id := range shipmentIDs {
		requested[id] = true
	}
	found := map[string]bool{}
	for _, s := range locked {
		found[s.ID.String()] = true
	}
	for _, id := range shipmentIDs {
		if !found[id] {
			return apperr.NotFound("shipment", id)
		}
	}

	if err := packingViolation(requested, locked); err != nil {
		return err
	}

	now := time.Now()
	for _, s := range locked {
		if !requested[s.ID.String()] {
			continue
		}
		if err := s.advance(StatusPacked, now); err != nil {
			return err
		}
		if err := updateShipment(ctx, tx, s); err != nil {
			return err
		}
		if err := activity.InsertTx(ctx, tx, &activity.Activity{
			Type:        activity.TypePackingCompleted,
			Description: "shipment packed",
			UserID:      actor.ID,
			ProductID:   s.ProductID.String(),
			OrderID:     s.OrderID.String(),
		}); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) AdvanceBundle(ctx context.Context, shipmentID string, next Status, carrier, tracking string, actor auth.Actor) ([]*Shipment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT `+shipmentCols+` FROM shipments
		WHERE id = $1
		   OR bundle_id = (SELECT bundle_id FROM shipments WHERE id=$1 AND bundle_id IS NOT NULL)
		ORDER BY id FOR UPDATE`, shipmentID)
	if err != nil {
		return nil, err
	}
	var members []*Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		members = append(members, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, apperr.NotFound("shipment", shipmentID)
	}

	now := time.Now()
	if err := advanceMembers(members, shipmentID, next, carrier, tracking, now); err != nil {
		return nil, err
	}

	for _, s := range members {
		if s.Status == StatusCancelled {
			continue
		}
		if err := updateShipment(ctx, tx, s); err != nil {
			return nil, err
		}

		productStatus := ""
		switch next {
		case StatusShipped:
			productStatus = "shipped"
		case StatusDelivered:
			productStatus = "delivered"
		}
		if productStatus != "" {
			if err := advanceProduct(ctx, tx, s.ProductID.String(), productStatus); err != nil {
				return nil, err
			}
		}

		if err := activity.InsertTx(ctx, tx, &activity.Activity{
			Type:        activity.TypeShipmentUpdated,
			Description: fmt.Sprintf("shipment moved to %s", next),
			UserID:      actor.ID,
			ProductID:   s.ProductID.String(),
			OrderID:     s.OrderID.String(),
		}); err != nil {
			return nil, err
		}
	}

	if next == StatusDelivered {
		if err := completeDeliveredOrders(ctx, tx, members); err != nil {
			return nil, err
		}
	}

	return members, tx.Commit()
}

func (r *postgresRepo) RemoveFromBundle(ctx context.Context, productID string, actor auth.Actor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := SplitBundleTx(ctx, tx, productID); err != nil {
		return err
	}
	return tx.Commit()
}

// ── helpers ──────────────────────────────────────────────────────────────────

func insertShipment(ctx context.Context, tx *sql.Tx, s *Shipment) error {
	notes, err := EncodeNotes(s.Notes)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shipments
		  (id, order_id, product_id, status, carrier, tracking_number, priority,
		   customer_name, address, location, bundle_id, notes, deadline,
		   picked_at, packed_at, shipped_at, delivered_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		s.ID, s.OrderID, s.ProductID, s.Status,
		nullIfEmpty(s.Carrier), nullIfEmpty(s.TrackingNumber), s.Priority,
		nullIfEmpty(s.CustomerName), nullIfEmpty(s.Address), nullIfEmpty(s.Location),
		nullIfEmpty(s.BundleID), nullIfEmpty(notes), s.Deadline,
		s.PickedAt, s.PackedAt, s.ShippedAt, s.DeliveredAt, s.CreatedAt, s.UpdatedAt)
	return err
}

func updateShipment(ctx context.Context, tx *sql.Tx, s *Shipment) error {
	notes, err := EncodeNotes(s.Notes)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE shipments SET
		  status=$1, carrier=$2, tracking_number=$3, location=$4, bundle_id=$5, notes=$6,
		  picked_at=$7, packed_at=$8, shipped_at=$9, delivered_at=$10, updated_at=$11
		WHERE id=$12`,
		s.Status, nullIfEmpty(s.Carrier), nullIfEmpty(s.TrackingNumber),
		nullIfEmpty(s.Location), nullIfEmpty(s.BundleID), nullIfEmpty(notes),
		s.PickedAt, s.PackedAt, s.ShippedAt, s.DeliveredAt, s.UpdatedAt, s.ID)
	return err
}

// markProductProcessing moves a sold product to processing; a product
// already processing is left alone so re-picks stay idempotent.
func markProductProcessing(ctx context.Context, tx *sql.Tx, productID string) error {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&status)
	if err == sql.ErrNoRows {
		return apperr.NotFound("product", productID)
	}
	if err != nil {
		return err
	}
	switch status {
	case "processing":
		return nil
	case "sold":
		_, err := tx.ExecContext(ctx,
			`UPDATE products SET status='processing', version=version+1, updated_at=now() WHERE id=$1`,
			productID)
		return err
	default:
		return apperr.InvalidState("product %s is %s, not ready for picking", productID, status)
	}
}

// markOrderProcessing moves a confirmed order to processing when
// picking starts. Idempotent: an order already past confirmed is left
// alone.
func markOrderProcessing(ctx context.Context, tx *sql.Tx, orderID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET status='processing', updated_at=now() WHERE id=$1 AND status='confirmed'`,
		orderID)
	return err
}

func advanceProduct(ctx context.Context, tx *sql.Tx, productID, next string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products SET status=$1, version=version+1, updated_at=now()
		WHERE id=$2 AND status=$3`,
		next, productID, map[string]string{"shipped": "processing", "delivered": "shipped"}[next])
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Concurrent("product", productID)
	}
	return err
}

// completeDeliveredOrders closes each member's order once no shipment on
// that order remains undelivered. Cancelled shipments do not hold an
// order open.
func completeDeliveredOrders(ctx context.Context, tx *sql.Tx, members []*Shipment) error {
	seen := map[string]bool{}
	for _, s := range members {
		orderID := s.OrderID.String()
		if seen[orderID] {
			continue
		}
		seen[orderID] = true
		if _, err := tx.ExecContext(ctx, `
			UPDATE orders SET status='completed', updated_at=now()
			WHERE id=$1 AND status IN ('confirmed', 'processing')
			  AND NOT EXISTS (
				SELECT 1 FROM shipments
				WHERE order_id=$1 AND status NOT IN ('delivered', 'cancelled'))`,
			orderID); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanShipment(row rowScanner) (*Shipment, error) {
	s := &Shipment{}
	var rawNotes string
	var deadline, pickedAt, packedAt, shippedAt, deliveredAt sql.NullTime
	err := row.Scan(&s.ID, &s.OrderID, &s.ProductID, &s.Status,
		&s.Carrier, &s.TrackingNumber, &s.Priority,
		&s.CustomerName, &s.Address, &s.Location,
		&s.BundleID, &rawNotes, &deadline,
		&pickedAt, &packedAt, &shippedAt, &deliveredAt,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if s.Notes, err = DecodeNotes(rawNotes); err != nil {
		return nil, err
	}
	s.Deadline = timePtr(deadline)
	s.PickedAt = timePtr(pickedAt)
	s.PackedAt = timePtr(packedAt)
	s.ShippedAt = timePtr(shippedAt)
	s.DeliveredAt = timePtr(deliveredAt)
	return s, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
