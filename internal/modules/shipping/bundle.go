package shipping

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/activity"
)

// BundleItem is one sibling in a bundle manifest.
type BundleItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
}

// BundleTag is the manifest shared by every shipment in a bundle. The
// bundle_id column is the authoritative membership key; the manifest
// carries the human-facing sibling list and must stay consistent across
// all sibling rows.
type BundleTag struct {
	BundleID string       `json:"bundleId"`
	Items    []BundleItem `json:"bundleItems"`
}

// Notes is the typed shape of the shipment notes column. Unknown
// shapes are rejected rather than passed through as free text.
type Notes struct {
	Bundle  *BundleTag `json:"bundle,omitempty"`
	General string     `json:"general,omitempty"`
}

// EncodeNotes serializes n for the notes column.
func EncodeNotes(n *Notes) (string, error) {
	if n == nil || (n.Bundle == nil && n.General == "") {
		return "", nil
	}
	b, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeNotes parses the notes column, rejecting unknown keys.
func DecodeNotes(raw string) (*Notes, error) {
	if raw == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	n := &Notes{}
	if err := dec.Decode(n); err != nil {
		return nil, apperr.Validation("malformed shipment notes: %v", err)
	}
	return n, nil
}

type bundleMember struct {
	id        string
	productID string
	notes     *Notes
}

type bundleUpdate struct {
	id       string
	bundleID string // empty means the tag is removed
	notes    *Notes
}

func manifestName(n *Notes, productID string) string {
	if n == nil || n.Bundle == nil {
		return ""
	}
	for _, it := range n.Bundle.Items {
		if it.ProductID == productID {
			return it.ProductName
		}
	}
	return ""
}

// splitBundle computes the row rewrites for removing productID from
// bundleID: the removed member loses its tag, survivors get a manifest
// listing only each other, and a bundle left with one member dissolves.
// Removing a product that is not a member rewrites nothing beyond the
// survivors' (unchanged) manifests.
func splitBundle(bundleID string, members []bundleMember, productID string) ([]bundleUpdate, bool) {
	var remaining []bundleMember
	for _, m := range members {
		if m.productID != productID {
			remaining = append(remaining, m)
		}
	}
	dissolve := len(remaining) <= 1

	updates := make([]bundleUpdate, 0, len(members))
	for _, m := range members {
		removed := m.productID == productID
		notes := &Notes{}
		if m.notes != nil {
			*notes = *m.notes
		}
		u := bundleUpdate{id: m.id, notes: notes}
		if removed || dissolve {
			notes.Bundle = nil
		} else {
			items := make([]BundleItem, 0, len(remaining))
			for _, r := range remaining {
				items = append(items, BundleItem{ProductID: r.productID, ProductName: manifestName(m.notes, r.productID)})
			}
			notes.Bundle = &BundleTag{BundleID: bundleID, Items: items}
			u.bundleID = bundleID
		}
		updates = append(updates, u)
	}
	return updates, dissolve
}

// SplitBundleTx removes productID from its bundle inside a caller-owned
// transaction: the removed shipment loses its tag, every sibling's
// manifest is rewritten, and a bundle that shrinks to one member loses
// its tag entirely. Sibling rows are locked in id order. No-op for
// unbundled products.
func SplitBundleTx(ctx context.Context, tx *sql.Tx, productID string) error {
	var bundleID sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT bundle_id FROM shipments WHERE product_id=$1 ORDER BY created_at DESC LIMIT 1`,
		productID).Scan(&bundleID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if !bundleID.Valid || bundleID.String == "" {
		return nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, product_id, COALESCE(notes,'')
		FROM shipments WHERE bundle_id=$1 ORDER BY id FOR UPDATE`, bundleID.String)
	if err != nil {
		return err
	}

	var members []bundleMember
	for rows.Next() {
		var m bundleMember
		var raw string
		if err := rows.Scan(&m.id, &m.productID, &raw); err != nil {
			rows.Close()
			return err
		}
		if m.notes, err = DecodeNotes(raw); err != nil {
			rows.Close()
			return err
		}
		members = append(members, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	updates, dissolved := splitBundle(bundleID.String, members, productID)
	for _, u := range updates {
		encoded, err := EncodeNotes(u.notes)
		if err != nil {
			return err
		}
		var newBundleID interface{}
		if u.bundleID != "" {
			newBundleID = u.bundleID
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE shipments SET bundle_id=$1, notes=$2, updated_at=now() WHERE id=$3`,
			newBundleID, encoded, u.id); err != nil {
			return err
		}
	}

	meta, _ := json.Marshal(map[string]interface{}{
		"bundleId":  bundleID.String,
		"removed":   productID,
		"dissolved": dissolved,
	})
	return activity.InsertTx(ctx, tx, &activity.Activity{
		Type:        activity.TypeBundleSplit,
		Description: fmt.Sprintf("product %s removed from bundle %s", productID, bundleID.String),
		ProductID:   productID,
		Metadata:    string(meta),
	})
}

// packingViolation checks that a packing call covers every member of
// every bundle it touches. locked is the union of the requested
// shipments and all their bundle siblings.
func packingViolation(requested map[string]bool, locked []*Shipment) error {
	byBundle := map[string][]*Shipment{}
	for _, s := range locked {
		if s.BundleID != "" && s.Status != StatusCancelled {
			byBundle[s.BundleID] = append(byBundle[s.BundleID], s)
		}
	}
	for bundleID, members := range byBundle {
		touched := false
		var missing []string
		for _, m := range members {
			if requested[m.ID.String()] {
				touched = true
			} else {
				missing = append(missing, m.ProductID.String())
			}
		}
		if touched && len(missing) > 0 {
			return apperr.IncompleteBundle(bundleID, missing)
		}
	}
	return nil
}
