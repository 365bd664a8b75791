package shipping

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
)

func newShipment(status Status) *Shipment {
	return &Shipment{ID: uuid.New(), OrderID: uuid.New(), ProductID: uuid.New(), Status: status, Priority: "normal"}
}

func TestAdvanceFullLifecycle(t *testing.T) {
	s := newShipment(StatusPending)
	now := time.Now()

	for _, next := range []Status{StatusPicked, StatusPacked} {
		if err := s.advance(next, now); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	s.Carrier = "yamato"
	s.TrackingNumber = "YAMATO-20260829120000-0001"
	for _, next := range []Status{StatusReadyForPickup, StatusShipped, StatusDelivered} {
		if err := s.advance(next, now); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}

	if s.PickedAt == nil || s.PackedAt == nil || s.ShippedAt == nil || s.DeliveredAt == nil {
		t.Error("every stage timestamp should be set after the full lifecycle")
	}
}

func TestAdvanceRejectsSkippedStage(t *testing.T) {
	s := newShipment(StatusPending)
	err := s.advance(StatusPacked, time.Now())
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
}

func TestAdvanceTimestampsSetOnce(t *testing.T) {
	s := newShipment(StatusPending)
	first := time.Now()
	if err := s.advance(StatusPicked, first); err != nil {
		t.Fatal(err)
	}

	// re-pick later: status write is fine, timestamp must not move
	s.Status = StatusPending
	later := first.Add(time.Hour)
	if err := s.advance(StatusPicked, later); err != nil {
		t.Fatal(err)
	}
	if !s.PickedAt.Equal(first) {
		t.Errorf("PickedAt moved from %v to %v", first, s.PickedAt)
	}
}

func TestAdvanceShippedRequiresCarrier(t *testing.T) {
	s := newShipment(StatusReadyForPickup)
	err := s.advance(StatusShipped, time.Now())
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected InvalidState without carrier, got %v", err)
	}
}

func TestAdvanceMembersRejectsCancelledTarget(t *testing.T) {
	target := newShipment(StatusCancelled)
	sibling := newShipment(StatusPicked)
	picked := time.Now()
	sibling.PickedAt = &picked

	err := advanceMembers([]*Shipment{target, sibling}, target.ID.String(), StatusPacked, "", "", time.Now())
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected InvalidTransition advancing a cancelled shipment, got %v", err)
	}
}

func TestAdvanceMembersSkipsCancelledSibling(t *testing.T) {
	now := time.Now()
	target := newShipment(StatusPicked)
	target.PickedAt = &now
	cancelled := newShipment(StatusCancelled)

	if err := advanceMembers([]*Shipment{target, cancelled}, target.ID.String(), StatusPacked, "", "", now); err != nil {
		t.Fatalf("advance with a cancelled sibling: %v", err)
	}
	if target.Status != StatusPacked {
		t.Errorf("target status = %s, want %s", target.Status, StatusPacked)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("cancelled sibling moved to %s", cancelled.Status)
	}
}

func TestAdvanceMembersStampsCarrierOnAll(t *testing.T) {
	now := time.Now()
	a := newShipment(StatusPacked)
	a.PickedAt, a.PackedAt = &now, &now
	b := newShipment(StatusPacked)
	b.PickedAt, b.PackedAt = &now, &now

	if err := advanceMembers([]*Shipment{a, b}, a.ID.String(), StatusReadyForPickup, "sagawa", "SAGAWA-20260829120000-0042", now); err != nil {
		t.Fatal(err)
	}
	for _, s := range []*Shipment{a, b} {
		if s.Carrier != "sagawa" || s.TrackingNumber == "" {
			t.Errorf("member missing carrier assignment: %+v", s)
		}
	}
}

func TestAdvanceCancelBeforeShipOnly(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusPicked, StatusPacked, StatusReadyForPickup} {
		s := newShipment(status)
		if err := s.advance(StatusCancelled, time.Now()); err != nil {
			t.Errorf("cancel from %s: %v", status, err)
		}
	}

	s := newShipment(StatusShipped)
	err := s.advance(StatusCancelled, time.Now())
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected InvalidTransition cancelling a shipped parcel, got %v", err)
	}
}
