package product

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusInbound, StatusInspection, true},
		{StatusInbound, StatusCancelled, true},
		{StatusInbound, StatusStorage, false},
		{StatusInspection, StatusInspection, true},
		{StatusInspection, StatusStorage, true},
		{StatusInspection, StatusCancelled, true},
		{StatusStorage, StatusListing, true},
		{StatusStorage, StatusCancelled, true},
		{StatusListing, StatusSold, true},
		{StatusListing, StatusCancelled, false},
		{StatusSold, StatusProcessing, true},
		{StatusSold, StatusCancelled, false},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusInbound, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusInbound, StatusInspection, StatusStorage, StatusListing,
		StatusSold, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		if !s.IsValid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Status("returned").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
}
