package order

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusProcessing, false},
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestHashDestinationNormalizes(t *testing.T) {
	a := HashDestination("1-2-3 Shibuya, Tokyo")
	b := HashDestination("  1-2-3   shibuya, TOKYO ")
	if a != b {
		t.Error("equivalent addresses should hash identically")
	}

	c := HashDestination("4-5-6 Shinjuku, Tokyo")
	if a == c {
		t.Error("different addresses should hash differently")
	}
}
