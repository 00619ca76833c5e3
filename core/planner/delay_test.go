package planner

import "testing"

func TestShouldDelay(t *testing.T) {
	pol := DefaultDelayPolicy()

	cases := []struct {
		name           string
		priceNow       float64
		priceNowOK     bool
		bestFuture     float64
		bestFutureOK   bool
		minutesToStart float64
		deficit        float64
		want           bool
	}{
		{"expensive now with time", 0.30, true, 0.20, true, 120, 0.2, true},
		{"premium below margin", 0.22, true, 0.20, true, 120, 0.2, false},
		{"no deficit", 0.30, true, 0.10, true, 120, 0, false},
		{"negative deficit", 0.30, true, 0.10, true, 120, -0.1, false},
		{"too close to departure", 0.30, true, 0.10, true, 60, 0.2, false},
		{"missing current price", 0, false, 0.10, true, 120, 0.2, false},
		{"missing future price", 0.30, true, 0, false, 120, 0.2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ShouldDelay(tc.priceNow, tc.priceNowOK, tc.bestFuture, tc.bestFutureOK, tc.minutesToStart, tc.deficit, pol)
			if got != tc.want {
				t.Fatalf("ShouldDelay = %v, want %v", got, tc.want)
			}
		})
	}
}

// Deferral safety: with no lead time or no deficit the decision is always
// "charge now" no matter what the prices say.
func TestShouldDelaySafetyDominates(t *testing.T) {
	pol := DefaultDelayPolicy()
	for _, minutes := range []float64{-30, 0, 15, 60} {
		if ShouldDelay(10, true, 0.01, true, minutes, 0.5, pol) {
			t.Fatalf("deferred with only %v minutes of lead time", minutes)
		}
	}
	if ShouldDelay(10, true, 0.01, true, 600, 0, pol) {
		t.Fatal("deferred without a deficit")
	}
}
