package numeric

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	cases := []struct {
		in     float64
		places int
		want   float64
	}{
		{0.625, 2, 0.62},
		{0.588235, 2, 0.59},
		{1.0, 2, 1.0},
		{-0.125, 2, -0.12},
		{0.142, 2, 0.14},
		{125.0, 2, 125.0},
		{2.5, 0, 2},
		{0.1 + 0.2, 2, 0.3},
	}
	for _, c := range cases {
		if got := Round(c.in, c.places); got != c.want {
			t.Errorf("Round(%v, %d) = %v, want %v", c.in, c.places, got, c.want)
		}
	}
}

func TestRoundNonFinite(t *testing.T) {
	if !math.IsInf(Round(math.Inf(1), 2), 1) {
		t.Error("expected +Inf to pass through")
	}
	if !math.IsNaN(Round(math.NaN(), 2)) {
		t.Error("expected NaN to pass through")
	}
}

func TestOrZero(t *testing.T) {
	if OrZero(math.Inf(-1)) != 0 {
		t.Error("expected -Inf -> 0")
	}
	if OrZero(math.NaN()) != 0 {
		t.Error("expected NaN -> 0")
	}
	if OrZero(1.5) != 1.5 {
		t.Error("expected finite values unchanged")
	}
}
