package domain

import (
	"testing"
	"time"
)

func TestComputeCost(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	got := ComputeCost(start, start.Add(90*time.Minute), 20)
	if got != 30.0 {
		t.Fatalf("expected cost 30.0 for 90 minutes at 20/hr, got %v", got)
	}

	got = ComputeCost(start, start.Add(50*time.Minute), 10)
	if got != 8.33 {
		t.Fatalf("expected cost 8.33 for 50 minutes at 10/hr, got %v", got)
	}

	// Half rounds away from zero: 30 minutes at 0.25/hr is exactly 0.125.
	got = ComputeCost(start, start.Add(30*time.Minute), 0.25)
	if got != 0.13 {
		t.Fatalf("expected cost 0.13, got %v", got)
	}

	got = ComputeCost(start, start, 15)
	if got != 0 {
		t.Fatalf("expected zero cost for zero duration, got %v", got)
	}
}

func TestComputeCostClampsNegativeDuration(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	got := ComputeCost(start, start.Add(-time.Hour), 20)
	if got != 0 {
		t.Fatalf("expected zero cost when leaving before parking, got %v", got)
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		0.125:  0.13,
		-0.125: -0.13,
		2.674:  2.67,
		30:     30,
		0:      0,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Fatalf("Round2(%v): expected %v, got %v", in, want, got)
		}
	}
}
