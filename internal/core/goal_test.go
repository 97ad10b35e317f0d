package core

import "testing"

func TestProgress(t *testing.T) {
	tests := []struct {
		name          string
		balanceCents  int64
		goalCents     int64
		wantPercent   float64
		wantRemaining int64
	}{
		{
			name:          "halfway there",
			balanceCents:  5000,
			goalCents:     10000,
			wantPercent:   50.0,
			wantRemaining: 5000,
		},
		{
			name:          "past the goal - raw percent exceeds 100",
			balanceCents:  15000,
			goalCents:     10000,
			wantPercent:   150.0,
			wantRemaining: 0,
		},
		{
			name:          "exactly at goal",
			balanceCents:  10000,
			goalCents:     10000,
			wantPercent:   100.0,
			wantRemaining: 0,
		},
		{
			name:          "zero goal amount - progress is zero",
			balanceCents:  5000,
			goalCents:     0,
			wantPercent:   0,
			wantRemaining: 0,
		},
		{
			name:          "zero balance",
			balanceCents:  0,
			goalCents:     2500,
			wantPercent:   0,
			wantRemaining: 2500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := Goal{Title: "New bike", Amount: Money{Cents: tt.goalCents}}
			got := Progress(Money{Cents: tt.balanceCents}, goal)
			if got.Percent != tt.wantPercent {
				t.Errorf("Progress().Percent = %v, want %v", got.Percent, tt.wantPercent)
			}
			if got.Remaining.Cents != tt.wantRemaining {
				t.Errorf("Progress().Remaining = %v, want %v", got.Remaining.Cents, tt.wantRemaining)
			}
		})
	}
}

func TestClampPercent(t *testing.T) {
	if got := ClampPercent(150.0); got != 100.0 {
		t.Errorf("ClampPercent(150) = %v, want 100", got)
	}
	if got := ClampPercent(50.0); got != 50.0 {
		t.Errorf("ClampPercent(50) = %v, want 50", got)
	}
	if got := ClampPercent(100.0); got != 100.0 {
		t.Errorf("ClampPercent(100) = %v, want 100", got)
	}
}

func TestProgressIsGlobalBalanceBased(t *testing.T) {
	// One balance measured against several goals independently.
	balance := Money{Cents: 6000}
	goals := []Goal{
		{Title: "Headphones", Amount: Money{Cents: 4000}},
		{Title: "Skateboard", Amount: Money{Cents: 12000}},
	}

	first := Progress(balance, goals[0])
	second := Progress(balance, goals[1])

	if first.Percent != 150.0 {
		t.Errorf("first goal percent = %v, want 150", first.Percent)
	}
	if second.Percent != 50.0 {
		t.Errorf("second goal percent = %v, want 50", second.Percent)
	}
	if second.Remaining.Cents != 6000 {
		t.Errorf("second goal remaining = %v, want 6000", second.Remaining.Cents)
	}
}
