package core

// GoalProgress is the derived view of a goal against the child's whole
// balance. Progress is never stored; it is recomputed from the current
// balance at every read.
type GoalProgress struct {
	// Percent is the raw balance/amount percentage. It exceeds 100 once
	// the balance passes the goal amount; use ClampPercent for display.
	Percent   float64
	Remaining Money
}

// Progress derives percent-complete and remaining amount for a goal.
// The calculation is intentionally global-balance based: a child with one
// balance and several goals shows full balance-based progress against each
// goal independently.
func Progress(balance Money, goal Goal) GoalProgress {
	p := GoalProgress{}
	if goal.Amount.Cents > 0 {
		p.Percent = float64(balance.Cents) / float64(goal.Amount.Cents) * 100
	}
	remaining := goal.Amount.Cents - balance.Cents
	if remaining < 0 {
		remaining = 0
	}
	p.Remaining = Money{Cents: remaining}
	return p
}

// ClampPercent caps a raw progress percentage at 100 for display. Report
// and notification payloads use the clamped value; achievement detection
// reads the raw one.
func ClampPercent(p float64) float64 {
	if p > 100 {
		return 100
	}
	return p
}
