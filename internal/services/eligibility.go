// Package services provides business logic and orchestration on top of
// the storage layer.
//
// This file implements the strategy pattern for allowance dueness
// checking. Each schedule has its own checker that encapsulates the rule
// for deciding whether the next occurrence should be paid out.

package services

import (
	"fmt"

	"pennywise/internal/core"
)

// DuenessChecker decides whether a recurring allowance is due, given the
// date of its last occurrence and today's date.
type DuenessChecker interface {
	IsDue(lastGiven, today core.Date) bool
}

// DailyChecker pays out on every processor run. A run already happens at
// most once per calendar day, so no further guard is needed here.
type DailyChecker struct{}

func (DailyChecker) IsDue(_, _ core.Date) bool { return true }

// WeeklyChecker pays out once at least 7 whole days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastGiven, today core.Date) bool {
	return lastGiven.DaysSince(today) >= 7
}

// FortnightlyChecker pays out once at least 14 whole days have passed.
type FortnightlyChecker struct{}

func (FortnightlyChecker) IsDue(lastGiven, today core.Date) bool {
	return lastGiven.DaysSince(today) >= 14
}

// MonthlyChecker pays out on the first run in a new calendar month. A
// grant given on January 15th is due on February 1st; the elapsed-days
// count is irrelevant.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastGiven, today core.Date) bool {
	return lastGiven.Year() != today.Year() || lastGiven.Month() != today.Month()
}

// duenessStrategies maps schedules to their checkers.
var duenessStrategies = map[core.Schedule]DuenessChecker{
	core.Daily:       DailyChecker{},
	core.Weekly:      WeeklyChecker{},
	core.Fortnightly: FortnightlyChecker{},
	core.Monthly:     MonthlyChecker{},
}

// GetDuenessChecker returns the checker for a schedule, or an error for
// an unknown one.
func GetDuenessChecker(schedule core.Schedule) (DuenessChecker, error) {
	checker, ok := duenessStrategies[schedule]
	if !ok {
		return nil, fmt.Errorf("unknown schedule: %s", schedule)
	}
	return checker, nil
}
