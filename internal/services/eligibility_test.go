package services

import (
	"testing"

	"pennywise/internal/core"
)

func TestDuenessCheckers(t *testing.T) {
	tests := []struct {
		name      string
		schedule  core.Schedule
		lastGiven core.Date
		today     core.Date
		want      bool
	}{
		{"daily is always due", core.Daily, core.NewDate(2024, 3, 10), core.NewDate(2024, 3, 10), true},
		{"weekly after six days", core.Weekly, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 7), false},
		{"weekly after seven days", core.Weekly, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 8), true},
		{"weekly after a month", core.Weekly, core.NewDate(2024, 2, 1), core.NewDate(2024, 3, 8), true},
		{"fortnightly after thirteen days", core.Fortnightly, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 14), false},
		{"fortnightly after fourteen days", core.Fortnightly, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 15), true},
		{"monthly within the same month", core.Monthly, core.NewDate(2024, 1, 15), core.NewDate(2024, 1, 31), false},
		{"monthly on the first of the next month", core.Monthly, core.NewDate(2024, 1, 15), core.NewDate(2024, 2, 1), true},
		{"monthly across a year boundary", core.Monthly, core.NewDate(2023, 12, 20), core.NewDate(2024, 1, 2), true},
		{"monthly same month next year", core.Monthly, core.NewDate(2023, 3, 10), core.NewDate(2024, 3, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.schedule)
			if err != nil {
				t.Fatalf("GetDuenessChecker(%s) error = %v", tt.schedule, err)
			}
			if got := checker.IsDue(tt.lastGiven, tt.today); got != tt.want {
				t.Errorf("IsDue(%s, %s) = %v, want %v",
					tt.lastGiven.Format("2006-01-02"), tt.today.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestGetDuenessCheckerUnknownSchedule(t *testing.T) {
	if _, err := GetDuenessChecker("yearly"); err == nil {
		t.Error("expected an error for an unsupported schedule")
	}
}
