package core

// CategoryAmount is an amount aggregated by spending category.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// WeekStats summarizes a child's spending over the trailing seven days.
type WeekStats struct {
	EntriesCount   int
	TotalSpent     Money
	CurrentBalance Money
	AvgPerEntry    Money
}

// GoalProgressView pairs a goal title with its derived progress, shaped
// for reminder and summary payloads.
type GoalProgressView struct {
	Title     string
	Percent   float64
	Remaining Money
}

// ChildWeekSummary is one child's slice of the weekly parent summary.
type ChildWeekSummary struct {
	ChildID          int64
	Name             string
	Balance          Money
	WeekSpent        Money
	TransactionCount int
	WeekAllowances   Money
	ByCategory       []CategoryAmount
	Goals            []GoalProgressView
}

// FamilySummary rolls the per-child weekly figures up into family totals.
type FamilySummary struct {
	TotalBalance    Money
	TotalSpent      Money
	TotalAllowances Money
	ChildrenCount   int
}

// ChildBalanceLine is one row of the parent summary report.
type ChildBalanceLine struct {
	ChildID         int64
	Name            string
	Balance         Money
	TotalSpent      Money
	TotalAllowances Money
}

// ParentSummaryReport is the all-time summary across a parent's linked
// children.
type ParentSummaryReport struct {
	Children        []ChildBalanceLine
	ChildrenCount   int
	TotalBalance    Money
	TotalAllowances Money
	AverageBalance  Money
}

// GoalReportLine is a goal row inside a financial report.
type GoalReportLine struct {
	Title   string
	Target  Money
	Percent float64
	Status  GoalStatus
}

// FinancialReport is the per-child report over an arbitrary period.
type FinancialReport struct {
	ChildID          int64
	ChildName        string
	PeriodStart      Date
	PeriodEnd        Date
	CurrentBalance   Money
	TotalSpent       Money
	TotalReceived    Money
	NetChange        Money
	ByCategory       []CategoryAmount
	Goals            []GoalReportLine
	TransactionCount int
	AllowanceCount   int
}

// ChallengeCompletion is the completion-rate view for one challenge.
type ChallengeCompletion struct {
	ChallengeID int64
	Title       string
	Started     int
	Completed   int
	Rate        float64 // completed / started, 0 when never started
}

// MoneyOverview is the child dashboard view: balance, places, recent
// ledger entries.
type MoneyOverview struct {
	ChildID      int64
	TotalBalance Money
	Places       []Place
	RecentLogs   []LedgerEntry
}
