package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily       Schedule = "daily"
	Weekly      Schedule = "weekly"
	Fortnightly Schedule = "fortnightly"
	Monthly     Schedule = "monthly"
)

const (
	GoalActive          GoalStatus = "active"
	GoalCompleted       GoalStatus = "completed"
	GoalCancelled       GoalStatus = "cancelled"
	GoalWaitingApproval GoalStatus = "waiting for approval"
)

const (
	ChallengeStarted   ChallengeStatus = "started"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeAbandoned ChallengeStatus = "abandoned"
)

// Ledger log sources and destinations.
const (
	SourceAllowance          = "Allowance"
	SourceRecurringAllowance = "Recurring Allowance"
	DestGeneralBalance       = "General Balance"
)

type (
	Schedule        string
	GoalStatus      string
	ChallengeStatus string

	Date struct {
		time.Time
	}

	// Child holds the single spendable-funds balance. Name and Email are
	// denormalized from the linked user account on reads.
	Child struct {
		ID      int64
		UserID  int64
		ClassID int64
		Name    string
		Email   string
		Balance Money
	}

	// Grant is one allowance credit event (a pocket_money row). A recurring
	// grant represents the next pending occurrence: processing flips it to
	// non-recurring and inserts a fresh recurring successor.
	Grant struct {
		ID        int64
		ChildID   int64
		ParentID  int64
		Amount    Money
		DateGiven Date
		Recurring bool
		Schedule  Schedule // empty for one-off grants
		StoredIn  string   // optional place name, e.g. "Piggy Bank"
	}

	// Place is a named storage bucket. Place sums are informational and are
	// not reconciled against the child's total balance.
	Place struct {
		ID      int64
		ChildID int64
		Name    string
		Stored  Money
	}

	// LedgerEntry is an immutable audit row appended whenever the balance
	// changes. Entries are never mutated or deleted.
	LedgerEntry struct {
		ID          int64
		ChildID     int64
		Amount      Money
		Date        Date
		Source      string
		Destination string
	}

	Goal struct {
		ID       int64
		ChildID  int64
		Title    string
		Amount   Money
		Deadline Date // optional
		Status   GoalStatus
	}

	Spending struct {
		ID          int64
		ChildID     int64
		Category    string
		Amount      Money
		SpendDate   Date
		Description string
	}

	Challenge struct {
		ID          int64
		Title       string
		Description string
		Reward      string
		CreatedOn   time.Time
		EndsOn      time.Time
	}

	ChallengeProgress struct {
		ID          int64
		ChildID     int64
		ChallengeID int64
		Status      ChallengeStatus
	}

	// Note is a free-text encouragement message from a parent or teacher to
	// a child. Append-only.
	Note struct {
		ID       int64
		SenderID int64
		ChildID  int64
		Message  string
		SentAt   time.Time
	}
)

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.UTC().Year(), int(t.UTC().Month()), t.UTC().Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// DaysSince returns the number of whole calendar days from d to today.
func (d Date) DaysSince(today Date) int {
	return int(today.Sub(d.Time).Hours() / 24)
}

func (s Schedule) Valid() bool {
	switch s {
	case Daily, Weekly, Fortnightly, Monthly:
		return true
	}
	return false
}

func (g Grant) Validate() error {
	if err := g.Amount.Validate(); err != nil {
		return err
	}
	if err := g.DateGiven.Validate(); err != nil {
		return err
	}
	if g.Recurring && !g.Schedule.Valid() {
		return ErrInvalidSchedule
	}
	if g.Schedule != "" && !g.Schedule.Valid() {
		return ErrInvalidSchedule
	}
	return nil
}

func (s Spending) Validate() error {
	if strings.TrimSpace(s.Category) == "" {
		return ErrEmptyCategory
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if err := s.SpendDate.Validate(); err != nil {
		return err
	}
	if len(s.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if len(g.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := g.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

func (n Note) Validate() error {
	if strings.TrimSpace(n.Message) == "" {
		return ErrEmptyMessage
	}
	return nil
}
