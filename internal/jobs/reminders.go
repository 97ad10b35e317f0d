// Package jobs implements the periodic notification jobs: the daily
// spending reminder and the weekly child and parent summaries. Jobs are
// read-only; they aggregate current rows into rendered notifications and
// hand them to a notify.Publisher.
package jobs

import (
	"context"
	"fmt"
	"strings"

	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/notify"
	"pennywise/internal/storage"
)

// Runner executes the notification jobs. Per-recipient failures are
// logged and counted, never aborting a run; every job returns
// (sent, failed).
type Runner struct {
	repo      *storage.SQLiteRepository
	publisher notify.Publisher
	logger    *log.Logger
}

func NewRunner(repo *storage.SQLiteRepository, publisher notify.Publisher, logger *log.Logger) *Runner {
	return &Runner{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentJobs),
	}
}

// DailySpendingReminder nudges every active child who has not logged a
// spending dated today.
func (r *Runner) DailySpendingReminder(ctx context.Context, today core.Date) (sent, failed int, err error) {
	children, err := r.repo.ListActiveChildren(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list active children: %w", err)
	}

	for _, child := range children {
		if child.Email == "" {
			continue
		}
		n, err := r.repo.CountSpendingsOn(ctx, child.ID, today)
		if err != nil {
			r.logger.ErrorContext(ctx, "daily reminder: cannot count today's spendings",
				log.FieldChildID, child.ID,
				log.FieldError, err)
			failed++
			continue
		}
		if n > 0 {
			continue
		}

		msg := notify.Notification{
			Kind:      notify.KindDailyReminder,
			Recipient: child.Email,
			Subject:   "Don't forget to log your spending!",
			Body: fmt.Sprintf("Hi %s! You haven't logged any spending today. Your current balance is %s.",
				child.Name, child.Balance),
			ChildID: child.ID,
		}
		if err := r.publisher.Publish(ctx, msg); err != nil {
			r.logger.ErrorContext(ctx, "daily reminder: publish failed",
				log.FieldChildID, child.ID,
				log.FieldRecipient, child.Email,
				log.FieldError, err)
			failed++
			continue
		}
		sent++
	}

	r.logger.InfoContext(ctx, "daily spending reminders done",
		log.FieldSent, sent,
		log.FieldFailed, failed)
	return sent, failed, nil
}

// WeeklyChildSummaries sends every active child their trailing-7-day
// stats and goal progress.
func (r *Runner) WeeklyChildSummaries(ctx context.Context, today core.Date) (sent, failed int, err error) {
	children, err := r.repo.ListActiveChildren(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list active children: %w", err)
	}

	for _, child := range children {
		if child.Email == "" {
			continue
		}
		stats, goals, err := r.childWeek(ctx, child, today)
		if err != nil {
			r.logger.ErrorContext(ctx, "weekly child summary: aggregation failed",
				log.FieldChildID, child.ID,
				log.FieldError, err)
			failed++
			continue
		}

		msg := notify.Notification{
			Kind:      notify.KindWeeklyChildSummary,
			Recipient: child.Email,
			Subject:   "Your week in pocket money",
			Body:      renderChildSummary(child.Name, stats, goals),
			ChildID:   child.ID,
		}
		if err := r.publisher.Publish(ctx, msg); err != nil {
			r.logger.ErrorContext(ctx, "weekly child summary: publish failed",
				log.FieldChildID, child.ID,
				log.FieldError, err)
			failed++
			continue
		}
		sent++
	}

	r.logger.InfoContext(ctx, "weekly child summaries done",
		log.FieldSent, sent,
		log.FieldFailed, failed)
	return sent, failed, nil
}

// WeeklyParentSummaries rolls each linked child's week up into family
// totals and mails every active parent.
func (r *Runner) WeeklyParentSummaries(ctx context.Context, today core.Date) (sent, failed int, err error) {
	parents, err := r.repo.ListActiveParents(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list active parents: %w", err)
	}

	for _, parent := range parents {
		if parent.Email == "" {
			continue
		}
		summaries, family, err := r.FamilyWeek(ctx, parent.ID, today)
		if err != nil {
			r.logger.ErrorContext(ctx, "weekly parent summary: aggregation failed",
				log.FieldParentID, parent.ID,
				log.FieldError, err)
			failed++
			continue
		}
		if family.ChildrenCount == 0 {
			continue
		}

		msg := notify.Notification{
			Kind:      notify.KindWeeklyParentSummary,
			Recipient: parent.Email,
			Subject:   "Weekly family money summary",
			Body:      renderParentSummary(parent.Name, summaries, family),
		}
		if err := r.publisher.Publish(ctx, msg); err != nil {
			r.logger.ErrorContext(ctx, "weekly parent summary: publish failed",
				log.FieldParentID, parent.ID,
				log.FieldError, err)
			failed++
			continue
		}
		sent++
	}

	r.logger.InfoContext(ctx, "weekly parent summaries done",
		log.FieldSent, sent,
		log.FieldFailed, failed)
	return sent, failed, nil
}

// WeekStats aggregates a child's trailing seven days.
func (r *Runner) WeekStats(ctx context.Context, child core.Child, today core.Date) (core.WeekStats, error) {
	from := weekStart(today)
	total, count, err := r.repo.SumSpendingsBetween(ctx, child.ID, from, today)
	if err != nil {
		return core.WeekStats{}, err
	}
	stats := core.WeekStats{
		EntriesCount:   count,
		TotalSpent:     total,
		CurrentBalance: child.Balance,
	}
	if count > 0 {
		stats.AvgPerEntry = core.Money{Cents: total.Cents / int64(count)}
	}
	return stats, nil
}

// FamilyWeek builds the per-child summaries for a parent's linked
// children and their family roll-up.
func (r *Runner) FamilyWeek(ctx context.Context, parentID int64, today core.Date) ([]core.ChildWeekSummary, core.FamilySummary, error) {
	children, err := r.repo.ListChildrenOfParent(ctx, parentID)
	if err != nil {
		return nil, core.FamilySummary{}, err
	}
	from := weekStart(today)

	var summaries []core.ChildWeekSummary
	family := core.FamilySummary{ChildrenCount: len(children)}
	for _, child := range children {
		spent, count, err := r.repo.SumSpendingsBetween(ctx, child.ID, from, today)
		if err != nil {
			return nil, core.FamilySummary{}, err
		}
		allowances, _, err := r.repo.SumGrantsBetween(ctx, child.ID, from, today)
		if err != nil {
			return nil, core.FamilySummary{}, err
		}
		byCategory, err := r.repo.CategorySumsBetween(ctx, child.ID, from, today)
		if err != nil {
			return nil, core.FamilySummary{}, err
		}
		goals, err := r.goalViews(ctx, child)
		if err != nil {
			return nil, core.FamilySummary{}, err
		}

		summaries = append(summaries, core.ChildWeekSummary{
			ChildID:          child.ID,
			Name:             child.Name,
			Balance:          child.Balance,
			WeekSpent:        spent,
			TransactionCount: count,
			WeekAllowances:   allowances,
			ByCategory:       byCategory,
			Goals:            goals,
		})
		family.TotalBalance = family.TotalBalance.Add(child.Balance)
		family.TotalSpent = family.TotalSpent.Add(spent)
		family.TotalAllowances = family.TotalAllowances.Add(allowances)
	}
	return summaries, family, nil
}

func (r *Runner) childWeek(ctx context.Context, child core.Child, today core.Date) (core.WeekStats, []core.GoalProgressView, error) {
	stats, err := r.WeekStats(ctx, child, today)
	if err != nil {
		return core.WeekStats{}, nil, err
	}
	goals, err := r.goalViews(ctx, child)
	if err != nil {
		return core.WeekStats{}, nil, err
	}
	return stats, goals, nil
}

// goalViews derives display progress (clamped) for a child's active
// goals.
func (r *Runner) goalViews(ctx context.Context, child core.Child) ([]core.GoalProgressView, error) {
	goals, err := r.repo.ListGoals(ctx, child.ID, core.GoalActive)
	if err != nil {
		return nil, err
	}
	var views []core.GoalProgressView
	for _, g := range goals {
		progress := core.Progress(child.Balance, g)
		views = append(views, core.GoalProgressView{
			Title:     g.Title,
			Percent:   core.ClampPercent(progress.Percent),
			Remaining: progress.Remaining,
		})
	}
	return views, nil
}

// weekStart returns the first day of the trailing-7-day window ending
// today.
func weekStart(today core.Date) core.Date {
	return core.DateOf(today.AddDate(0, 0, -6))
}

func renderChildSummary(name string, stats core.WeekStats, goals []core.GoalProgressView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Here is your week:\n", name)
	fmt.Fprintf(&b, "- Purchases: %d\n", stats.EntriesCount)
	fmt.Fprintf(&b, "- Total spent: %s\n", stats.TotalSpent)
	fmt.Fprintf(&b, "- Average per purchase: %s\n", stats.AvgPerEntry)
	fmt.Fprintf(&b, "- Current balance: %s\n", stats.CurrentBalance)
	for _, g := range goals {
		fmt.Fprintf(&b, "Goal %q: %.0f%% there, %s to go\n", g.Title, g.Percent, g.Remaining)
	}
	return b.String()
}

func renderParentSummary(name string, summaries []core.ChildWeekSummary, family core.FamilySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Your family's week:\n", name)
	for _, s := range summaries {
		fmt.Fprintf(&b, "%s: spent %s over %d purchases, received %s, balance %s\n",
			s.Name, s.WeekSpent, s.TransactionCount, s.WeekAllowances, s.Balance)
		for _, c := range s.ByCategory {
			fmt.Fprintf(&b, "  - %s: %s\n", c.Name, c.Amount)
		}
		for _, g := range s.Goals {
			fmt.Fprintf(&b, "  Goal %q: %.0f%%\n", g.Title, g.Percent)
		}
	}
	fmt.Fprintf(&b, "Family totals: balance %s, spent %s, allowances %s across %d children\n",
		family.TotalBalance, family.TotalSpent, family.TotalAllowances, family.ChildrenCount)
	return b.String()
}
