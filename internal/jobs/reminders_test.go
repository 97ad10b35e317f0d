package jobs

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/notify"
	"pennywise/internal/storage"
)

type recordingPublisher struct {
	sent []notify.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n notify.Notification) error {
	p.sent = append(p.sent, n)
	return nil
}

type jobEnv struct {
	repo      *storage.SQLiteRepository
	publisher *recordingPublisher
	runner    *Runner
}

func newJobEnv(t *testing.T) *jobEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "pennywise.db"))
	if err != nil {
		t.Fatalf("create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	publisher := &recordingPublisher{}
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	return &jobEnv{
		repo:      repo,
		publisher: publisher,
		runner:    NewRunner(repo, publisher, logger),
	}
}

type seeded struct {
	parentID int64
	childID  int64
}

func (e *jobEnv) seedFamily(t *testing.T, name string, balanceCents int64) seeded {
	t.Helper()
	ctx := context.Background()

	parentUser, err := e.repo.CreateUser(ctx, name+" parent", name+".parent@example.com")
	if err != nil {
		t.Fatalf("create parent user: %v", err)
	}
	parentID, err := e.repo.CreateParent(ctx, parentUser)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	childUser, err := e.repo.CreateUser(ctx, name+" child", name+".child@example.com")
	if err != nil {
		t.Fatalf("create child user: %v", err)
	}
	childID, err := e.repo.CreateChild(ctx, childUser, 0, core.Money{Cents: balanceCents})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if err := e.repo.LinkParentChild(ctx, parentID, childID, true); err != nil {
		t.Fatalf("link: %v", err)
	}
	return seeded{parentID: parentID, childID: childID}
}

func (e *jobEnv) spend(t *testing.T, childID int64, cents int64, date core.Date) {
	t.Helper()
	if _, err := e.repo.RecordSpending(context.Background(), core.Spending{
		ChildID:   childID,
		Category:  "Snacks",
		Amount:    core.Money{Cents: cents},
		SpendDate: date,
	}); err != nil {
		t.Fatalf("record spending: %v", err)
	}
}

func TestDailySpendingReminder(t *testing.T) {
	env := newJobEnv(t)
	ctx := context.Background()
	today := core.NewDate(2024, 4, 10)

	quiet := env.seedFamily(t, "quiet", 5000)
	active := env.seedFamily(t, "active", 5000)
	env.spend(t, active.childID, 1000, today)

	sent, failed, err := env.runner.DailySpendingReminder(ctx, today)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sent != 1 || failed != 0 {
		t.Fatalf("sent/failed = %d/%d, want 1/0", sent, failed)
	}

	msg := env.publisher.sent[0]
	if msg.Kind != notify.KindDailyReminder {
		t.Errorf("kind = %s, want daily reminder", msg.Kind)
	}
	if msg.ChildID != quiet.childID {
		t.Errorf("reminded child = %d, want the one without spendings (%d)", msg.ChildID, quiet.childID)
	}
	if msg.Recipient != "quiet.child@example.com" {
		t.Errorf("recipient = %s", msg.Recipient)
	}
}

func TestDailySpendingReminderSkipsDeactivated(t *testing.T) {
	env := newJobEnv(t)
	ctx := context.Background()
	today := core.NewDate(2024, 4, 10)

	gone := env.seedFamily(t, "gone", 5000)
	child, err := env.repo.GetChild(ctx, gone.childID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	if err := env.repo.DeactivateUser(ctx, child.UserID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	sent, failed, err := env.runner.DailySpendingReminder(ctx, today)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sent != 0 || failed != 0 {
		t.Errorf("sent/failed = %d/%d, want 0/0 for a deactivated child", sent, failed)
	}
	if len(env.publisher.sent) != 0 {
		t.Errorf("published %d notifications, want none", len(env.publisher.sent))
	}
}

func TestWeekStats(t *testing.T) {
	env := newJobEnv(t)
	ctx := context.Background()
	today := core.NewDate(2024, 4, 14)

	// 100.00 granted, 20.00 and 10.00 spent this week: balance 70.00.
	fam := env.seedFamily(t, "stats", 10000)
	env.spend(t, fam.childID, 2000, core.NewDate(2024, 4, 12))
	env.spend(t, fam.childID, 1000, core.NewDate(2024, 4, 13))
	// Outside the trailing seven days; must not count in the week totals,
	// though it still lowers the balance.
	env.spend(t, fam.childID, 999, core.NewDate(2024, 4, 1))

	child, err := env.repo.GetChild(ctx, fam.childID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	stats, err := env.runner.WeekStats(ctx, child, today)
	if err != nil {
		t.Fatalf("week stats: %v", err)
	}

	if stats.EntriesCount != 2 {
		t.Errorf("entries = %d, want 2", stats.EntriesCount)
	}
	if stats.TotalSpent.Cents != 3000 {
		t.Errorf("total spent = %d, want 3000", stats.TotalSpent.Cents)
	}
	if stats.CurrentBalance.Cents != 10000-2000-1000-999 {
		t.Errorf("balance = %d, want %d", stats.CurrentBalance.Cents, 10000-2000-1000-999)
	}
	if stats.AvgPerEntry.Cents != 1500 {
		t.Errorf("average = %d, want 1500", stats.AvgPerEntry.Cents)
	}
}

func TestWeekStatsBalanceScenario(t *testing.T) {
	// The canonical scenario: 2 entries totaling 30.00 with balance 70.00
	// yields {2, 30.00, 70.00, 15.00}.
	env := newJobEnv(t)
	ctx := context.Background()
	today := core.NewDate(2024, 4, 14)

	fam := env.seedFamily(t, "canonical", 10000)
	env.spend(t, fam.childID, 2000, core.NewDate(2024, 4, 12))
	env.spend(t, fam.childID, 1000, core.NewDate(2024, 4, 13))

	child, err := env.repo.GetChild(ctx, fam.childID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	stats, err := env.runner.WeekStats(ctx, child, today)
	if err != nil {
		t.Fatalf("week stats: %v", err)
	}

	want := core.WeekStats{
		EntriesCount:   2,
		TotalSpent:     core.Money{Cents: 3000},
		CurrentBalance: core.Money{Cents: 7000},
		AvgPerEntry:    core.Money{Cents: 1500},
	}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestFamilyWeek(t *testing.T) {
	env := newJobEnv(t)
	ctx := context.Background()
	today := core.NewDate(2024, 4, 14)

	// One parent, two children: balances end at 40.00 and 60.00 after
	// week spends of 10.00 and 5.00.
	fam := env.seedFamily(t, "fam", 5000)
	siblingUser, err := env.repo.CreateUser(ctx, "fam sibling", "fam.sibling@example.com")
	if err != nil {
		t.Fatalf("create sibling user: %v", err)
	}
	siblingID, err := env.repo.CreateChild(ctx, siblingUser, 0, core.Money{Cents: 6500})
	if err != nil {
		t.Fatalf("create sibling: %v", err)
	}
	if err := env.repo.LinkParentChild(ctx, fam.parentID, siblingID, false); err != nil {
		t.Fatalf("link sibling: %v", err)
	}

	env.spend(t, fam.childID, 1000, core.NewDate(2024, 4, 12))
	env.spend(t, siblingID, 500, core.NewDate(2024, 4, 13))

	summaries, family, err := env.runner.FamilyWeek(ctx, fam.parentID, today)
	if err != nil {
		t.Fatalf("family week: %v", err)
	}

	if family.ChildrenCount != 2 {
		t.Fatalf("children count = %d, want 2", family.ChildrenCount)
	}
	if family.TotalBalance.Cents != 10000 {
		t.Errorf("total balance = %d, want 10000", family.TotalBalance.Cents)
	}
	if family.TotalSpent.Cents != 1500 {
		t.Errorf("total spent = %d, want 1500", family.TotalSpent.Cents)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
	if summaries[0].WeekSpent.Cents != 1000 || summaries[0].TransactionCount != 1 {
		t.Errorf("first child week = %+v, want 1000 over 1 purchase", summaries[0])
	}
}

func TestWeeklyParentSummaries(t *testing.T) {
	env := newJobEnv(t)
	ctx := context.Background()
	today := core.NewDate(2024, 4, 14)

	fam := env.seedFamily(t, "weekly", 4000)
	env.spend(t, fam.childID, 500, core.NewDate(2024, 4, 13))

	// A parent with no linked children gets no mail.
	loneUser, err := env.repo.CreateUser(ctx, "lone parent", "lone.parent@example.com")
	if err != nil {
		t.Fatalf("create lone user: %v", err)
	}
	if _, err := env.repo.CreateParent(ctx, loneUser); err != nil {
		t.Fatalf("create lone parent: %v", err)
	}

	sent, failed, err := env.runner.WeeklyParentSummaries(ctx, today)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sent != 1 || failed != 0 {
		t.Fatalf("sent/failed = %d/%d, want 1/0", sent, failed)
	}

	msg := env.publisher.sent[0]
	if msg.Kind != notify.KindWeeklyParentSummary {
		t.Errorf("kind = %s", msg.Kind)
	}
	if msg.Recipient != "weekly.parent@example.com" {
		t.Errorf("recipient = %s", msg.Recipient)
	}
}

func TestWeeklyChildSummaries(t *testing.T) {
	env := newJobEnv(t)
	ctx := context.Background()
	today := core.NewDate(2024, 4, 14)

	fam := env.seedFamily(t, "childsum", 7000)
	env.spend(t, fam.childID, 1500, core.NewDate(2024, 4, 13))
	if _, err := env.repo.CreateGoal(ctx, core.Goal{
		ChildID: fam.childID, Title: "Telescope", Amount: core.Money{Cents: 11000},
	}); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	sent, failed, err := env.runner.WeeklyChildSummaries(ctx, today)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sent != 1 || failed != 0 {
		t.Fatalf("sent/failed = %d/%d, want 1/0", sent, failed)
	}
	if env.publisher.sent[0].Kind != notify.KindWeeklyChildSummary {
		t.Errorf("kind = %s", env.publisher.sent[0].Kind)
	}
}
