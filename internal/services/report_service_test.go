package services

import (
	"context"
	"errors"
	"testing"

	"pennywise/internal/core"
)

func TestParentSummary(t *testing.T) {
	env := newTestEnv(t)
	reports := NewReportService(env.repo, env.policy, env.logger)
	ledger := NewLedgerService(env.repo, env.policy, env.publisher, env.logger)
	ctx := context.Background()

	fam := env.seedFamily(t, "summary", 0)

	// Second child under the same parent.
	siblingUser, err := env.repo.CreateUser(ctx, "summary sibling", "summary.sibling@example.com")
	if err != nil {
		t.Fatalf("create sibling user: %v", err)
	}
	siblingID, err := env.repo.CreateChild(ctx, siblingUser, 0, core.Money{})
	if err != nil {
		t.Fatalf("create sibling: %v", err)
	}
	if err := env.repo.LinkParentChild(ctx, fam.parentID, siblingID, false); err != nil {
		t.Fatalf("link sibling: %v", err)
	}

	// First child: 50.00 in, 10.00 out. Sibling: 60.00 in, nothing out.
	if _, err := ledger.GrantAllowance(ctx, fam.parentActor, GrantRequest{
		ChildID: fam.childID, Amount: core.Money{Cents: 5000}, DateGiven: core.NewDate(2024, 6, 1),
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := ledger.GrantAllowance(ctx, fam.parentActor, GrantRequest{
		ChildID: siblingID, Amount: core.Money{Cents: 6000}, DateGiven: core.NewDate(2024, 6, 1),
	}); err != nil {
		t.Fatalf("grant sibling: %v", err)
	}
	if _, err := ledger.RecordSpending(ctx, fam.childActor, core.Spending{
		ChildID: fam.childID, Category: "Snacks", Amount: core.Money{Cents: 1000}, SpendDate: core.NewDate(2024, 6, 2),
	}); err != nil {
		t.Fatalf("spend: %v", err)
	}

	report, err := reports.ParentSummary(ctx, fam.parentActor, fam.parentID)
	if err != nil {
		t.Fatalf("parent summary: %v", err)
	}
	if report.ChildrenCount != 2 {
		t.Fatalf("children count = %d, want 2", report.ChildrenCount)
	}
	if report.TotalBalance.Cents != 10000 {
		t.Errorf("total balance = %d, want 10000", report.TotalBalance.Cents)
	}
	if report.TotalAllowances.Cents != 11000 {
		t.Errorf("total allowances = %d, want 11000", report.TotalAllowances.Cents)
	}
	if report.AverageBalance.Cents != 5000 {
		t.Errorf("average balance = %d, want 5000", report.AverageBalance.Cents)
	}

	for _, line := range report.Children {
		if line.ChildID == fam.childID {
			if line.Balance.Cents != 4000 || line.TotalSpent.Cents != 1000 || line.TotalAllowances.Cents != 5000 {
				t.Errorf("first child line = %+v, want balance 4000, spent 1000, allowances 5000", line)
			}
		}
	}

	t.Run("another parent cannot read it", func(t *testing.T) {
		other := env.seedFamily(t, "intruder", 0)
		_, err := reports.ParentSummary(ctx, other.parentActor, fam.parentID)
		if !errors.Is(err, core.ErrNotAuthorized) {
			t.Errorf("error = %v, want ErrNotAuthorized", err)
		}
	})

	t.Run("children cannot read it", func(t *testing.T) {
		_, err := reports.ParentSummary(ctx, fam.childActor, fam.parentID)
		if !errors.Is(err, core.ErrNotAuthorized) {
			t.Errorf("error = %v, want ErrNotAuthorized", err)
		}
	})
}

func TestFinancialReport(t *testing.T) {
	env := newTestEnv(t)
	reports := NewReportService(env.repo, env.policy, env.logger)
	ledger := NewLedgerService(env.repo, env.policy, env.publisher, env.logger)
	goals := NewGoalService(env.repo, env.policy, env.logger)
	ctx := context.Background()
	fam := env.seedFamily(t, "finreport", 0)

	if _, err := ledger.GrantAllowance(ctx, fam.parentActor, GrantRequest{
		ChildID: fam.childID, Amount: core.Money{Cents: 8000}, DateGiven: core.NewDate(2024, 7, 1),
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	for _, s := range []struct {
		category string
		cents    int64
	}{{"Snacks", 1500}, {"Snacks", 500}, {"Books", 1000}} {
		if _, err := ledger.RecordSpending(ctx, fam.childActor, core.Spending{
			ChildID: fam.childID, Category: s.category, Amount: core.Money{Cents: s.cents}, SpendDate: core.NewDate(2024, 7, 5),
		}); err != nil {
			t.Fatalf("spend: %v", err)
		}
	}
	// Goal of 40.00 against a balance of 50.00: display clamps at 100.
	if _, err := goals.CreateGoal(ctx, fam.childActor, core.Goal{
		ChildID: fam.childID, Title: "New skateboard", Amount: core.Money{Cents: 4000},
	}); err != nil {
		t.Fatalf("goal: %v", err)
	}

	report, err := reports.FinancialReport(ctx, fam.parentActor, fam.childID,
		core.NewDate(2024, 7, 1), core.NewDate(2024, 7, 31))
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	if report.TotalReceived.Cents != 8000 || report.AllowanceCount != 1 {
		t.Errorf("received = %d/%d grants, want 8000/1", report.TotalReceived.Cents, report.AllowanceCount)
	}
	if report.TotalSpent.Cents != 3000 || report.TransactionCount != 3 {
		t.Errorf("spent = %d/%d entries, want 3000/3", report.TotalSpent.Cents, report.TransactionCount)
	}
	if report.NetChange.Cents != 5000 {
		t.Errorf("net change = %d, want 5000", report.NetChange.Cents)
	}
	if report.CurrentBalance.Cents != 5000 {
		t.Errorf("balance = %d, want 5000", report.CurrentBalance.Cents)
	}
	if len(report.ByCategory) != 2 || report.ByCategory[0].Name != "Snacks" || report.ByCategory[0].Amount.Cents != 2000 {
		t.Errorf("categories = %+v, want Snacks 2000 first", report.ByCategory)
	}
	if len(report.Goals) != 1 {
		t.Fatalf("goal lines = %d, want 1", len(report.Goals))
	}
	if report.Goals[0].Percent != 100 {
		t.Errorf("goal percent = %v, want clamped 100", report.Goals[0].Percent)
	}
}

func TestGoalProgressViews(t *testing.T) {
	env := newTestEnv(t)
	goals := NewGoalService(env.repo, env.policy, env.logger)
	ctx := context.Background()
	fam := env.seedFamily(t, "goalviews", 5000)

	if _, err := goals.CreateGoal(ctx, fam.childActor, core.Goal{
		ChildID: fam.childID, Title: "Bicycle", Amount: core.Money{Cents: 10000},
	}); err != nil {
		t.Fatalf("goal: %v", err)
	}
	if _, err := goals.CreateGoal(ctx, fam.childActor, core.Goal{
		ChildID: fam.childID, Title: "Comic book", Amount: core.Money{Cents: 2500},
	}); err != nil {
		t.Fatalf("goal: %v", err)
	}

	views, err := goals.ListGoals(ctx, fam.childActor, fam.childID, core.GoalActive)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("views = %d, want 2", len(views))
	}

	for _, v := range views {
		switch v.Goal.Title {
		case "Bicycle":
			// 50.00 against 100.00: half way, 50.00 remaining.
			if v.Progress.Percent != 50 || v.Progress.Remaining.Cents != 5000 {
				t.Errorf("Bicycle progress = %+v, want 50%% / 5000 remaining", v.Progress)
			}
		case "Comic book":
			// 50.00 against 25.00: 200 raw, 100 displayed, nothing remaining.
			if v.Progress.Percent != 200 || v.DisplayPercent != 100 || v.Progress.Remaining.Cents != 0 {
				t.Errorf("Comic book progress = %+v display %v, want raw 200, display 100", v.Progress, v.DisplayPercent)
			}
		}
	}
}

func TestChallengeCompletionReport(t *testing.T) {
	env := newTestEnv(t)
	reports := NewReportService(env.repo, env.policy, env.logger)
	family := NewFamilyService(env.repo, env.policy, env.publisher, env.logger)
	ctx := context.Background()

	fam1 := env.seedFamily(t, "chal1", 0)
	fam2 := env.seedFamily(t, "chal2", 0)
	schoolActor := core.Actor{UserID: 999, Roles: []string{core.RoleSchool}}

	challenge, err := family.CreateChallenge(ctx, schoolActor, core.Challenge{Title: "No-spend week"})
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}

	if err := family.SetChallengeStatus(ctx, fam1.childActor, fam1.childID, challenge.ID, core.ChallengeStarted); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := family.SetChallengeStatus(ctx, fam2.childActor, fam2.childID, challenge.ID, core.ChallengeStarted); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := family.SetChallengeStatus(ctx, fam1.childActor, fam1.childID, challenge.ID, core.ChallengeCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	rates, err := reports.ChallengeCompletionRates(ctx, fam1.parentActor)
	if err != nil {
		t.Fatalf("rates: %v", err)
	}
	if len(rates) != 1 {
		t.Fatalf("rates = %d, want 1", len(rates))
	}
	if rates[0].Started != 2 || rates[0].Completed != 1 || rates[0].Rate != 0.5 {
		t.Errorf("rate = %+v, want 2 started, 1 completed, 0.5", rates[0])
	}
}

func TestCategoryBreakdownAccess(t *testing.T) {
	env := newTestEnv(t)
	reports := NewReportService(env.repo, env.policy, env.logger)
	ctx := context.Background()
	fam := env.seedFamily(t, "catacc", 0)
	stranger := env.seedFamily(t, "stranger", 0)

	_, err := reports.CategoryBreakdown(ctx, stranger.childActor, fam.childID,
		core.NewDate(2024, 7, 1), core.NewDate(2024, 7, 31))
	if !errors.Is(err, core.ErrNotAuthorized) {
		t.Errorf("error = %v, want ErrNotAuthorized", err)
	}

	if _, err := reports.CategoryBreakdown(ctx, fam.childActor, fam.childID,
		core.NewDate(2024, 7, 1), core.NewDate(2024, 7, 31)); err != nil {
		t.Errorf("own breakdown: %v", err)
	}
}
