package services

import (
	"context"

	"pennywise/internal/access"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/storage"
)

// ReportService derives read-only reports from current rows. Nothing here
// is stored; every figure is recomputed on request.
type ReportService struct {
	repo   *storage.SQLiteRepository
	policy *access.Policy
	logger *log.Logger
}

func NewReportService(repo *storage.SQLiteRepository, policy *access.Policy, logger *log.Logger) *ReportService {
	return &ReportService{
		repo:   repo,
		policy: policy,
		logger: logger.WithComponent(log.ComponentReports),
	}
}

// ParentSummary builds the all-time overview across a parent's linked
// children: per-child balance and totals, family totals, average balance.
func (s *ReportService) ParentSummary(ctx context.Context, actor core.Actor, parentID int64) (core.ParentSummaryReport, error) {
	if err := s.policy.CanViewFamilyReports(ctx, actor); err != nil {
		return core.ParentSummaryReport{}, err
	}
	if !actor.IsAdmin() && actor.ParentID != parentID {
		return core.ParentSummaryReport{}, core.ErrNotAuthorized
	}

	children, err := s.repo.ListChildrenOfParent(ctx, parentID)
	if err != nil {
		return core.ParentSummaryReport{}, err
	}

	report := core.ParentSummaryReport{ChildrenCount: len(children)}
	for _, child := range children {
		spent, err := s.repo.SumAllSpendings(ctx, child.ID)
		if err != nil {
			return core.ParentSummaryReport{}, err
		}
		allowances, err := s.repo.SumAllGrants(ctx, child.ID)
		if err != nil {
			return core.ParentSummaryReport{}, err
		}
		report.Children = append(report.Children, core.ChildBalanceLine{
			ChildID:         child.ID,
			Name:            child.Name,
			Balance:         child.Balance,
			TotalSpent:      spent,
			TotalAllowances: allowances,
		})
		report.TotalBalance = report.TotalBalance.Add(child.Balance)
		report.TotalAllowances = report.TotalAllowances.Add(allowances)
	}
	if len(children) > 0 {
		report.AverageBalance = core.Money{Cents: report.TotalBalance.Cents / int64(len(children))}
	}
	return report, nil
}

// FinancialReport builds a child's report over [from, to]: totals
// received and spent, net change, category breakdown, goal progress.
// Goal percentages are clamped for display.
func (s *ReportService) FinancialReport(ctx context.Context, actor core.Actor, childID int64, from, to core.Date) (core.FinancialReport, error) {
	if err := s.policy.CanViewChild(ctx, actor, childID); err != nil {
		return core.FinancialReport{}, err
	}
	child, err := s.repo.GetChild(ctx, childID)
	if err != nil {
		return core.FinancialReport{}, err
	}

	spent, spendCount, err := s.repo.SumSpendingsBetween(ctx, childID, from, to)
	if err != nil {
		return core.FinancialReport{}, err
	}
	received, grantCount, err := s.repo.SumGrantsBetween(ctx, childID, from, to)
	if err != nil {
		return core.FinancialReport{}, err
	}
	byCategory, err := s.repo.CategorySumsBetween(ctx, childID, from, to)
	if err != nil {
		return core.FinancialReport{}, err
	}
	goals, err := s.repo.ListGoals(ctx, childID, core.GoalActive)
	if err != nil {
		return core.FinancialReport{}, err
	}

	report := core.FinancialReport{
		ChildID:          childID,
		ChildName:        child.Name,
		PeriodStart:      from,
		PeriodEnd:        to,
		CurrentBalance:   child.Balance,
		TotalSpent:       spent,
		TotalReceived:    received,
		NetChange:        received.Sub(spent),
		ByCategory:       byCategory,
		TransactionCount: spendCount,
		AllowanceCount:   grantCount,
	}
	for _, g := range goals {
		progress := core.Progress(child.Balance, g)
		report.Goals = append(report.Goals, core.GoalReportLine{
			Title:   g.Title,
			Target:  g.Amount,
			Percent: core.ClampPercent(progress.Percent),
			Status:  g.Status,
		})
	}
	return report, nil
}

// CategoryBreakdown returns spend-by-category for a child over a period,
// largest first.
func (s *ReportService) CategoryBreakdown(ctx context.Context, actor core.Actor, childID int64, from, to core.Date) ([]core.CategoryAmount, error) {
	if err := s.policy.CanViewChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	return s.repo.CategorySumsBetween(ctx, childID, from, to)
}

// ChallengeCompletionRates reports completed/started counts per
// challenge across all children.
func (s *ReportService) ChallengeCompletionRates(ctx context.Context, actor core.Actor) ([]core.ChallengeCompletion, error) {
	if err := s.policy.CanViewFamilyReports(ctx, actor); err != nil {
		if schoolErr := s.policy.CanManageChallenges(ctx, actor); schoolErr != nil {
			return nil, err
		}
	}
	return s.repo.ChallengeCompletionRates(ctx)
}
