package services

import (
	"context"
	"fmt"

	"pennywise/internal/access"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/storage"
)

// GoalService manages savings goals. Progress is always derived from the
// child's current balance at read time, never stored.
type GoalService struct {
	repo   *storage.SQLiteRepository
	policy *access.Policy
	logger *log.Logger
}

func NewGoalService(repo *storage.SQLiteRepository, policy *access.Policy, logger *log.Logger) *GoalService {
	return &GoalService{
		repo:   repo,
		policy: policy,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// GoalWithProgress pairs a stored goal with its derived progress.
// DisplayPercent is capped at 100; Progress.Percent is the raw value.
type GoalWithProgress struct {
	Goal           core.Goal
	Progress       core.GoalProgress
	DisplayPercent float64
}

func (s *GoalService) CreateGoal(ctx context.Context, actor core.Actor, goal core.Goal) (core.Goal, error) {
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.policy.CanManageGoalsFor(ctx, actor, goal.ChildID); err != nil {
		return core.Goal{}, err
	}
	created, err := s.repo.CreateGoal(ctx, goal)
	if err != nil {
		return core.Goal{}, err
	}
	s.logger.InfoContext(ctx, "goal created",
		log.FieldGoalID, created.ID,
		log.FieldChildID, created.ChildID,
		log.FieldAmountCents, created.Amount.Cents)
	return created, nil
}

// UpdateGoalStatus moves a goal between active, completed, cancelled and
// waiting-for-approval.
func (s *GoalService) UpdateGoalStatus(ctx context.Context, actor core.Actor, goalID int64, status core.GoalStatus) error {
	switch status {
	case core.GoalActive, core.GoalCompleted, core.GoalCancelled, core.GoalWaitingApproval:
	default:
		return fmt.Errorf("goal status %q: %w", status, core.ErrInvalidStatus)
	}
	goal, err := s.repo.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if err := s.policy.CanManageGoalsFor(ctx, actor, goal.ChildID); err != nil {
		return err
	}
	return s.repo.UpdateGoalStatus(ctx, goalID, status)
}

// ListGoals returns a child's goals with progress derived against the
// current balance. An empty status lists all goals.
func (s *GoalService) ListGoals(ctx context.Context, actor core.Actor, childID int64, status core.GoalStatus) ([]GoalWithProgress, error) {
	if err := s.policy.CanViewChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	child, err := s.repo.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	goals, err := s.repo.ListGoals(ctx, childID, status)
	if err != nil {
		return nil, err
	}

	views := make([]GoalWithProgress, 0, len(goals))
	for _, g := range goals {
		progress := core.Progress(child.Balance, g)
		views = append(views, GoalWithProgress{
			Goal:           g,
			Progress:       progress,
			DisplayPercent: core.ClampPercent(progress.Percent),
		})
	}
	return views, nil
}
