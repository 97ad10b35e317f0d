package storage

import (
	"context"
	"database/sql"
	"fmt"

	"pennywise/internal/core"
)

const goalSelect = `
	SELECT id, child_id, title, amount_cents, COALESCE(deadline, ''), status
	FROM goals`

func scanGoal(row interface{ Scan(...any) error }) (core.Goal, error) {
	var g core.Goal
	var deadline string
	var status string
	err := row.Scan(&g.ID, &g.ChildID, &g.Title, &g.Amount.Cents, &deadline, &status)
	if err != nil {
		return core.Goal{}, err
	}
	g.Status = core.GoalStatus(status)
	if deadline != "" {
		g.Deadline, err = parseDate(deadline)
		if err != nil {
			return core.Goal{}, err
		}
	}
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	var deadline any
	if !g.Deadline.IsZero() {
		deadline = formatDate(g.Deadline)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (child_id, title, amount_cents, deadline, status) VALUES (?, ?, ?, ?, ?)`,
		g.ChildID, g.Title, g.Amount.Cents, deadline, string(g.Status))
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	g.ID, _ = res.LastInsertId()
	return g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, goalID int64) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, goalSelect+` WHERE id = ?`, goalID))
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Goal{}, core.ErrNotFound
		}
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// ListGoals returns a child's goals, optionally filtered by status.
func (r *SQLiteRepository) ListGoals(ctx context.Context, childID int64, status core.GoalStatus) ([]core.Goal, error) {
	q := goalSelect + ` WHERE child_id = ?`
	args := []any{childID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *SQLiteRepository) UpdateGoalStatus(ctx context.Context, goalID int64, status core.GoalStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET status = ? WHERE id = ?`, string(status), goalID)
	if err != nil {
		return fmt.Errorf("update goal status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
