package storage

import (
	"context"
	"database/sql"
	"fmt"

	"pennywise/internal/core"
)

const grantSelect = `
	SELECT id, child_id, parent_id, amount_cents, date_given, recurring,
	       COALESCE(recurring_schedule, ''), COALESCE(stored_in, '')
	FROM pocket_money`

func scanGrant(row interface{ Scan(...any) error }) (core.Grant, error) {
	var g core.Grant
	var date string
	var recurring int
	var schedule string
	err := row.Scan(&g.ID, &g.ChildID, &g.ParentID, &g.Amount.Cents, &date, &recurring, &schedule, &g.StoredIn)
	if err != nil {
		return core.Grant{}, err
	}
	g.Recurring = recurring != 0
	g.Schedule = core.Schedule(schedule)
	g.DateGiven, err = parseDate(date)
	return g, err
}

func (r *SQLiteRepository) GetGrant(ctx context.Context, grantID int64) (core.Grant, error) {
	g, err := scanGrant(r.db.QueryRowContext(ctx, grantSelect+` WHERE id = ?`, grantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Grant{}, core.ErrNotFound
		}
		return core.Grant{}, fmt.Errorf("get grant: %w", err)
	}
	return g, nil
}

// ListRecurringGrants returns every grant still flagged as the pending
// occurrence of a recurring allowance.
func (r *SQLiteRepository) ListRecurringGrants(ctx context.Context) ([]core.Grant, error) {
	rows, err := r.db.QueryContext(ctx, grantSelect+` WHERE recurring = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring grants: %w", err)
	}
	defer rows.Close()
	return collectGrants(rows)
}

// GrantFilter narrows ListGrantsByParent. Zero values mean "no filter".
type GrantFilter struct {
	ChildID int64
	From    core.Date
	To      core.Date
	Limit   int
}

// ListGrantsByParent returns grants given by a parent, newest first.
func (r *SQLiteRepository) ListGrantsByParent(ctx context.Context, parentID int64, f GrantFilter) ([]core.Grant, error) {
	q := grantSelect + ` WHERE parent_id = ?`
	args := []any{parentID}
	if f.ChildID != 0 {
		q += ` AND child_id = ?`
		args = append(args, f.ChildID)
	}
	if !f.From.IsZero() {
		q += ` AND date_given >= ?`
		args = append(args, formatDate(f.From))
	}
	if !f.To.IsZero() {
		q += ` AND date_given <= ?`
		args = append(args, formatDate(f.To))
	}
	q += ` ORDER BY date_given DESC, id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list grants by parent: %w", err)
	}
	defer rows.Close()
	return collectGrants(rows)
}

// SumGrantsBetween totals allowances given to a child inside [from, to].
func (r *SQLiteRepository) SumGrantsBetween(ctx context.Context, childID int64, from, to core.Date) (core.Money, int, error) {
	var cents int64
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(1) FROM pocket_money
		 WHERE child_id = ? AND date_given >= ? AND date_given <= ?`,
		childID, formatDate(from), formatDate(to)).Scan(&cents, &count)
	if err != nil {
		return core.Money{}, 0, fmt.Errorf("sum grants: %w", err)
	}
	return core.Money{Cents: cents}, count, nil
}

// SumAllGrants totals every allowance a child has ever received.
func (r *SQLiteRepository) SumAllGrants(ctx context.Context, childID int64) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM pocket_money WHERE child_id = ?`,
		childID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum all grants: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func collectGrants(rows *sql.Rows) ([]core.Grant, error) {
	var grants []core.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
