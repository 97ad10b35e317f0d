package storage

import (
	"context"
	"database/sql"
	"fmt"

	"pennywise/internal/core"
)

const spendingSelect = `
	SELECT id, child_id, category, amount_cents, spend_date, description
	FROM spendings`

func scanSpending(row interface{ Scan(...any) error }) (core.Spending, error) {
	var s core.Spending
	var date string
	err := row.Scan(&s.ID, &s.ChildID, &s.Category, &s.Amount.Cents, &date, &s.Description)
	if err != nil {
		return core.Spending{}, err
	}
	s.SpendDate, err = parseDate(date)
	return s, err
}

func (r *SQLiteRepository) GetSpending(ctx context.Context, childID, spendID int64) (core.Spending, error) {
	s, err := scanSpending(r.db.QueryRowContext(ctx,
		spendingSelect+` WHERE id = ? AND child_id = ?`, spendID, childID))
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Spending{}, core.ErrNotFound
		}
		return core.Spending{}, fmt.Errorf("get spending: %w", err)
	}
	return s, nil
}

// SpendingFilter narrows ListSpendings. Zero values mean "no filter".
type SpendingFilter struct {
	Category string
	From     core.Date
	To       core.Date
	Limit    int
}

// ListSpendings returns a child's spending records, newest first.
func (r *SQLiteRepository) ListSpendings(ctx context.Context, childID int64, f SpendingFilter) ([]core.Spending, error) {
	q := spendingSelect + ` WHERE child_id = ?`
	args := []any{childID}
	if f.Category != "" {
		q += ` AND category = ?`
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		q += ` AND spend_date >= ?`
		args = append(args, formatDate(f.From))
	}
	if !f.To.IsZero() {
		q += ` AND spend_date <= ?`
		args = append(args, formatDate(f.To))
	}
	q += ` ORDER BY spend_date DESC, id DESC`
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	q += ` LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list spendings: %w", err)
	}
	defer rows.Close()

	var spendings []core.Spending
	for rows.Next() {
		s, err := scanSpending(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spending: %w", err)
		}
		spendings = append(spendings, s)
	}
	return spendings, rows.Err()
}

// CountSpendingsOn counts a child's spending rows dated exactly on day.
func (r *SQLiteRepository) CountSpendingsOn(ctx context.Context, childID int64, day core.Date) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM spendings WHERE child_id = ? AND spend_date = ?`,
		childID, formatDate(day)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count spendings on day: %w", err)
	}
	return n, nil
}

// SumSpendingsBetween totals a child's spending inside [from, to].
func (r *SQLiteRepository) SumSpendingsBetween(ctx context.Context, childID int64, from, to core.Date) (core.Money, int, error) {
	var cents int64
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(1) FROM spendings
		 WHERE child_id = ? AND spend_date >= ? AND spend_date <= ?`,
		childID, formatDate(from), formatDate(to)).Scan(&cents, &count)
	if err != nil {
		return core.Money{}, 0, fmt.Errorf("sum spendings: %w", err)
	}
	return core.Money{Cents: cents}, count, nil
}

// SumAllSpendings totals everything a child has ever spent.
func (r *SQLiteRepository) SumAllSpendings(ctx context.Context, childID int64) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM spendings WHERE child_id = ?`,
		childID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum all spendings: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// CategorySumsBetween groups a child's spending by category over [from, to],
// largest first.
func (r *SQLiteRepository) CategorySumsBetween(ctx context.Context, childID int64, from, to core.Date) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) FROM spendings
		 WHERE child_id = ? AND spend_date >= ? AND spend_date <= ?
		 GROUP BY category ORDER BY SUM(amount_cents) DESC`,
		childID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("category sums: %w", err)
	}
	defer rows.Close()

	var sums []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums = append(sums, ca)
	}
	return sums, rows.Err()
}
