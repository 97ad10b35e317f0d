package storage

import (
	"context"
	"fmt"

	"pennywise/internal/core"
)

// ListRecentLogs returns a child's newest ledger entries. The log table is
// append-only; there are deliberately no update or delete queries for it.
func (r *SQLiteRepository) ListRecentLogs(ctx context.Context, childID int64, limit int) ([]core.LedgerEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, child_id, amount_cents, date, COALESCE(source, ''), COALESCE(destination, '')
		 FROM pocket_money_logs WHERE child_id = ?
		 ORDER BY date DESC, id DESC LIMIT ?`, childID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent logs: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		var e core.LedgerEntry
		var date string
		if err := rows.Scan(&e.ID, &e.ChildID, &e.Amount.Cents, &date, &e.Source, &e.Destination); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Date, err = parseDate(date)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountLogs returns how many ledger entries a child has.
func (r *SQLiteRepository) CountLogs(ctx context.Context, childID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM pocket_money_logs WHERE child_id = ?`, childID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return n, nil
}
