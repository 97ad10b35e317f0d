package storage

import (
	"context"
	"database/sql"
	"fmt"

	"pennywise/internal/core"
)

// CreditParams describes an allowance credit.
type CreditParams struct {
	ChildID   int64
	ParentID  int64
	Amount    core.Money
	DateGiven core.Date
	Recurring bool
	Schedule  core.Schedule
	StoredIn  string
	Source    string // ledger log source, e.g. "Allowance"
}

// SpendingChanges holds the optional fields of a spending update. Nil
// means "leave unchanged".
type SpendingChanges struct {
	Category    *string
	Amount      *core.Money
	SpendDate   *core.Date
	Description *string
}

// CreditAllowance inserts the grant row, adds the amount to the child's
// balance, tops up the named place if it already exists (a missing place is
// skipped, never created), and appends the ledger log. One transaction.
func (r *SQLiteRepository) CreditAllowance(ctx context.Context, p CreditParams) (core.Grant, error) {
	grant := core.Grant{
		ChildID:   p.ChildID,
		ParentID:  p.ParentID,
		Amount:    p.Amount,
		DateGiven: p.DateGiven,
		Recurring: p.Recurring,
		Schedule:  p.Schedule,
		StoredIn:  p.StoredIn,
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO pocket_money (child_id, parent_id, amount_cents, date_given, recurring, recurring_schedule, stored_in)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ChildID, p.ParentID, p.Amount.Cents, formatDate(p.DateGiven),
			boolToInt(p.Recurring), nullIfEmpty(string(p.Schedule)), nullIfEmpty(p.StoredIn))
		if err != nil {
			return fmt.Errorf("insert grant: %w", err)
		}
		grant.ID, _ = res.LastInsertId()

		if err := creditBalance(ctx, tx, p.ChildID, p.Amount); err != nil {
			return err
		}
		if err := topUpPlace(ctx, tx, p.ChildID, p.StoredIn, p.Amount); err != nil {
			return err
		}
		return appendLog(ctx, tx, p.ChildID, p.Amount, p.DateGiven, p.Source, destinationOf(p.StoredIn))
	})
	if err != nil {
		return core.Grant{}, err
	}
	return grant, nil
}

// RecordSpending debits the balance and inserts the spending row in one
// transaction. The debit is guarded: it fails with ErrInsufficientBalance
// when the amount exceeds the current balance, leaving everything
// untouched.
func (r *SQLiteRepository) RecordSpending(ctx context.Context, s core.Spending) (core.Spending, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := debitBalance(ctx, tx, s.ChildID, s.Amount); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO spendings (child_id, category, amount_cents, spend_date, description)
			 VALUES (?, ?, ?, ?, ?)`,
			s.ChildID, s.Category, s.Amount.Cents, formatDate(s.SpendDate), s.Description)
		if err != nil {
			return fmt.Errorf("insert spending: %w", err)
		}
		s.ID, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		return core.Spending{}, err
	}
	return s, nil
}

// UpdateSpending applies the changes and adjusts the balance by
// old − new when the amount changes. An upward amount change re-checks
// sufficient balance the same way a new spend does.
func (r *SQLiteRepository) UpdateSpending(ctx context.Context, childID, spendID int64, changes SpendingChanges) (core.Spending, error) {
	var updated core.Spending
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := getSpendingTx(ctx, tx, childID, spendID)
		if err != nil {
			return err
		}
		updated = old

		if changes.Amount != nil && changes.Amount.Cents != old.Amount.Cents {
			delta := old.Amount.Sub(*changes.Amount) // positive delta refunds
			if delta.Cents >= 0 {
				if err := creditBalance(ctx, tx, childID, delta); err != nil {
					return err
				}
			} else {
				if err := debitBalance(ctx, tx, childID, core.Money{Cents: -delta.Cents}); err != nil {
					return err
				}
			}
			updated.Amount = *changes.Amount
		}
		if changes.Category != nil {
			updated.Category = *changes.Category
		}
		if changes.SpendDate != nil {
			updated.SpendDate = *changes.SpendDate
		}
		if changes.Description != nil {
			updated.Description = *changes.Description
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE spendings SET category = ?, amount_cents = ?, spend_date = ?, description = ?
			 WHERE id = ? AND child_id = ?`,
			updated.Category, updated.Amount.Cents, formatDate(updated.SpendDate), updated.Description,
			spendID, childID)
		if err != nil {
			return fmt.Errorf("update spending: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Spending{}, err
	}
	return updated, nil
}

// DeleteSpending removes the row and restores its amount to the balance
// unconditionally.
func (r *SQLiteRepository) DeleteSpending(ctx context.Context, childID, spendID int64) (core.Money, error) {
	var newBalance core.Money
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := getSpendingTx(ctx, tx, childID, spendID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM spendings WHERE id = ? AND child_id = ?`, spendID, childID); err != nil {
			return fmt.Errorf("delete spending: %w", err)
		}
		if err := creditBalance(ctx, tx, childID, old.Amount); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`SELECT total_balance_cents FROM children WHERE id = ?`, childID).Scan(&newBalance.Cents)
	})
	if err != nil {
		return core.Money{}, err
	}
	return newBalance, nil
}

// ProcessRecurringGrant performs the full per-item mutation of the
// recurring allowance processor in one transaction: insert the successor
// occurrence, flip the original to non-recurring with date_given = today,
// credit the balance, top up the place, append the log. The flip is
// guarded on recurring = 1, so a grant already processed by a concurrent
// run is reported instead of double-credited.
func (r *SQLiteRepository) ProcessRecurringGrant(ctx context.Context, g core.Grant, today core.Date) (core.Grant, error) {
	successor := core.Grant{
		ChildID:   g.ChildID,
		ParentID:  g.ParentID,
		Amount:    g.Amount,
		DateGiven: today,
		Recurring: true,
		Schedule:  g.Schedule,
		StoredIn:  g.StoredIn,
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE pocket_money SET recurring = 0, date_given = ? WHERE id = ? AND recurring = 1`,
			formatDate(today), g.ID)
		if err != nil {
			return fmt.Errorf("mark grant processed: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("grant %d already processed: %w", g.ID, core.ErrNotFound)
		}

		res, err = tx.ExecContext(ctx,
			`INSERT INTO pocket_money (child_id, parent_id, amount_cents, date_given, recurring, recurring_schedule, stored_in)
			 VALUES (?, ?, ?, ?, 1, ?, ?)`,
			successor.ChildID, successor.ParentID, successor.Amount.Cents,
			formatDate(today), string(successor.Schedule), nullIfEmpty(successor.StoredIn))
		if err != nil {
			return fmt.Errorf("insert successor grant: %w", err)
		}
		successor.ID, _ = res.LastInsertId()

		if err := creditBalance(ctx, tx, g.ChildID, g.Amount); err != nil {
			return err
		}
		if err := topUpPlace(ctx, tx, g.ChildID, g.StoredIn, g.Amount); err != nil {
			return err
		}
		return appendLog(ctx, tx, g.ChildID, g.Amount, today,
			core.SourceRecurringAllowance, destinationOf(g.StoredIn))
	})
	if err != nil {
		return core.Grant{}, err
	}
	return successor, nil
}

func creditBalance(ctx context.Context, tx *sql.Tx, childID int64, amount core.Money) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE children SET total_balance_cents = total_balance_cents + ? WHERE id = ?`,
		amount.Cents, childID)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("child %d: %w", childID, core.ErrNotFound)
	}
	return nil
}

// debitBalance subtracts amount only when the balance covers it, so two
// concurrent debits cannot both pass a stale check.
func debitBalance(ctx context.Context, tx *sql.Tx, childID int64, amount core.Money) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE children SET total_balance_cents = total_balance_cents - ?
		 WHERE id = ? AND total_balance_cents >= ?`,
		amount.Cents, childID, amount.Cents)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM children WHERE id = ?`, childID).Scan(&exists); err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("child %d: %w", childID, core.ErrNotFound)
		}
		return core.ErrInsufficientBalance
	}
	return nil
}

// topUpPlace adds amount to the named place iff it already exists; grants
// never create places implicitly.
func topUpPlace(ctx context.Context, tx *sql.Tx, childID int64, name string, amount core.Money) error {
	if name == "" {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE pocket_money_places SET amount_stored_cents = amount_stored_cents + ?
		 WHERE child_id = ? AND name = ?`,
		amount.Cents, childID, name)
	if err != nil {
		return fmt.Errorf("top up place: %w", err)
	}
	return nil
}

func appendLog(ctx context.Context, tx *sql.Tx, childID int64, amount core.Money, date core.Date, source, destination string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO pocket_money_logs (child_id, amount_cents, date, source, destination)
		 VALUES (?, ?, ?, ?, ?)`,
		childID, amount.Cents, formatDate(date), source, destination)
	if err != nil {
		return fmt.Errorf("append ledger log: %w", err)
	}
	return nil
}

func getSpendingTx(ctx context.Context, tx *sql.Tx, childID, spendID int64) (core.Spending, error) {
	var s core.Spending
	var date string
	err := tx.QueryRowContext(ctx,
		`SELECT id, child_id, category, amount_cents, spend_date, description
		 FROM spendings WHERE id = ? AND child_id = ?`, spendID, childID).
		Scan(&s.ID, &s.ChildID, &s.Category, &s.Amount.Cents, &date, &s.Description)
	if err != nil {
		return core.Spending{}, notFoundOr(err, "get spending")
	}
	s.SpendDate, err = parseDate(date)
	if err != nil {
		return core.Spending{}, err
	}
	return s, nil
}

func destinationOf(storedIn string) string {
	if storedIn == "" {
		return core.DestGeneralBalance
	}
	return storedIn
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
