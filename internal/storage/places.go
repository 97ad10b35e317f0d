package storage

import (
	"context"
	"database/sql"
	"fmt"

	"pennywise/internal/core"
)

func (r *SQLiteRepository) CreatePlace(ctx context.Context, p core.Place) (core.Place, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO pocket_money_places (child_id, name, amount_stored_cents) VALUES (?, ?, ?)`,
		p.ChildID, p.Name, p.Stored.Cents)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Place{}, fmt.Errorf("place %s: %w", p.Name, core.ErrDuplicate)
		}
		return core.Place{}, fmt.Errorf("create place: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	return p, nil
}

func (r *SQLiteRepository) GetPlaceByName(ctx context.Context, childID int64, name string) (core.Place, error) {
	var p core.Place
	err := r.db.QueryRowContext(ctx,
		`SELECT id, child_id, name, amount_stored_cents FROM pocket_money_places
		 WHERE child_id = ? AND name = ?`, childID, name).
		Scan(&p.ID, &p.ChildID, &p.Name, &p.Stored.Cents)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Place{}, core.ErrNotFound
		}
		return core.Place{}, fmt.Errorf("get place: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPlaces(ctx context.Context, childID int64) ([]core.Place, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, child_id, name, amount_stored_cents FROM pocket_money_places
		 WHERE child_id = ? ORDER BY name`, childID)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	var places []core.Place
	for rows.Next() {
		var p core.Place
		if err := rows.Scan(&p.ID, &p.ChildID, &p.Name, &p.Stored.Cents); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// SetPlaceAmount overwrites a place's stored amount. Places are
// informational only, so this does not touch the balance.
func (r *SQLiteRepository) SetPlaceAmount(ctx context.Context, placeID int64, amount core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pocket_money_places SET amount_stored_cents = ? WHERE id = ?`,
		amount.Cents, placeID)
	if err != nil {
		return fmt.Errorf("set place amount: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
