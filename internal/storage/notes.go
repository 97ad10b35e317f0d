package storage

import (
	"context"
	"fmt"
	"time"

	"pennywise/internal/core"
)

// CreateNote appends an encouragement note. Notes are append-only; there
// are no update or delete queries.
func (r *SQLiteRepository) CreateNote(ctx context.Context, n core.Note) (core.Note, error) {
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notes_encouragement (sender_id, child_id, message, date_sent) VALUES (?, ?, ?, ?)`,
		n.SenderID, n.ChildID, n.Message, n.SentAt.Format(time.RFC3339))
	if err != nil {
		return core.Note{}, fmt.Errorf("create note: %w", err)
	}
	n.ID, _ = res.LastInsertId()
	return n, nil
}

func (r *SQLiteRepository) ListNotesForChild(ctx context.Context, childID int64, limit int) ([]core.Note, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, child_id, message, date_sent FROM notes_encouragement
		 WHERE child_id = ? ORDER BY date_sent DESC, id DESC LIMIT ?`, childID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []core.Note
	for rows.Next() {
		var n core.Note
		var sentAt string
		if err := rows.Scan(&n.ID, &n.SenderID, &n.ChildID, &n.Message, &sentAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, sentAt); err == nil {
			n.SentAt = t
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
