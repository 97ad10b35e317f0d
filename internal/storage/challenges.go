package storage

import (
	"context"
	"fmt"
	"time"

	"pennywise/internal/core"
)

func (r *SQLiteRepository) CreateChallenge(ctx context.Context, c core.Challenge) (core.Challenge, error) {
	var endsOn any
	if !c.EndsOn.IsZero() {
		endsOn = c.EndsOn.UTC().Format(time.RFC3339)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO challenges (title, description, reward, ends_on) VALUES (?, ?, ?, ?)`,
		c.Title, c.Description, c.Reward, endsOn)
	if err != nil {
		return core.Challenge{}, fmt.Errorf("create challenge: %w", err)
	}
	c.ID, _ = res.LastInsertId()
	return c, nil
}

func (r *SQLiteRepository) ListChallenges(ctx context.Context) ([]core.Challenge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, reward FROM challenges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []core.Challenge
	for rows.Next() {
		var c core.Challenge
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Reward); err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

// GetChallengeProgress returns a child's progress row for one challenge,
// or core.ErrNotFound when the child never started it.
func (r *SQLiteRepository) GetChallengeProgress(ctx context.Context, childID, challengeID int64) (core.ChallengeProgress, error) {
	var p core.ChallengeProgress
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, child_id, challenge_id, status FROM challenge_progress
		 WHERE child_id = ? AND challenge_id = ?`, childID, challengeID).
		Scan(&p.ID, &p.ChildID, &p.ChallengeID, &status)
	if err != nil {
		return core.ChallengeProgress{}, notFoundOr(err, "get challenge progress")
	}
	p.Status = core.ChallengeStatus(status)
	return p, nil
}

// UpsertChallengeProgress creates the progress row on first touch and
// updates the status afterwards.
func (r *SQLiteRepository) UpsertChallengeProgress(ctx context.Context, childID, challengeID int64, status core.ChallengeStatus) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO challenge_progress (child_id, challenge_id, status) VALUES (?, ?, ?)
		 ON CONFLICT(child_id, challenge_id) DO UPDATE SET status = excluded.status`,
		childID, challengeID, string(status))
	if err != nil {
		return fmt.Errorf("upsert challenge progress: %w", err)
	}
	return nil
}

// ChallengeCompletionRates computes completed/started counts per
// challenge.
func (r *SQLiteRepository) ChallengeCompletionRates(ctx context.Context) ([]core.ChallengeCompletion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ch.id, ch.title,
		        COUNT(cp.id),
		        COALESCE(SUM(CASE WHEN cp.status = 'completed' THEN 1 ELSE 0 END), 0)
		 FROM challenges ch
		 LEFT JOIN challenge_progress cp ON cp.challenge_id = ch.id
		 GROUP BY ch.id, ch.title ORDER BY ch.id`)
	if err != nil {
		return nil, fmt.Errorf("challenge completion rates: %w", err)
	}
	defer rows.Close()

	var rates []core.ChallengeCompletion
	for rows.Next() {
		var cc core.ChallengeCompletion
		if err := rows.Scan(&cc.ChallengeID, &cc.Title, &cc.Started, &cc.Completed); err != nil {
			return nil, fmt.Errorf("scan completion rate: %w", err)
		}
		if cc.Started > 0 {
			cc.Rate = float64(cc.Completed) / float64(cc.Started)
		}
		rates = append(rates, cc)
	}
	return rates, rows.Err()
}
