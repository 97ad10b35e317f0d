package services

import (
	"context"
	"errors"
	"fmt"

	"pennywise/internal/access"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/notify"
	"pennywise/internal/storage"
)

// FamilyService covers the social features around the ledger:
// encouragement notes and savings challenges.
type FamilyService struct {
	repo      *storage.SQLiteRepository
	policy    *access.Policy
	publisher notify.Publisher
	logger    *log.Logger
}

func NewFamilyService(repo *storage.SQLiteRepository, policy *access.Policy, publisher notify.Publisher, logger *log.Logger) *FamilyService {
	return &FamilyService{
		repo:      repo,
		policy:    policy,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentApp),
	}
}

// SendNote stores an encouragement note and forwards it to the child as
// a notification, best effort.
func (s *FamilyService) SendNote(ctx context.Context, actor core.Actor, note core.Note) (core.Note, error) {
	if err := note.Validate(); err != nil {
		return core.Note{}, err
	}
	if err := s.policy.CanSendNoteTo(ctx, actor, note.ChildID); err != nil {
		return core.Note{}, err
	}
	note.SenderID = actor.UserID

	created, err := s.repo.CreateNote(ctx, note)
	if err != nil {
		return core.Note{}, err
	}

	if s.publisher != nil {
		child, err := s.repo.GetChild(ctx, created.ChildID)
		if err == nil {
			n := notify.Notification{
				Kind:      notify.KindEncouragementNote,
				Recipient: child.Email,
				Subject:   "Someone is cheering for you!",
				Body:      created.Message,
				ChildID:   child.ID,
			}
			if err := s.publisher.Publish(ctx, n); err != nil {
				s.logger.WarnContext(ctx, "failed to publish note notification",
					log.FieldChildID, child.ID,
					log.FieldError, err)
			}
		}
	}
	return created, nil
}

func (s *FamilyService) ListNotes(ctx context.Context, actor core.Actor, childID int64, limit int) ([]core.Note, error) {
	if err := s.policy.CanViewChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	return s.repo.ListNotesForChild(ctx, childID, limit)
}

// CreateChallenge adds a challenge to the global catalog. Schools and
// admins run the challenge program.
func (s *FamilyService) CreateChallenge(ctx context.Context, actor core.Actor, c core.Challenge) (core.Challenge, error) {
	if c.Title == "" {
		return core.Challenge{}, core.ErrEmptyTitle
	}
	if err := s.policy.CanManageChallenges(ctx, actor); err != nil {
		return core.Challenge{}, err
	}
	return s.repo.CreateChallenge(ctx, c)
}

// ChallengeView is a catalog entry with the viewing child's status, empty
// when the child never started it.
type ChallengeView struct {
	Challenge core.Challenge
	Status    core.ChallengeStatus
}

// ListChallengesFor returns the catalog annotated with a child's
// progress.
func (s *FamilyService) ListChallengesFor(ctx context.Context, actor core.Actor, childID int64) ([]ChallengeView, error) {
	if err := s.policy.CanViewChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	challenges, err := s.repo.ListChallenges(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ChallengeView, 0, len(challenges))
	for _, c := range challenges {
		view := ChallengeView{Challenge: c}
		progress, err := s.repo.GetChallengeProgress(ctx, childID, c.ID)
		switch {
		case err == nil:
			view.Status = progress.Status
		case !errors.Is(err, core.ErrNotFound):
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// SetChallengeStatus records a child starting, completing, or abandoning
// a challenge. Challenges never move money.
func (s *FamilyService) SetChallengeStatus(ctx context.Context, actor core.Actor, childID, challengeID int64, status core.ChallengeStatus) error {
	switch status {
	case core.ChallengeStarted, core.ChallengeCompleted, core.ChallengeAbandoned:
	default:
		return fmt.Errorf("challenge status %q: %w", status, core.ErrInvalidStatus)
	}
	if err := s.policy.CanSpendFor(ctx, actor, childID); err != nil {
		return err
	}
	return s.repo.UpsertChallengeProgress(ctx, childID, challengeID, status)
}
