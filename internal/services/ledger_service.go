package services

import (
	"context"
	"fmt"

	"pennywise/internal/access"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/notify"
	"pennywise/internal/storage"
)

// LedgerService orchestrates the money-moving operations: allowance
// credits, spendings, places, and the child dashboard. Every operation
// takes the acting user explicitly and consults the access policy before
// touching storage.
type LedgerService struct {
	repo      *storage.SQLiteRepository
	policy    *access.Policy
	publisher notify.Publisher
	logger    *log.Logger
}

func NewLedgerService(repo *storage.SQLiteRepository, policy *access.Policy, publisher notify.Publisher, logger *log.Logger) *LedgerService {
	return &LedgerService{
		repo:      repo,
		policy:    policy,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// GrantRequest describes one allowance credit.
type GrantRequest struct {
	ChildID   int64
	ParentID  int64 // defaults to the actor's parent profile
	Amount    core.Money
	DateGiven core.Date
	Recurring bool
	Schedule  core.Schedule
	StoredIn  string
}

// GrantAllowance credits an allowance to a child. The acting parent must
// be linked to the child; admins may grant on any parent's behalf by
// setting ParentID explicitly.
func (s *LedgerService) GrantAllowance(ctx context.Context, actor core.Actor, req GrantRequest) (core.Grant, error) {
	parentID := req.ParentID
	if parentID == 0 {
		parentID = actor.ParentID
	}
	if parentID == 0 {
		return core.Grant{}, fmt.Errorf("grant requires a parent: %w", core.ErrNotAuthorized)
	}

	grant := core.Grant{
		ChildID:   req.ChildID,
		ParentID:  parentID,
		Amount:    req.Amount,
		DateGiven: req.DateGiven,
		Recurring: req.Recurring,
		Schedule:  req.Schedule,
		StoredIn:  req.StoredIn,
	}
	if err := grant.Validate(); err != nil {
		return core.Grant{}, err
	}
	if err := s.policy.CanGrantTo(ctx, actor, req.ChildID); err != nil {
		return core.Grant{}, err
	}

	created, err := s.repo.CreditAllowance(ctx, storage.CreditParams{
		ChildID:   grant.ChildID,
		ParentID:  grant.ParentID,
		Amount:    grant.Amount,
		DateGiven: grant.DateGiven,
		Recurring: grant.Recurring,
		Schedule:  grant.Schedule,
		StoredIn:  grant.StoredIn,
		Source:    core.SourceAllowance,
	})
	if err != nil {
		return core.Grant{}, err
	}

	s.logger.InfoContext(ctx, "allowance credited",
		log.FieldGrantID, created.ID,
		log.FieldChildID, created.ChildID,
		log.FieldParentID, created.ParentID,
		log.FieldAmountCents, created.Amount.Cents)

	s.notifyCredited(ctx, created)
	return created, nil
}

// RecordSpending logs a purchase and debits the child's balance.
func (s *LedgerService) RecordSpending(ctx context.Context, actor core.Actor, spend core.Spending) (core.Spending, error) {
	if err := spend.Validate(); err != nil {
		return core.Spending{}, err
	}
	if err := s.policy.CanSpendFor(ctx, actor, spend.ChildID); err != nil {
		return core.Spending{}, err
	}

	created, err := s.repo.RecordSpending(ctx, spend)
	if err != nil {
		return core.Spending{}, err
	}

	s.logger.InfoContext(ctx, "spending recorded",
		log.FieldSpendingID, created.ID,
		log.FieldChildID, created.ChildID,
		log.FieldCategory, created.Category,
		log.FieldAmountCents, created.Amount.Cents)
	return created, nil
}

// UpdateSpending changes a spending record. An amount change adjusts the
// balance by the difference and re-checks sufficiency when the new amount
// is larger.
func (s *LedgerService) UpdateSpending(ctx context.Context, actor core.Actor, childID, spendID int64, changes storage.SpendingChanges) (core.Spending, error) {
	if changes.Amount != nil {
		if err := changes.Amount.Validate(); err != nil {
			return core.Spending{}, err
		}
	}
	if changes.Category != nil && *changes.Category == "" {
		return core.Spending{}, core.ErrEmptyCategory
	}
	if changes.SpendDate != nil {
		if err := changes.SpendDate.Validate(); err != nil {
			return core.Spending{}, err
		}
	}
	if err := s.policy.CanSpendFor(ctx, actor, childID); err != nil {
		return core.Spending{}, err
	}
	return s.repo.UpdateSpending(ctx, childID, spendID, changes)
}

// DeleteSpending removes a record and refunds its amount. Returns the
// balance after the refund.
func (s *LedgerService) DeleteSpending(ctx context.Context, actor core.Actor, childID, spendID int64) (core.Money, error) {
	if err := s.policy.CanSpendFor(ctx, actor, childID); err != nil {
		return core.Money{}, err
	}
	balance, err := s.repo.DeleteSpending(ctx, childID, spendID)
	if err != nil {
		return core.Money{}, err
	}
	s.logger.InfoContext(ctx, "spending deleted",
		log.FieldSpendingID, spendID,
		log.FieldChildID, childID,
		log.FieldBalance, balance.Cents)
	return balance, nil
}

func (s *LedgerService) ListSpendings(ctx context.Context, actor core.Actor, childID int64, f storage.SpendingFilter) ([]core.Spending, error) {
	if err := s.policy.CanViewChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	return s.repo.ListSpendings(ctx, childID, f)
}

func (s *LedgerService) GetChild(ctx context.Context, actor core.Actor, childID int64) (core.Child, error) {
	if err := s.policy.CanViewChild(ctx, actor, childID); err != nil {
		return core.Child{}, err
	}
	return s.repo.GetChild(ctx, childID)
}

// MoneyOverview builds the child dashboard: balance, places, recent
// ledger entries.
func (s *LedgerService) MoneyOverview(ctx context.Context, actor core.Actor, childID int64) (core.MoneyOverview, error) {
	if err := s.policy.CanViewChild(ctx, actor, childID); err != nil {
		return core.MoneyOverview{}, err
	}
	child, err := s.repo.GetChild(ctx, childID)
	if err != nil {
		return core.MoneyOverview{}, err
	}
	places, err := s.repo.ListPlaces(ctx, childID)
	if err != nil {
		return core.MoneyOverview{}, err
	}
	logs, err := s.repo.ListRecentLogs(ctx, childID, 10)
	if err != nil {
		return core.MoneyOverview{}, err
	}
	return core.MoneyOverview{
		ChildID:      childID,
		TotalBalance: child.Balance,
		Places:       places,
		RecentLogs:   logs,
	}, nil
}

// CreatePlace adds a named storage bucket for a child. Children manage
// their own places.
func (s *LedgerService) CreatePlace(ctx context.Context, actor core.Actor, place core.Place) (core.Place, error) {
	if place.Name == "" {
		return core.Place{}, core.ErrEmptyTitle
	}
	if err := s.policy.CanSpendFor(ctx, actor, place.ChildID); err != nil {
		return core.Place{}, err
	}
	return s.repo.CreatePlace(ctx, place)
}

func (s *LedgerService) ListPlaces(ctx context.Context, actor core.Actor, childID int64) ([]core.Place, error) {
	if err := s.policy.CanViewChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	return s.repo.ListPlaces(ctx, childID)
}

// ListGrants returns the allowances a parent has given. Parents see only
// their own grants; admins may read any parent's.
func (s *LedgerService) ListGrants(ctx context.Context, actor core.Actor, parentID int64, f storage.GrantFilter) ([]core.Grant, error) {
	if !actor.IsAdmin() && actor.ParentID != parentID {
		return nil, core.ErrNotAuthorized
	}
	return s.repo.ListGrantsByParent(ctx, parentID, f)
}

// notifyCredited tells the child about a fresh allowance. Best effort;
// the credit already committed.
func (s *LedgerService) notifyCredited(ctx context.Context, grant core.Grant) {
	if s.publisher == nil {
		return
	}
	child, err := s.repo.GetChild(ctx, grant.ChildID)
	if err != nil {
		s.logger.WarnContext(ctx, "cannot notify child of credit",
			log.FieldChildID, grant.ChildID,
			log.FieldError, err)
		return
	}
	n := notify.Notification{
		Kind:      notify.KindAllowanceCredited,
		Recipient: child.Email,
		Subject:   "You received pocket money!",
		Body: fmt.Sprintf("Hi %s, %s was added to your balance. You now have %s.",
			child.Name, grant.Amount, child.Balance),
		ChildID: child.ID,
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "failed to publish credit notification",
			log.FieldChildID, child.ID,
			log.FieldError, err)
	}
}
