package services

import (
	"context"
	"fmt"

	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/notify"
	"pennywise/internal/storage"
)

// AllowanceProcessor pays out recurring allowances that have come due.
// Each grant is processed in its own transaction, so one bad row cannot
// roll back the payouts of every other child in the run.
type AllowanceProcessor struct {
	repo      *storage.SQLiteRepository
	publisher notify.Publisher
	logger    *log.Logger
}

func NewAllowanceProcessor(repo *storage.SQLiteRepository, publisher notify.Publisher, logger *log.Logger) *AllowanceProcessor {
	return &AllowanceProcessor{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentProcessor),
	}
}

// ProcessDueAllowances walks every pending recurring grant, pays out the
// due ones, and reports how many were processed and how many failed.
// Failures are logged and skipped; the run always continues.
func (p *AllowanceProcessor) ProcessDueAllowances(ctx context.Context, today core.Date) (processed, failed int, err error) {
	grants, err := p.repo.ListRecurringGrants(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list recurring grants: %w", err)
	}

	p.logger.InfoContext(ctx, "processing recurring allowances",
		"total_pending", len(grants),
		"processing_date", today.Format("2006-01-02"))

	for _, grant := range grants {
		checker, err := GetDuenessChecker(grant.Schedule)
		if err != nil {
			p.logger.ErrorContext(ctx, "skipping grant with unknown schedule",
				log.FieldGrantID, grant.ID,
				log.FieldSchedule, string(grant.Schedule),
				log.FieldError, err)
			failed++
			continue
		}
		if !checker.IsDue(grant.DateGiven, today) {
			continue
		}

		if _, err := p.repo.ProcessRecurringGrant(ctx, grant, today); err != nil {
			p.logger.ErrorContext(ctx, "failed to process recurring grant",
				log.FieldGrantID, grant.ID,
				log.FieldChildID, grant.ChildID,
				log.FieldError, err)
			failed++
			continue
		}
		processed++

		p.logger.InfoContext(ctx, "paid out recurring allowance",
			log.FieldGrantID, grant.ID,
			log.FieldChildID, grant.ChildID,
			log.FieldAmountCents, grant.Amount.Cents,
			log.FieldSchedule, string(grant.Schedule))

		p.notifyCredited(ctx, grant, today)
	}

	p.logger.InfoContext(ctx, "recurring allowance processing complete",
		log.FieldProcessed, processed,
		log.FieldFailed, failed,
		"total_checked", len(grants))

	return processed, failed, nil
}

// notifyCredited tells the child about the payout. Delivery is best
// effort; the credit already committed.
func (p *AllowanceProcessor) notifyCredited(ctx context.Context, grant core.Grant, today core.Date) {
	if p.publisher == nil {
		return
	}
	child, err := p.repo.GetChild(ctx, grant.ChildID)
	if err != nil {
		p.logger.WarnContext(ctx, "cannot notify child of payout",
			log.FieldChildID, grant.ChildID,
			log.FieldError, err)
		return
	}

	n := notify.Notification{
		Kind:      notify.KindAllowanceCredited,
		Recipient: child.Email,
		Subject:   "Your allowance has arrived!",
		Body: fmt.Sprintf("Hi %s, your %s allowance of %s was added today. Your balance is now %s.",
			child.Name, grant.Schedule, grant.Amount, child.Balance),
		ChildID: child.ID,
	}
	if err := p.publisher.Publish(ctx, n); err != nil {
		p.logger.WarnContext(ctx, "failed to publish payout notification",
			log.FieldChildID, child.ID,
			log.FieldError, err)
	}
}
