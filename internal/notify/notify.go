// Package notify defines the outbound notification contract. The app
// renders notifications and hands them to a Publisher; actual delivery
// (email, push) happens in a separate consumer.
package notify

import (
	"context"

	"pennywise/internal/log"
)

// Notification kinds.
const (
	KindDailyReminder       = "daily_reminder"
	KindWeeklyChildSummary  = "weekly_child_summary"
	KindWeeklyParentSummary = "weekly_parent_summary"
	KindAllowanceCredited   = "allowance_credited"
	KindEncouragementNote   = "encouragement_note"
)

// Notification is a fully rendered message addressed to one recipient.
type Notification struct {
	Kind      string
	Recipient string // email address
	Subject   string
	Body      string
	ChildID   int64 // subject child, zero for parent-wide messages
}

type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// LogPublisher writes notifications to the log instead of a broker. Used
// when no AMQP URL is configured and in tests.
type LogPublisher struct {
	logger *log.Logger
}

func NewLogPublisher(logger *log.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.WithComponent(log.ComponentNotify)}
}

func (p *LogPublisher) Publish(ctx context.Context, n Notification) error {
	p.logger.InfoContext(ctx, "notification (log only)",
		"kind", n.Kind,
		"recipient", n.Recipient,
		"subject", n.Subject,
		log.FieldChildID, n.ChildID,
	)
	return nil
}
