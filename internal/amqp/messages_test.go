package amqp

import (
	"testing"
	"time"

	"pennywise/internal/notify"
)

func TestNewNotificationMessage(t *testing.T) {
	n := notify.Notification{
		Kind:      notify.KindDailyReminder,
		Recipient: "kid@example.com",
		Subject:   "Don't forget to log your spending!",
		Body:      "You haven't logged anything today.",
		ChildID:   7,
	}

	msg := NewNotificationMessage(n)

	if msg.ID == "" {
		t.Error("message ID should be set")
	}
	if msg.Kind != n.Kind || msg.Recipient != n.Recipient || msg.ChildID != 7 {
		t.Errorf("message fields not carried over: %+v", msg)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}

	other := NewNotificationMessage(n)
	if other.ID == msg.ID {
		t.Error("each message should get a fresh ID")
	}
}

func TestNotificationMessageJSON(t *testing.T) {
	msg := NewNotificationMessage(notify.Notification{
		Kind:      notify.KindWeeklyParentSummary,
		Recipient: "parent@example.com",
		Subject:   "Weekly family summary",
		Body:      "Total balance: 100.00",
	})

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := NotificationMessageFromJSON(data)
	if err != nil {
		t.Fatalf("NotificationMessageFromJSON() error = %v", err)
	}
	if parsed.ID != msg.ID || parsed.Kind != msg.Kind || parsed.Subject != msg.Subject {
		t.Errorf("round trip mismatch: got %+v, want %+v", parsed, msg)
	}
	if parsed.ChildID != 0 {
		t.Errorf("child_id should stay zero for parent-wide messages, got %d", parsed.ChildID)
	}
}

func TestNotificationMessageInvalidJSON(t *testing.T) {
	if _, err := NotificationMessageFromJSON([]byte(`{"child_id": "seven"}`)); err == nil {
		t.Error("expected an error for malformed payload")
	}
}
