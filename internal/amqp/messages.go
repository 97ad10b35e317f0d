package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"pennywise/internal/notify"
)

// NotificationMessage is the wire form of an outbound notification. The
// delivery worker on the other side of the queue turns it into an email.
type NotificationMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	ChildID   int64     `json:"child_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewNotificationMessage(n notify.Notification) *NotificationMessage {
	return &NotificationMessage{
		ID:        uuid.NewString(),
		Kind:      n.Kind,
		Recipient: n.Recipient,
		Subject:   n.Subject,
		Body:      n.Body,
		ChildID:   n.ChildID,
		Timestamp: time.Now(),
	}
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
