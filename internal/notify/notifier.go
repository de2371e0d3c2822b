// Package notify publishes fire-and-forget notification events. Delivery is
// owned by an external consumer; publish failures are logged by callers and
// never roll back the change that triggered them.
package notify

import (
	"context"
	"time"
)

// TopicEmailNotifications carries outbound email events
const TopicEmailNotifications = "tipdriver.notifications.email"

// Event types
const (
	EventTypeCompanyCreated = "company_created"
	EventTypeAccessGranted  = "access_granted"
	EventTypeAccountSetup   = "account_setup"
)

// EmailEvent is an outbound email notification
type EmailEvent struct {
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Key returns the message key for partitioning
func (e *EmailEvent) Key() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.Email
}

// Notifier publishes notification events
type Notifier interface {
	SendEmail(ctx context.Context, event *EmailEvent) error
}

// NoopNotifier discards events; used when no broker is configured and in tests
type NoopNotifier struct{}

// SendEmail discards the event
func (NoopNotifier) SendEmail(ctx context.Context, event *EmailEvent) error {
	return nil
}
