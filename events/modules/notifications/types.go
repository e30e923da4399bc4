// Package notifications defines the Kafka contract for outbound account emails.
package notifications

import "time"

// Event types carried on the email topic
const (
	EventTypeEmailRequested         = "user.email.requested"
	EventTypePasswordResetRequested = "user.password_reset.requested"
)

// EmailRequestedEvent asks the email worker to deliver one fully rendered message.
// It must not carry credentials; reset links travel as PasswordResetRequestedEvent.
type EmailRequestedEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// PasswordResetRequestedEvent asks the worker to mail the pending reset link of an account.
// Only the recipient is published; the worker reads the token from the user store.
type PasswordResetRequestedEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	To string `json:"to"`
}

type envelope struct {
	EventType string `json:"event_type"`
	EventID   string `json:"event_id"`
}
