// Package notifications handles Kafka event processing for outbound account emails.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Sender delivers an email, typically over SMTP
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ResetRenderer renders the reset email for the reset currently pending on an account
type ResetRenderer interface {
	RenderPasswordReset(ctx context.Context, email string) (subject, htmlBody string, err error)
}

// HandleEvent dispatches one message from the email topic by event type and returns its id
func HandleEvent(ctx context.Context, msg []byte, sender Sender, resets ResetRenderer) (string, error) {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return "", fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	switch env.EventType {
	case EventTypeEmailRequested:
		_, err := HandleEmailRequested(ctx, msg, sender)
		return env.EventID, err
	case EventTypePasswordResetRequested:
		_, err := HandlePasswordResetRequested(ctx, msg, sender, resets)
		return env.EventID, err
	default:
		return env.EventID, fmt.Errorf("unexpected event type %q", env.EventType)
	}
}

// HandleEmailRequested decodes an EmailRequestedEvent and delivers it through sender
func HandleEmailRequested(ctx context.Context, msg []byte, sender Sender) (*EmailRequestedEvent, error) {
	var event EmailRequestedEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal EmailRequestedEvent: %w", err)
	}

	if event.EventType != EventTypeEmailRequested {
		return &event, fmt.Errorf("unexpected event type %q", event.EventType)
	}
	if strings.TrimSpace(event.To) == "" || event.Subject == "" {
		return &event, fmt.Errorf("invalid event %s: missing required fields", event.EventID)
	}

	if err := sender.Send(ctx, event.To, event.Subject, event.HTMLBody); err != nil {
		return &event, fmt.Errorf("failed to send email for event %s: %w", event.EventID, err)
	}
	return &event, nil
}

// HandlePasswordResetRequested renders the pending reset email for the recipient and delivers it
func HandlePasswordResetRequested(ctx context.Context, msg []byte, sender Sender, resets ResetRenderer) (*PasswordResetRequestedEvent, error) {
	var event PasswordResetRequestedEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal PasswordResetRequestedEvent: %w", err)
	}

	if event.EventType != EventTypePasswordResetRequested {
		return &event, fmt.Errorf("unexpected event type %q", event.EventType)
	}
	if strings.TrimSpace(event.To) == "" {
		return &event, fmt.Errorf("invalid event %s: missing recipient", event.EventID)
	}
	if resets == nil {
		return &event, fmt.Errorf("no reset renderer for event %s", event.EventID)
	}

	subject, body, err := resets.RenderPasswordReset(ctx, event.To)
	if err != nil {
		return &event, fmt.Errorf("failed to render reset email for event %s: %w", event.EventID, err)
	}

	if err := sender.Send(ctx, event.To, subject, body); err != nil {
		return &event, fmt.Errorf("failed to send email for event %s: %w", event.EventID, err)
	}
	return &event, nil
}
