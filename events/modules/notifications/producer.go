// Package notifications handles Kafka event production for outbound account emails.
package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by EmailProducer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EmailProducer queues emails on a Kafka topic instead of sending them inline
type EmailProducer struct {
	Writer MessageWriter
}

// NewEmailProducer initializes a Kafka writer for email events.
// transport may be nil for an unauthenticated local broker.
func NewEmailProducer(brokers []string, topic string, transport *kafka.Transport) *EmailProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	if transport != nil {
		w.Transport = transport
	}
	return &EmailProducer{Writer: w}
}

// Send publishes an EmailRequestedEvent. It satisfies the account service's Notifier.
func (p *EmailProducer) Send(ctx context.Context, to, subject, htmlBody string) error {
	return p.publish(ctx, to, EmailRequestedEvent{
		EventType:     EventTypeEmailRequested,
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		To:            to,
		Subject:       subject,
		HTMLBody:      htmlBody,
	})
}

// SendPasswordReset publishes a PasswordResetRequestedEvent carrying only the recipient.
// The worker renders the link from the token stored on the account.
func (p *EmailProducer) SendPasswordReset(ctx context.Context, to string) error {
	return p.publish(ctx, to, PasswordResetRequestedEvent{
		EventType:     EventTypePasswordResetRequested,
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		To:            to,
	})
}

// keyed by recipient so one person's mail stays ordered on a partition
func (p *EmailProducer) publish(ctx context.Context, to string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(to),
		Value: payload,
	})
}

// Close cleans up the Kafka writer
func (p *EmailProducer) Close() error {
	return p.Writer.Close()
}
