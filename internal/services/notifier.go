// Package services assembles the outbound collaborators of the account service.
package services

import (
	"context"

	"github.com/storefront/users-backend/events/modules/notifications"
	"github.com/storefront/users-backend/internal/kafka"
	"github.com/storefront/users-backend/restapi/modules/auth"
	"go.uber.org/zap"
)

// workerStarter starts the background email consumer
type workerStarter func(ctx context.Context, cfg kafka.Config, sender notifications.Sender, resets notifications.ResetRenderer, logger *zap.Logger) error

// NotifierService picks how account emails leave the process.
type NotifierService struct {
	Notifier auth.Notifier
	Queued   bool

	producer *notifications.EmailProducer
}

// NewNotifierService returns a Kafka-backed notifier when brokers are configured and the
// email worker starts, otherwise a direct SMTP notifier. resets renders queued reset emails.
func NewNotifierService(ctx context.Context, kcfg kafka.Config, email *auth.EmailConfig, resets notifications.ResetRenderer, logger *zap.Logger) *NotifierService {
	return newNotifierService(ctx, kcfg, email, resets, logger, kafka.RunEmailWorker)
}

func newNotifierService(ctx context.Context, kcfg kafka.Config, email *auth.EmailConfig, resets notifications.ResetRenderer, logger *zap.Logger, start workerStarter) *NotifierService {
	smtpNotifier := auth.NewSMTPNotifier(email, logger)

	if !kcfg.Enabled() {
		logger.Info("Kafka not configured, sending email directly over SMTP")
		return &NotifierService{Notifier: smtpNotifier}
	}

	if err := start(ctx, kcfg, smtpNotifier, resets, logger); err != nil {
		logger.Error("Failed to start email worker, sending email directly over SMTP", zap.Error(err))
		return &NotifierService{Notifier: smtpNotifier}
	}

	producer := notifications.NewEmailProducer(kcfg.Brokers, kcfg.Topic, kcfg.Transport())
	logger.Info("Queueing email on Kafka", zap.String("topic", kcfg.Topic))
	return &NotifierService{Notifier: producer, Queued: true, producer: producer}
}

// Close releases the Kafka writer, if any
func (s *NotifierService) Close() error {
	if s.producer == nil {
		return nil
	}
	return s.producer.Close()
}
