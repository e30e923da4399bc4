package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/segmentio/kafka-go"
	"github.com/storefront/users-backend/events/modules/notifications"
	"github.com/storefront/users-backend/util"
	"go.uber.org/zap"
)

// messageReader is the subset of *kafka.Reader used by the worker loop
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// RunEmailWorker checks that the first broker is reachable and then consumes email events
// in the background, delivering each through sender. Reset events are rendered with resets.
// It returns once the worker is running; the worker stops when ctx is cancelled.
func RunEmailWorker(ctx context.Context, cfg Config, sender notifications.Sender, resets notifications.ResetRenderer, logger *zap.Logger) error {
	if !cfg.Enabled() {
		return fmt.Errorf("no Kafka brokers configured")
	}

	dialer := cfg.Dialer()

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), 2), ctx)
	err := backoff.RetryNotify(func() error {
		conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
		if err != nil {
			return err
		}
		return conn.Close()
	}, bo, func(err error, wait time.Duration) {
		logger.Warn("Kafka connection attempt failed", zap.Error(err), zap.Duration("retry_in", wait))
	})
	if err != nil {
		return fmt.Errorf("connect to Kafka: %w", err)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MaxBytes: 10e6,
		Dialer:   dialer,
	})

	go consume(ctx, reader, sender, resets, logger)
	return nil
}

func consume(ctx context.Context, reader messageReader, sender notifications.Sender, resets notifications.ResetRenderer, logger *zap.Logger) {
	defer reader.Close()

	logger.Info("Email worker started, listening for email events")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Email worker stopped")
				return
			}
			logger.Warn("Failed to read email event", zap.Error(err))
			continue
		}

		eventID, err := notifications.HandleEvent(ctx, msg.Value, sender, resets)
		if err != nil {
			util.LogError(logger, "Failed to process email event", err)
			continue
		}
		logger.Debug("Email delivered", zap.String("event_id", eventID), zap.Int64("offset", msg.Offset))
	}
}
