package services

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront/users-backend/events/modules/notifications"
	"github.com/storefront/users-backend/internal/kafka"
	"github.com/storefront/users-backend/restapi/modules/auth"
	"github.com/storefront/users-backend/restapi/modules/auth/authtest"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewNotifierService(t *testing.T) {
	ctx := context.Background()
	email := &auth.EmailConfig{}
	logger := zap.NewNop()

	t.Run("smtp without brokers", func(t *testing.T) {
		started := false
		svc := newNotifierService(ctx, kafka.Config{}, email, nil, logger, func(context.Context, kafka.Config, notifications.Sender, notifications.ResetRenderer, *zap.Logger) error {
			started = true
			return nil
		})
		assert.False(t, started)
		assert.False(t, svc.Queued)
		assert.IsType(t, &auth.SMTPNotifier{}, svc.Notifier)
		assert.NoError(t, svc.Close())
	})

	t.Run("kafka when the worker starts", func(t *testing.T) {
		var workerSender notifications.Sender
		var workerResets notifications.ResetRenderer
		resets := auth.NewResetMailRenderer(authtest.NewMemoryStore(), "http://localhost:3000/api/v1/users/verify")
		cfg := kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "user-email-events"}
		svc := newNotifierService(ctx, cfg, email, resets, logger, func(_ context.Context, _ kafka.Config, s notifications.Sender, r notifications.ResetRenderer, _ *zap.Logger) error {
			workerResets = r
			workerSender = s
			return nil
		})
		assert.True(t, svc.Queued)
		assert.IsType(t, &notifications.EmailProducer{}, svc.Notifier)
		assert.IsType(t, &auth.SMTPNotifier{}, workerSender)
		assert.Same(t, resets, workerResets)
		assert.Implements(t, (*auth.ResetNotifier)(nil), svc.Notifier)
		assert.NoError(t, svc.Close())
	})

	t.Run("falls back to smtp when the worker fails", func(t *testing.T) {
		cfg := kafka.Config{Brokers: []string{"localhost:9092"}}
		svc := newNotifierService(ctx, cfg, email, nil, logger, func(context.Context, kafka.Config, notifications.Sender, notifications.ResetRenderer, *zap.Logger) error {
			return errors.New("unreachable")
		})
		assert.False(t, svc.Queued)
		assert.IsType(t, &auth.SMTPNotifier{}, svc.Notifier)
	})
}
