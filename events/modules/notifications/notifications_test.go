package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/storefront/users-backend/events/modules/notifications"
	"github.com/storefront/users-backend/restapi/modules/auth/authtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestEmailProducer_Send(t *testing.T) {
	w := &fakeWriter{}
	p := &notifications.EmailProducer{Writer: w}

	require.NoError(t, p.Send(context.Background(), "ann@x.com", "Reset Password", "<p>link</p>"))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ann@x.com", string(w.msgs[0].Key))

	var event notifications.EmailRequestedEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, notifications.EventTypeEmailRequested, event.EventType)
	assert.Equal(t, "v1", event.SchemaVersion)
	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.EventTime.IsZero())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestEmailProducer_WriteError(t *testing.T) {
	p := &notifications.EmailProducer{Writer: &fakeWriter{err: errors.New("broker down")}}
	assert.Error(t, p.Send(context.Background(), "ann@x.com", "s", "b"))
}

func TestHandleEmailRequested(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers a produced event", func(t *testing.T) {
		w := &fakeWriter{}
		p := &notifications.EmailProducer{Writer: w}
		require.NoError(t, p.Send(ctx, "ann@x.com", "Reset Password", "<p>link</p>"))

		sender := &authtest.RecordingNotifier{}
		event, err := notifications.HandleEmailRequested(ctx, w.msgs[0].Value, sender)
		require.NoError(t, err)
		assert.Equal(t, "ann@x.com", event.To)

		msg, ok := sender.Last()
		require.True(t, ok)
		assert.Equal(t, authtest.Message{To: "ann@x.com", Subject: "Reset Password", Body: "<p>link</p>"}, msg)
	})

	t.Run("rejects bad payloads", func(t *testing.T) {
		sender := &authtest.RecordingNotifier{}
		for name, payload := range map[string]string{
			"not json":     `{`,
			"wrong type":   `{"event_type":"release.sbom.created","to":"a@x.com","subject":"s"}`,
			"no recipient": `{"event_type":"user.email.requested","subject":"s"}`,
		} {
			_, err := notifications.HandleEmailRequested(ctx, []byte(payload), sender)
			assert.Error(t, err, name)
		}
		assert.Empty(t, sender.Messages())
	})

	t.Run("propagates send failures", func(t *testing.T) {
		sender := &authtest.RecordingNotifier{Err: errors.New("smtp down")}
		_, err := notifications.HandleEmailRequested(ctx,
			[]byte(`{"event_type":"user.email.requested","event_id":"1","to":"a@x.com","subject":"s"}`), sender)
		assert.ErrorIs(t, err, sender.Err)
	})
}

type stubRenderer struct {
	err   error
	asked []string
}

func (r *stubRenderer) RenderPasswordReset(_ context.Context, email string) (string, string, error) {
	r.asked = append(r.asked, email)
	if r.err != nil {
		return "", "", r.err
	}
	return "Reset Password", "<p>fresh link</p>", nil
}

func TestEmailProducer_SendPasswordReset(t *testing.T) {
	w := &fakeWriter{}
	p := &notifications.EmailProducer{Writer: w}

	require.NoError(t, p.SendPasswordReset(context.Background(), "ann@x.com"))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ann@x.com", string(w.msgs[0].Key))

	raw := string(w.msgs[0].Value)
	assert.NotContains(t, raw, "html_body")
	assert.NotContains(t, raw, "subject")
	assert.NotContains(t, raw, "verify")

	var event notifications.PasswordResetRequestedEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, notifications.EventTypePasswordResetRequested, event.EventType)
	assert.Equal(t, "ann@x.com", event.To)
	assert.NotEmpty(t, event.EventID)
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("renders reset emails in the worker", func(t *testing.T) {
		w := &fakeWriter{}
		p := &notifications.EmailProducer{Writer: w}
		require.NoError(t, p.SendPasswordReset(ctx, "ann@x.com"))

		sender := &authtest.RecordingNotifier{}
		resets := &stubRenderer{}
		id, err := notifications.HandleEvent(ctx, w.msgs[0].Value, sender, resets)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.Equal(t, []string{"ann@x.com"}, resets.asked)

		msg, ok := sender.Last()
		require.True(t, ok)
		assert.Equal(t, authtest.Message{To: "ann@x.com", Subject: "Reset Password", Body: "<p>fresh link</p>"}, msg)
	})

	t.Run("delivers prerendered emails", func(t *testing.T) {
		sender := &authtest.RecordingNotifier{}
		id, err := notifications.HandleEvent(ctx,
			[]byte(`{"event_type":"user.email.requested","event_id":"7","to":"a@x.com","subject":"s","html_body":"b"}`), sender, nil)
		require.NoError(t, err)
		assert.Equal(t, "7", id)
		assert.Len(t, sender.Messages(), 1)
	})

	t.Run("rejects what it cannot deliver", func(t *testing.T) {
		sender := &authtest.RecordingNotifier{}
		cases := []struct {
			name    string
			payload string
			resets  notifications.ResetRenderer
		}{
			{"not json", `{`, &stubRenderer{}},
			{"unknown type", `{"event_type":"user.deleted","event_id":"1","to":"a@x.com"}`, &stubRenderer{}},
			{"reset without recipient", `{"event_type":"user.password_reset.requested","event_id":"2"}`, &stubRenderer{}},
			{"reset without renderer", `{"event_type":"user.password_reset.requested","event_id":"3","to":"a@x.com"}`, nil},
			{"render failure", `{"event_type":"user.password_reset.requested","event_id":"4","to":"a@x.com"}`, &stubRenderer{err: errors.New("no pending reset")}},
		}
		for _, tc := range cases {
			_, err := notifications.HandleEvent(ctx, []byte(tc.payload), sender, tc.resets)
			assert.Error(t, err, tc.name)
		}
		assert.Empty(t, sender.Messages())
	})
}
