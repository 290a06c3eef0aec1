package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/piicrypt/internal/errors"
)

func TestNewOutboxEvent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("encodes payload", func(t *testing.T) {
		event, err := NewOutboxEvent(EventTypeEncryptionCompleted, map[string]int{"total": 200}, now)
		require.NoError(t, err)

		assert.Equal(t, uuid.Version(7), event.ID.Version())
		assert.Equal(t, EventTypeEncryptionCompleted, event.EventType)
		assert.JSONEq(t, `{"total":200}`, event.Payload)
		assert.Equal(t, OutboxEventStatusPending, event.Status)
		assert.Zero(t, event.Retries)
		assert.Equal(t, now, event.CreatedAt)
	})

	t.Run("requires event type", func(t *testing.T) {
		_, err := NewOutboxEvent("", nil, now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("unencodable payload", func(t *testing.T) {
		_, err := NewOutboxEvent(EventTypeEncryptionCompleted, make(chan int), now)
		assert.Error(t, err)
	})
}

func TestOutboxEvent_Transitions(t *testing.T) {
	now := time.Now().UTC()

	t.Run("processed", func(t *testing.T) {
		event := &OutboxEvent{Status: OutboxEventStatusPending}
		event.MarkProcessed(now)

		assert.Equal(t, OutboxEventStatusProcessed, event.Status)
		require.NotNil(t, event.ProcessedAt)
		assert.Equal(t, now, *event.ProcessedAt)
	})

	t.Run("failed stays pending until max retries", func(t *testing.T) {
		event := &OutboxEvent{Status: OutboxEventStatusPending}
		cause := errors.New("smtp down")

		event.MarkFailed(cause, 2, now)
		assert.Equal(t, OutboxEventStatusPending, event.Status)
		assert.Equal(t, 1, event.Retries)
		require.NotNil(t, event.LastError)
		assert.Equal(t, "smtp down", *event.LastError)

		event.MarkFailed(cause, 2, now)
		assert.Equal(t, OutboxEventStatusFailed, event.Status)
		assert.Equal(t, 2, event.Retries)
	})
}
