// Package domain defines the outbox event entity used to publish pipeline
// notifications in the same transaction that records them.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/piicrypt/internal/errors"
)

// EventTypeEncryptionCompleted is emitted once per pipeline run when every batch is terminal.
const EventTypeEncryptionCompleted = "encryption.completed"

// ErrEmptyEventType indicates an event was created without a type.
var ErrEmptyEventType = errors.Wrap(errors.ErrInvalidInput, "outbox event type is required")

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// OutboxEvent represents an event in the transactional outbox pattern
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOutboxEvent builds a pending event with a time-ordered id and payload
// encoded as JSON.
func NewOutboxEvent(eventType string, payload any, now time.Time) (*OutboxEvent, error) {
	if eventType == "" {
		return nil, ErrEmptyEventType
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode outbox payload")
	}

	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(data),
		Status:    OutboxEventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkProcessed records a successful delivery.
func (e *OutboxEvent) MarkProcessed(now time.Time) {
	e.Status = OutboxEventStatusProcessed
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records a failed delivery. The event stays pending until
// maxRetries deliveries have failed.
func (e *OutboxEvent) MarkFailed(cause error, maxRetries int, now time.Time) {
	e.Retries++
	msg := cause.Error()
	e.LastError = &msg
	e.UpdatedAt = now
	if e.Retries >= maxRetries {
		e.Status = OutboxEventStatusFailed
	}
}
