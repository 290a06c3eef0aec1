// Package domain defines the job entity of the lease-based queue together with
// its state machine. Every repository persists the result of these transitions
// so the lifecycle rules live in one place.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusDelayed   Status = "delayed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusWaiting, StatusActive, StatusDelayed, StatusCompleted, StatusFailed}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	for _, status := range Statuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job wraps one payload in the queue.
type Job struct {
	// ID is assigned by the queue at enqueue time.
	ID uuid.UUID
	// Payload is the JSON-encoded batch.
	Payload json.RawMessage
	// BatchIndex duplicates the payload index for logging and filtering.
	BatchIndex int
	Status     Status
	// Attempts counts finished deliveries, failed or completed.
	Attempts    int
	MaxAttempts int
	// WorkerID identifies the current or last lease holder.
	WorkerID string
	// LeaseExpiresAt is set while the job is active.
	LeaseExpiresAt *time.Time
	// AvailableAt is when a delayed job becomes eligible for lease again.
	AvailableAt time.Time
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewJob builds a waiting job with a fresh UUIDv7.
func NewJob(payload json.RawMessage, batchIndex, maxAttempts int, now time.Time) *Job {
	return &Job{
		ID:          uuid.Must(uuid.NewV7()),
		Payload:     payload,
		BatchIndex:  batchIndex,
		Status:      StatusWaiting,
		MaxAttempts: maxAttempts,
		AvailableAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsLeasable reports whether the job may be handed to a worker at now.
func (j *Job) IsLeasable(now time.Time) bool {
	switch j.Status {
	case StatusWaiting:
		return true
	case StatusDelayed:
		return !j.AvailableAt.After(now)
	}
	return false
}

// IsExpired reports whether an active lease ran out at now.
func (j *Job) IsExpired(now time.Time) bool {
	return j.Status == StatusActive && j.LeaseExpiresAt != nil && !j.LeaseExpiresAt.After(now)
}

// Lease marks the job active for workerID until now+duration.
func (j *Job) Lease(workerID string, duration time.Duration, now time.Time) error {
	if !j.IsLeasable(now) {
		return fmt.Errorf("%w: cannot lease %s job", ErrInvalidTransition, j.Status)
	}
	expires := now.Add(duration)
	j.Status = StatusActive
	j.WorkerID = workerID
	j.LeaseExpiresAt = &expires
	j.UpdatedAt = now
	return nil
}

// CheckLease fails with ErrInvalidTransition when the job is active under a
// lease held by another worker.
func (j *Job) CheckLease(workerID string) error {
	if j.Status == StatusActive && j.WorkerID != workerID {
		return fmt.Errorf("%w: lease held by %s, not %s", ErrInvalidTransition, j.WorkerID, workerID)
	}
	return nil
}

// Complete marks the job completed and counts the successful attempt.
// Completing a completed job is a no-op and returns false.
func (j *Job) Complete(now time.Time) (bool, error) {
	switch j.Status {
	case StatusCompleted:
		return false, nil
	case StatusActive:
		j.Attempts++
		j.Status = StatusCompleted
		j.LeaseExpiresAt = nil
		j.UpdatedAt = now
		return true, nil
	}
	return false, fmt.Errorf("%w: cannot complete %s job", ErrInvalidTransition, j.Status)
}

// Fail records one failed attempt. A retryable cause below the attempt ceiling
// delays the job by backoff; otherwise the job is dead-lettered. Failing a
// terminal job is a no-op and returns false.
func (j *Job) Fail(cause error, retryable bool, backoff Backoff, now time.Time) (bool, error) {
	if j.Status.IsTerminal() {
		return false, nil
	}
	if j.Status != StatusActive {
		return false, fmt.Errorf("%w: cannot fail %s job", ErrInvalidTransition, j.Status)
	}

	j.Attempts++
	if cause != nil {
		msg := cause.Error()
		j.LastError = &msg
	}
	j.LeaseExpiresAt = nil
	j.UpdatedAt = now

	if retryable && j.Attempts < j.MaxAttempts {
		j.Status = StatusDelayed
		j.AvailableAt = now.Add(backoff.Delay(j.Attempts))
		return true, nil
	}

	j.Status = StatusFailed
	return true, nil
}

// Backoff computes the retry delay for a given attempt count.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns Base * 2^(attempts-1), capped at Max when Max is positive.
func (b Backoff) Delay(attempts int) time.Duration {
	if attempts < 1 || b.Base <= 0 {
		return 0
	}
	delay := b.Base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if b.Max > 0 && delay >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && delay > b.Max {
		return b.Max
	}
	return delay
}

// NewJobParams describes one job to admit through bulk enqueue.
type NewJobParams struct {
	BatchIndex int
	Payload    json.RawMessage
}
