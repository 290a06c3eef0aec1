package domain

import (
	"github.com/allisson/piicrypt/internal/errors"
)

// Encryption pipeline error definitions.
var (
	// ErrInvalidPayload indicates a job payload that does not decode into a batch.
	// Decoding fails identically on every attempt, so it is never retried.
	ErrInvalidPayload = errors.Permanent(errors.New("invalid batch payload"))

	// ErrInvalidBatchSize indicates a non-positive partition size.
	ErrInvalidBatchSize = errors.Wrap(errors.ErrInvalidInput, "batch size must be positive")
)
