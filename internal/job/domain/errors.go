package domain

import (
	"github.com/allisson/piicrypt/internal/errors"
)

// Job-specific error definitions.
var (
	// ErrJobNotFound indicates no job exists with the given id.
	ErrJobNotFound = errors.Wrap(errors.ErrNotFound, "job not found")

	// ErrInvalidTransition indicates a state change the job lifecycle does not allow.
	ErrInvalidTransition = errors.Wrap(errors.ErrConflict, "invalid job state transition")

	// ErrLeaseExpired is the failure recorded when a lease runs out without ack or fail.
	ErrLeaseExpired = errors.New("job lease expired")

	// ErrInvalidStatus indicates an unknown status filter.
	ErrInvalidStatus = errors.Wrap(errors.ErrInvalidInput, "invalid job status")
)
