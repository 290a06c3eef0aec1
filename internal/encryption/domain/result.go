package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is what a worker iteration did with one job.
type Outcome string

const (
	// OutcomeCompleted means the batch was encrypted, persisted and acked.
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed means the job was dead-lettered.
	OutcomeFailed Outcome = "failed"
	// OutcomeRetrying means the job will be delivered again.
	OutcomeRetrying Outcome = "retrying"
)

// IsTerminal reports whether the batch will not be delivered again.
func (o Outcome) IsTerminal() bool {
	return o == OutcomeCompleted || o == OutcomeFailed
}

// BatchRef ties a queued job to the batch it carries.
type BatchRef struct {
	JobID      uuid.UUID
	BatchIndex int
}

// JobResult is the value each worker iteration hands to the reporter.
type JobResult struct {
	JobID      uuid.UUID
	BatchIndex int
	Outcome    Outcome
	// Records is the number of records encrypted, zero unless completed.
	Records  int
	Attempts int
	Err      error
	Duration time.Duration
}

// Progress is a snapshot of pipeline completion. Batch counters cover
// registered jobs only; Untracked counts terminal results for jobs this
// process never registered.
type Progress struct {
	Total            int        `json:"total"`
	Completed        int        `json:"completed"`
	Failed           int        `json:"failed"`
	Pending          int        `json:"pending"`
	Retries          int        `json:"retries"`
	RecordsEncrypted int        `json:"records_encrypted"`
	FailedBatches    []int      `json:"failed_batches"`
	Untracked        int        `json:"untracked"`
	Done             bool       `json:"done"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// Percent returns terminal batches over registered batches, 0 when none.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed+p.Failed) * 100 / float64(p.Total)
}
