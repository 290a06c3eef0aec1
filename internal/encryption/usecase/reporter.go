package usecase

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/piicrypt/internal/encryption/domain"
)

// batchState is the sticky terminal state of one registered job.
type batchState struct {
	batchIndex int
	outcome    domain.Outcome
	records    int
}

// Reporter aggregates job results per job id. Once every registered job is
// terminal it calls the notifier exactly once. Batch indexes repeat across
// dispatches, so they only label results. Results for jobs that were never
// registered (another process dispatched them) are counted apart and never
// count towards completion.
type Reporter struct {
	notifier Notifier
	logger   *slog.Logger
	logEvery int

	mu           sync.Mutex
	batches      map[uuid.UUID]*batchState
	unregistered map[uuid.UUID]*batchState
	terminal     int
	retries      int
	startedAt    time.Time
	finishedAt   *time.Time
	done         chan struct{}
	notified     bool
}

// NewReporter creates a Reporter. Progress is logged every logEvery terminal
// batches; zero disables progress logging.
func NewReporter(notifier Notifier, logger *slog.Logger, logEvery int) *Reporter {
	return &Reporter{
		notifier:     notifier,
		logger:       logger,
		logEvery:     logEvery,
		batches:      make(map[uuid.UUID]*batchState),
		unregistered: make(map[uuid.UUID]*batchState),
		startedAt:    time.Now().UTC(),
		done:         make(chan struct{}),
	}
}

// Register starts tracking jobs. Jobs registered after the completion signal
// fired are ignored.
func (r *Reporter) Register(ctx context.Context, refs ...domain.BatchRef) {
	r.mu.Lock()

	if r.notified {
		r.mu.Unlock()
		r.logger.Warn("ignoring batches registered after completion", slog.Int("count", len(refs)))
		return
	}

	for _, ref := range refs {
		if _, ok := r.batches[ref.JobID]; ok {
			continue
		}
		if state, ok := r.unregistered[ref.JobID]; ok {
			delete(r.unregistered, ref.JobID)
			r.batches[ref.JobID] = state
			if state.outcome.IsTerminal() {
				r.terminal++
			}
			continue
		}
		r.batches[ref.JobID] = &batchState{batchIndex: ref.BatchIndex}
	}

	summary, fire := r.completeLocked()
	r.mu.Unlock()

	if fire {
		r.notify(ctx, summary)
	}
}

// Record applies a worker result. Terminal states are sticky: a duplicate or
// late result for a finished job changes nothing.
func (r *Reporter) Record(ctx context.Context, result domain.JobResult) {
	r.mu.Lock()

	if !result.Outcome.IsTerminal() {
		r.retries++
		r.mu.Unlock()
		return
	}

	state, registered := r.batches[result.JobID]
	if !registered {
		state = r.unregistered[result.JobID]
		if state == nil {
			state = &batchState{batchIndex: result.BatchIndex}
			r.unregistered[result.JobID] = state
		}
	}
	if state.outcome.IsTerminal() {
		r.mu.Unlock()
		return
	}

	state.outcome = result.Outcome
	state.records = result.Records
	if registered {
		r.terminal++
	}

	progress := r.snapshotLocked()
	if r.logEvery > 0 && registered && (r.terminal%r.logEvery == 0 || r.terminal == len(r.batches)) {
		r.logger.Info("encryption progress",
			slog.Int("terminal", progress.Completed+progress.Failed),
			slog.Int("total", progress.Total),
			slog.Int("failed", progress.Failed),
			slog.Float64("percent", progress.Percent()),
		)
	}

	var summary Summary
	var fire bool
	if registered {
		summary, fire = r.completeLocked()
	}
	r.mu.Unlock()

	if fire {
		r.notify(ctx, summary)
	}
}

// completeLocked flips the reporter to notified when every registered job
// is terminal. It returns true at most once.
func (r *Reporter) completeLocked() (Summary, bool) {
	if r.notified || len(r.batches) == 0 || r.terminal != len(r.batches) {
		return Summary{}, false
	}

	r.notified = true
	now := time.Now().UTC()
	r.finishedAt = &now

	progress := r.snapshotLocked()
	return Summary{
		Total:            progress.Total,
		Completed:        progress.Completed,
		Failed:           progress.Failed,
		RecordsEncrypted: progress.RecordsEncrypted,
		FailedBatches:    progress.FailedBatches,
		Duration:         now.Sub(r.startedAt),
	}, true
}

func (r *Reporter) notify(ctx context.Context, summary Summary) {
	defer close(r.done)

	r.logger.Info("all batches terminal",
		slog.Int("completed", summary.Completed),
		slog.Int("failed", summary.Failed),
		slog.Int("records_encrypted", summary.RecordsEncrypted),
		slog.Duration("duration", summary.Duration),
	)

	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(context.WithoutCancel(ctx), summary); err != nil {
		r.logger.Error("failed to send completion notification", slog.Any("error", err))
	}
}

// Snapshot returns current progress.
func (r *Reporter) Snapshot() domain.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// snapshotLocked counts registered jobs only, so Completed+Failed never
// exceeds Total. Terminal results for unregistered jobs go to Untracked.
func (r *Reporter) snapshotLocked() domain.Progress {
	p := domain.Progress{
		Total:         len(r.batches),
		Retries:       r.retries,
		StartedAt:     r.startedAt,
		FinishedAt:    r.finishedAt,
		FailedBatches: []int{},
	}

	for _, s := range r.batches {
		switch s.outcome {
		case domain.OutcomeCompleted:
			p.Completed++
			p.RecordsEncrypted += s.records
		case domain.OutcomeFailed:
			p.Failed++
			p.FailedBatches = append(p.FailedBatches, s.batchIndex)
		}
	}
	p.Pending = p.Total - p.Completed - p.Failed
	for _, s := range r.unregistered {
		if s.outcome.IsTerminal() {
			p.Untracked++
		}
	}

	sort.Ints(p.FailedBatches)
	p.Done = p.Total > 0 && p.Pending == 0
	return p
}

// Done reports whether every registered job is terminal.
func (r *Reporter) Done() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until every registered job is terminal and the notifier ran,
// or until ctx is done.
func (r *Reporter) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
