package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	encryptionDomain "github.com/allisson/piicrypt/internal/encryption/domain"
)

// PoolRunner runs worker pool until it is stopped.
type PoolRunner interface {
	Run(ctx context.Context) error
}

// ProgressSource exposes pipeline progress.
type ProgressSource interface {
	Snapshot() encryptionDomain.Progress
}

// RunPipeline enqueues the records read from streams.Reader and works the queue in
// this process until every dispatched batch is terminal. The pool must be
// configured to stop when done. Dead-lettered batches do not fail the command;
// they are listed in the printed summary.
func RunPipeline(
	ctx context.Context,
	dispatcher Dispatcher,
	pool PoolRunner,
	progress ProgressSource,
	logger *slog.Logger,
	streams IOTuple,
	format string,
) error {
	records, err := readRecords(streams.Reader)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobIDs, err := dispatcher.Dispatch(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to enqueue batches: %w", err)
	}

	// Nothing was registered, so the pool would never see completion.
	if len(jobIDs) > 0 {
		if err := pool.Run(ctx); err != nil {
			return fmt.Errorf("worker pool failed: %w", err)
		}
	}

	snapshot := progress.Snapshot()
	logger.Info("pipeline finished",
		slog.Int("records", len(records)),
		slog.Int("completed", snapshot.Completed),
		slog.Int("failed", snapshot.Failed),
	)

	return outputProgress(streams.Writer, snapshot, format)
}

func outputProgress(w io.Writer, p encryptionDomain.Progress, format string) error {
	if format == "json" {
		return writeJSON(w, p)
	}

	_, err := fmt.Fprintf(w,
		"Batches: %d total, %d completed, %d failed, %d pending (%.1f%%)\nRecords encrypted: %d\nRetries: %d\n",
		p.Total, p.Completed, p.Failed, p.Pending, p.Percent(), p.RecordsEncrypted, p.Retries,
	)
	if err != nil {
		return err
	}
	if len(p.FailedBatches) > 0 {
		if _, err := fmt.Fprintf(w, "Failed batches: %v\n", p.FailedBatches); err != nil {
			return err
		}
	}
	if p.Untracked > 0 {
		_, err = fmt.Fprintf(w, "Jobs from earlier runs finished: %d\n", p.Untracked)
	}
	return err
}
