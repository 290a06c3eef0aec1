package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	customerDomain "github.com/allisson/piicrypt/internal/customer/domain"
)

// Dispatcher partitions records into batches and enqueues one job per batch.
type Dispatcher interface {
	Dispatch(ctx context.Context, records []customerDomain.CustomerRecord) ([]uuid.UUID, error)
}

// RunEnqueue reads a JSON array of customer records and enqueues them as batch
// jobs. Workers started with the worker command pick them up.
func RunEnqueue(
	ctx context.Context,
	dispatcher Dispatcher,
	logger *slog.Logger,
	streams IOTuple,
	format string,
) error {
	records, err := readRecords(streams.Reader)
	if err != nil {
		return err
	}

	jobIDs, err := dispatcher.Dispatch(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to enqueue batches: %w", err)
	}

	logger.Info("records enqueued",
		slog.Int("records", len(records)),
		slog.Int("jobs", len(jobIDs)),
	)

	if format == "json" {
		return writeJSON(streams.Writer, map[string]any{
			"records": len(records),
			"jobs":    len(jobIDs),
			"job_ids": jobIDs,
		})
	}

	_, err = fmt.Fprintf(streams.Writer, "Enqueued %d record(s) as %d job(s)\n", len(records), len(jobIDs))
	return err
}
