package commands

import (
	"context"
	"fmt"
	"io"

	jobDomain "github.com/allisson/piicrypt/internal/job/domain"
)

// StatsReader reports job counts per status.
type StatsReader interface {
	Stats(ctx context.Context) (map[jobDomain.Status]int, error)
}

// RunQueueStats prints the number of jobs in every status.
func RunQueueStats(ctx context.Context, queue StatsReader, w io.Writer, format string) error {
	stats, err := queue.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue stats: %w", err)
	}

	total := 0
	statuses := make(map[string]int, len(jobDomain.Statuses))
	for _, status := range jobDomain.Statuses {
		statuses[string(status)] = stats[status]
		total += stats[status]
	}

	if format == "json" {
		return writeJSON(w, map[string]any{"total": total, "statuses": statuses})
	}

	for _, status := range jobDomain.Statuses {
		if _, err := fmt.Fprintf(w, "%-10s %d\n", status, stats[status]); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "%-10s %d\n", "total", total)
	return err
}
