package usecase

import (
	"context"
	"errors"
	"log/slog"
)

// LogNotifier emits the completion signal as a structured log line.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the summary at warn level when any batch was dead-lettered.
func (n *LogNotifier) Notify(ctx context.Context, summary Summary) error {
	level := slog.LevelInfo
	if summary.Failed > 0 {
		level = slog.LevelWarn
	}

	n.logger.Log(ctx, level, "encryption completed",
		slog.Int("total", summary.Total),
		slog.Int("completed", summary.Completed),
		slog.Int("failed", summary.Failed),
		slog.Any("failed_batches", summary.FailedBatches),
		slog.Int("records_encrypted", summary.RecordsEncrypted),
		slog.Duration("duration", summary.Duration),
	)
	return nil
}

// MultiNotifier fans the completion signal out to several notifiers. Every
// notifier runs even when an earlier one fails; the errors are joined.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a MultiNotifier calling notifiers in order.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify calls every notifier with summary.
func (n *MultiNotifier) Notify(ctx context.Context, summary Summary) error {
	var errs []error
	for _, notifier := range n.notifiers {
		if err := notifier.Notify(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
