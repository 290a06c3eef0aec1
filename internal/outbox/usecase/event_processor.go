package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	encryptionUsecase "github.com/allisson/piicrypt/internal/encryption/usecase"
	"github.com/allisson/piicrypt/internal/outbox/domain"
)

// DefaultEventProcessor delivers pipeline events as structured operator alerts.
type DefaultEventProcessor struct {
	logger *slog.Logger
}

// NewDefaultEventProcessor creates a new DefaultEventProcessor
func NewDefaultEventProcessor(logger *slog.Logger) *DefaultEventProcessor {
	return &DefaultEventProcessor{
		logger: logger,
	}
}

// Process handles one event. Unknown event types are logged and acknowledged.
func (p *DefaultEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	switch event.EventType {
	case domain.EventTypeEncryptionCompleted:
		var summary encryptionUsecase.Summary
		if err := json.Unmarshal([]byte(event.Payload), &summary); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.EventType, err)
		}

		level := slog.LevelInfo
		if summary.Failed > 0 {
			level = slog.LevelWarn
		}
		p.logger.LogAttrs(ctx, level, "encryption run finished",
			slog.String("event_id", event.ID.String()),
			slog.Int("total", summary.Total),
			slog.Int("completed", summary.Completed),
			slog.Int("failed", summary.Failed),
			slog.Int("records_encrypted", summary.RecordsEncrypted),
			slog.Any("failed_batches", summary.FailedBatches),
			slog.Duration("duration", summary.Duration),
		)
	default:
		p.logger.Warn("unknown event type", slog.String("event_type", event.EventType))
	}

	return nil
}
