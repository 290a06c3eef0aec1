package commands

import (
	"context"
	"log/slog"
	"time"

	outboxUsecase "github.com/allisson/piicrypt/internal/outbox/usecase"
)

// RunOutboxRelay delivers pending outbox events until SIGINT/SIGTERM.
func RunOutboxRelay(ctx context.Context, relay outboxUsecase.UseCase, logger *slog.Logger) error {
	logger.Info("starting outbox relay command")
	return runUntilStopped(ctx, logger, time.Second, nil, relay.Start)
}
