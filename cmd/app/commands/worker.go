package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/allisson/piicrypt/internal/app"
)

// RunWorker consumes the job queue until SIGINT/SIGTERM. Outstanding batches
// are registered first so this process can raise the completion signal for a
// run enqueued elsewhere. The outbox relay and the admin and metrics servers
// run alongside the pool.
func RunWorker(ctx context.Context, container *app.Container, version string) error {
	cfg := container.Config()
	logger := container.Logger()

	gin.SetMode(cfg.GetGinMode())

	logger.Info("starting worker", slog.String("version", version))

	dispatcher, err := container.Dispatcher()
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	if _, err := dispatcher.Resume(ctx); err != nil {
		return fmt.Errorf("failed to resume outstanding batches: %w", err)
	}

	pool, err := container.WorkerPool(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to initialize worker pool: %w", err)
	}

	relay, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox relay: %w", err)
	}

	services, err := httpServices(container)
	if err != nil {
		return err
	}

	return runUntilStopped(ctx, logger, cfg.DBConnMaxLifetime, services, pool.Run, relay.Start)
}
