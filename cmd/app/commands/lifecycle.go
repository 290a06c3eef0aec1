package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// service is a long-running server with graceful shutdown.
type service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// loop is a background task that runs until its context is cancelled.
type loop func(ctx context.Context) error

// runUntilStopped runs services and loops until SIGINT/SIGTERM, cancellation
// of ctx or the first failure. Services are then shut down within
// shutdownTimeout. A loop returning context.Canceled is a clean stop.
func runUntilStopped(
	ctx context.Context,
	logger *slog.Logger,
	shutdownTimeout time.Duration,
	services []service,
	loops ...loop,
) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	for _, s := range services {
		g.Go(func() error {
			return s.Start(gctx)
		})
	}

	for _, l := range loops {
		g.Go(func() error {
			if err := l(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var shutdownErrors []error
		for _, s := range services {
			if err := s.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("shutdown: %w", err))
			}
		}
		return errors.Join(shutdownErrors...)
	})

	return g.Wait()
}
