package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/allisson/piicrypt/internal/app"
)

// RunServer starts the admin API and, when enabled, the metrics server.
// Blocks until receiving SIGINT/SIGTERM or encountering a fatal error. On shutdown
// signal, gracefully stops the servers within DBConnMaxLifetime timeout.
func RunServer(ctx context.Context, container *app.Container, version string) error {
	cfg := container.Config()
	logger := container.Logger()

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	logger.Info("starting server", slog.String("version", version))

	services, err := httpServices(container)
	if err != nil {
		return err
	}

	return runUntilStopped(ctx, logger, cfg.DBConnMaxLifetime, services)
}

// httpServices returns the admin server plus the metrics server when metrics
// are enabled.
func httpServices(container *app.Container) ([]service, error) {
	server, err := container.HTTPServer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	services := []service{server}

	if container.Config().MetricsEnabled {
		metricsServer, err := container.MetricsServer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics server: %w", err)
		}
		services = append(services, metricsServer)
	}

	return services, nil
}
