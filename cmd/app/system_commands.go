package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/piicrypt/cmd/app/commands"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the admin HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(false)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunServer(ctx, container, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(false)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				cfg := container.Config()
				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "queue-stats",
			Usage: "Show the number of jobs per status",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(false)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				queue, err := container.JobQueue()
				if err != nil {
					return err
				}

				return commands.RunQueueStats(ctx, queue, commands.DefaultIO().Writer, cmd.String("format"))
			},
		},
		{
			Name:  "outbox-relay",
			Usage: "Deliver pending outbox events",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(false)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				relay, err := container.OutboxUseCase()
				if err != nil {
					return err
				}

				return commands.RunOutboxRelay(ctx, relay, container.Logger())
			},
		},
	}
}
