package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/piicrypt/cmd/app/commands"
)

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Required: true,
		Usage:    "JSON file with an array of customer records ('-' for stdin)",
	}
}

func getPipelineCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "enqueue",
			Usage: "Split customer records into batches and enqueue one job per batch",
			Flags: []cli.Flag{inputFlag(), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(false)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				dispatcher, err := container.Dispatcher()
				if err != nil {
					return err
				}

				input, err := commands.OpenInput(cmd.String("input"))
				if err != nil {
					return err
				}
				defer func() { _ = input.Close() }()

				streams := commands.IOTuple{Reader: input, Writer: commands.DefaultIO().Writer}
				return commands.RunEnqueue(ctx, dispatcher, container.Logger(), streams, cmd.String("format"))
			},
		},
		{
			Name:  "worker",
			Usage: "Consume the job queue and encrypt batches until stopped",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(true)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunWorker(ctx, container, version)
			},
		},
		{
			Name:  "run",
			Usage: "Enqueue customer records and encrypt them in this process until every batch is done",
			Flags: []cli.Flag{inputFlag(), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(true)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				dispatcher, err := container.Dispatcher()
				if err != nil {
					return err
				}
				pool, err := container.WorkerPool(ctx, true)
				if err != nil {
					return err
				}
				reporter, err := container.Reporter()
				if err != nil {
					return err
				}

				input, err := commands.OpenInput(cmd.String("input"))
				if err != nil {
					return err
				}
				defer func() { _ = input.Close() }()

				streams := commands.IOTuple{Reader: input, Writer: commands.DefaultIO().Writer}
				if err := commands.RunPipeline(
					ctx,
					dispatcher,
					pool,
					reporter,
					container.Logger(),
					streams,
					cmd.String("format"),
				); err != nil {
					return err
				}

				// Deliver the completion event written by the reporter.
				relay, err := container.OutboxUseCase()
				if err != nil {
					return err
				}
				return relay.ProcessEvents(ctx)
			},
		},
		{
			Name:  "decrypt",
			Usage: "Decrypt a single envelope or a whole output batch",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "envelope",
					Aliases: []string{"e"},
					Usage:   "Envelope in the form b64(ct)_b64(nonce)_b64(tag)",
				},
				&cli.IntFlag{
					Name:    "batch",
					Aliases: []string{"b"},
					Value:   -1,
					Usage:   "Index of an output batch to decrypt",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(true)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				encryptor, err := container.FieldEncryptor(ctx)
				if err != nil {
					return err
				}

				out := commands.DefaultIO().Writer
				if batchIndex := int(cmd.Int("batch")); batchIndex >= 0 {
					batchRepo, err := container.BatchRepository(ctx)
					if err != nil {
						return err
					}
					return commands.RunDecryptBatch(ctx, encryptor, batchRepo, out, batchIndex)
				}

				return commands.RunDecrypt(ctx, encryptor, out, cmd.String("envelope"))
			},
		},
	}
}
