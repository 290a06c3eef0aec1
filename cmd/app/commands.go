package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/piicrypt/internal/app"
	"github.com/allisson/piicrypt/internal/config"
	customValidation "github.com/allisson/piicrypt/internal/validation"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getPipelineCommands(version)...)
	return cmds
}

// newContainer loads configuration and builds the DI container. Commands that
// derive the field key or lease jobs pass validate so a bad configuration
// aborts before any work starts.
func newContainer(validate bool) (*app.Container, error) {
	cfg := config.Load()
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", customValidation.WrapValidationError(err))
		}
	}
	return app.NewContainer(cfg), nil
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}
