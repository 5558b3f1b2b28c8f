package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/betshield/betshield-api/cmd/app/commands"
	"github.com/betshield/betshield-api/internal/app"
	"github.com/betshield/betshield-api/internal/config"
)

func getCommands(version string) []*cli.Command {
	return append(getSystemCommands(version), getUserCommands()...)
}

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Serve the auth API (and /metrics when enabled) until interrupted",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply the embedded schema migrations to DB_CONNECTION_STRING",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "steps",
					Value: 0,
					Usage: "Number of migrations to apply (negative rolls back, 0 applies all pending)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer closeContainer(ctx, container)

				return commands.RunMigrations(
					container.Logger(),
					cfg.DBDriver,
					cfg.DBConnectionString,
					int(cmd.Int("steps")),
				)
			},
		},
	}
}

func closeContainer(ctx context.Context, container *app.Container) {
	if err := container.Shutdown(context.WithoutCancel(ctx)); err != nil {
		container.Logger().Warn("container shutdown failed", slog.Any("error", err))
	}
}
