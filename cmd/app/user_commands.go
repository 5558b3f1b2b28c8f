package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/betshield/betshield-api/cmd/app/commands"
	"github.com/betshield/betshield-api/internal/app"
	"github.com/betshield/betshield-api/internal/config"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func getUserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-user",
			Usage: "Create an account (use --role admin to seed an administrator)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Display name",
				},
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Login email",
				},
				&cli.StringFlag{
					Name:    "password",
					Aliases: []string{"p"},
					Usage:   "Password (omit to be prompted)",
				},
				&cli.StringFlag{
					Name:    "role",
					Aliases: []string{"r"},
					Value:   "user",
					Usage:   "Role: 'user' or 'admin'",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer closeContainer(ctx, container)

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateUser(
					ctx,
					userUseCase,
					container.Logger(),
					cmd.String("name"),
					cmd.String("email"),
					cmd.String("password"),
					cmd.String("role"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "set-user-role",
			Usage: "Change the role of an existing account",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Login email of the account",
				},
				&cli.StringFlag{
					Name:     "role",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Role: 'user' or 'admin'",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer closeContainer(ctx, container)

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}

				return commands.RunSetUserRole(
					ctx,
					userUseCase,
					container.Logger(),
					cmd.String("email"),
					cmd.String("role"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
	}
}
