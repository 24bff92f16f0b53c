package dbcmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	cliapp "onegov.dev/electionday/cmd/app/cli"
	"onegov.dev/electionday/internal/repo"
)

type CommandDeps struct {
	fx.In

	DB *bun.DB
}

func Command() *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "database maintenance",
		Subcommands: []*cli.Command{
			{
				Name:        "init",
				Usage:       "create missing tables and indexes",
				Description: "creates the tables and indexes that do not exist yet; existing ones are left untouched",
				Action: func(c *cli.Context) error {
					return cliapp.Run(c.Context, func(ctx context.Context, deps CommandDeps) error {
						if err := repo.CreateSchema(ctx, deps.DB); err != nil {
							return err
						}
						log.Info().Str("evt.name", "db.init.finished").Msg("database schema is up to date")
						return nil
					})
				},
			},
		},
	}
}
