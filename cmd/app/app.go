package app

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"onegov.dev/electionday/cmd/app/cli/dbcmd"
	"onegov.dev/electionday/cmd/app/cli/importcmd"
	"onegov.dev/electionday/cmd/app/cli/mailcmd"
	"onegov.dev/electionday/cmd/app/server"
	"onegov.dev/electionday/internal/pkg/bininfo"
)

func Run() {
	app := &cli.App{
		Name:        "electionday",
		Description: "Publishes election results: imports Wabsti and WabstiC exports, tallies them and serves them over HTTP. Built with Go, fiber, bun and go.uber.org/fx. Uses NATS as MQ and Redis as state synchronization.",
		Version:     bininfo.Version,
		Commands: []*cli.Command{
			server.Command(),
			importcmd.Command(),
			mailcmd.Command(),
			dbcmd.Command(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
