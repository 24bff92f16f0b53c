package server

import (
	"context"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/app"
	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/app/appcontext"
)

// Run blocks until the process is signaled to stop.
func Run() {
	app.New(appcontext.Declare(appcontext.EnvServer), fx.Invoke(run)).Run()
}

func run(serverApp *fiber.App, conf *appconfig.Config, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", conf.ServiceAddress)
			if err != nil {
				return err
			}

			log.Info().
				Str("evt.name", "server.listening").
				Str("address", ln.Addr().String()).
				Msg("server listening")

			go func() {
				if err := serverApp.Listener(ln); err != nil {
					log.Error().Err(err).Msg("server terminated unexpectedly")
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if conf.DevMode {
				return nil
			}
			return serverApp.Shutdown()
		},
	})
}
