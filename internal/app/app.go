package app

import (
	"time"

	"go.uber.org/fx"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/app/appcontext"
	"onegov.dev/electionday/internal/controller"
	"onegov.dev/electionday/internal/infra"
	"onegov.dev/electionday/internal/pkg/logger"
	"onegov.dev/electionday/internal/repo"
	"onegov.dev/electionday/internal/server"
	"onegov.dev/electionday/internal/service"
	"onegov.dev/electionday/internal/util/plausibility"
	"onegov.dev/electionday/internal/workers/importwkr"
	"onegov.dev/electionday/internal/workers/mailwkr"
)

func Options(ctx appcontext.Ctx, additionalOpts ...fx.Option) []fx.Option {
	conf, err := appconfig.Parse(ctx)
	if err != nil {
		panic(err)
	}

	// logger and configuration are the only two things that are not in the fx graph
	// because some other packages need them to be initialized before fx starts
	logger.Configure(conf)

	return append(BaseOptions(conf), additionalOpts...)
}

// BaseOptions assembles the graph for an already parsed configuration. CLI
// runs only get the providers, so nothing is connected unless a command
// asks for it.
func BaseOptions(conf *appconfig.Config) []fx.Option {
	opts := []fx.Option{
		// fx meta
		fx.WithLogger(logger.Fx),

		// Misc
		fx.Supply(conf),

		// Infrastructures
		infra.Module(),

		// Verifiers
		plausibility.Module(),

		// Repositories
		repo.Module(),

		// Services
		service.Module(),

		// Global Singleton Inits: Keep those before controllers to ensure they are initialized
		// before controllers are registered as controllers are also fx#Invoke functions which
		// are called in the order of their registration.
		fx.Invoke(infra.SentryInit),
	}

	if conf.AppContext.Env == appcontext.EnvServer {
		opts = append(opts,
			// Servers
			server.Module(),

			// Controllers
			controller.Module(),
		)
	}

	if conf.AppContext.RunsWorkers() {
		opts = append(opts,
			// Workers
			fx.Invoke(importwkr.Start),
			fx.Invoke(mailwkr.Start),
		)
	}

	return append(opts,
		// fx Extra Options
		fx.StartTimeout(10*time.Second),
		// StopTimeout is not typically needed, since we're using fiber's Shutdown(),
		// in which fiber has its own IdleTimeout for controlling the shutdown timeout.
		// It acts as a countermeasure in case the fiber app is not properly shutting down.
		fx.StopTimeout(5*time.Minute),
	)
}

func New(ctx appcontext.Ctx, additionalOpts ...fx.Option) *fx.App {
	return fx.New(Options(ctx, additionalOpts...)...)
}
