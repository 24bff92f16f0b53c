package server

import (
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/server/httpserver"
	"onegov.dev/electionday/internal/server/svr"
)

func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(httpserver.Create),
		fx.Provide(svr.CreateEndpointGroups))
}
