package service

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("service", fx.Provide(
		NewPage,
		NewMail,
		NewImport,
		NewHealth,
		NewArchive,
		NewElection,
		NewPrincipal,
		NewTransport,
	))
}
