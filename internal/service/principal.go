package service

import (
	"github.com/rs/zerolog/log"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/principal"
)

func NewPrincipal(conf *appconfig.Config) (*principal.Principal, error) {
	p, err := principal.LoadFile(conf.PrincipalFile)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("evt.name", "principal.loaded").
		Str("principal", p.ID).
		Str("domain", p.Domain).
		Int("years", len(p.Entities)).
		Msg("principal definition loaded")
	return p, nil
}
