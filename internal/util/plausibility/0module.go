package plausibility

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module("plausibility", fx.Provide(
		NewBallotVerifier,
		NewMandateVerifier,
		NewRuleVerifier,
		NewChain,
	))
}
