package repo

import (
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/tree"
	"onegov.dev/electionday/internal/util/plausibility"
)

func Module() fx.Option {
	return fx.Module("repo", fx.Provide(
		NewElection,
		NewResults,
		NewPage,
		NewPlausibilityRule,
		func(r *Page) tree.Store { return r },
		func(r *PlausibilityRule) plausibility.RuleSource { return r },
	))
}
