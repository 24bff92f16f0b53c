package cli

import (
	"context"

	"go.uber.org/fx"

	"onegov.dev/electionday/internal/app"
	"onegov.dev/electionday/internal/app/appcontext"
)

// Run starts the CLI graph, populates deps and runs fn with them. The graph
// is stopped afterwards, so connections are closed before the process exits.
func Run[T any](ctx context.Context, fn func(ctx context.Context, deps T) error) error {
	var deps T
	fxApp := app.New(appcontext.Declare(appcontext.EnvCLI), fx.Populate(&deps))
	if err := fxApp.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = fxApp.Stop(context.Background())
	}()

	return fn(ctx, deps)
}
