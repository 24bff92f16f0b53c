package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/app/appcontext"
	"onegov.dev/electionday/internal/service"
)

func TestGraphIsComplete(t *testing.T) {
	for _, env := range []appcontext.Env{appcontext.EnvServer, appcontext.EnvWorker, appcontext.EnvCLI} {
		t.Run(env.String(), func(t *testing.T) {
			conf := &appconfig.Config{}
			conf.AppContext = appcontext.Declare(env)

			opts := append(BaseOptions(conf), fx.Invoke(func(*service.Import, *service.Mail, *service.Page) {}))
			assert.NoError(t, fx.ValidateApp(opts...))
		})
	}
}
