// Package appcontext tells the fx graph which entrypoint it runs in, so
// long-running parts (http server, workers) stay off for one-shot CLI runs.
package appcontext

const (
	EnvServer Env = iota
	EnvWorker
	EnvCLI
)

type Env int

func (e Env) String() string {
	switch e {
	case EnvServer:
		return "server"
	case EnvWorker:
		return "worker"
	case EnvCLI:
		return "cli"
	default:
		return "unknown"
	}
}

type Ctx struct {
	Env Env
}

func Declare(env Env) Ctx {
	return Ctx{
		Env: env,
	}
}

// RunsWorkers reports whether background workers should be started.
func (c Ctx) RunsWorkers() bool {
	return c.Env == EnvServer || c.Env == EnvWorker
}
