package logger

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx/fxevent"
)

// fxLogger reports fx lifecycle events as structured log events.
type fxLogger struct {
	l zerolog.Logger
}

var _ fxevent.Logger = (*fxLogger)(nil)

func Fx() fxevent.Logger {
	return &fxLogger{
		l: log.Logger.With().Str("evt.name", "fx.init").Logger(),
	}
}

func (l *fxLogger) errOrTrace(err error) *zerolog.Event {
	if err != nil {
		return l.l.Error().Err(err)
	}
	return l.l.Trace()
}

func (l *fxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		l.errOrTrace(e.Err).
			Str("callee", e.FunctionName).
			Str("caller", e.CallerName).
			Dur("runtime", e.Runtime).
			Msg("OnStart hook executed")
	case *fxevent.OnStopExecuted:
		l.errOrTrace(e.Err).
			Str("callee", e.FunctionName).
			Str("caller", e.CallerName).
			Dur("runtime", e.Runtime).
			Msg("OnStop hook executed")
	case *fxevent.Supplied:
		l.errOrTrace(e.Err).Str("type", e.TypeName).Msg("supplied")
	case *fxevent.Provided:
		l.errOrTrace(e.Err).
			Str("constructor", e.ConstructorName).
			Str("types", strings.Join(e.OutputTypeNames, ", ")).
			Str("module", e.ModuleName).
			Msg("provided")
	case *fxevent.Invoked:
		l.errOrTrace(e.Err).
			Str("function", e.FunctionName).
			Str("module", e.ModuleName).
			Msg("invoked")
	case *fxevent.Stopping:
		l.l.Info().Str("signal", e.Signal.String()).Msg("received signal, stopping")
	case *fxevent.Stopped:
		l.errOrTrace(e.Err).Msg("stopped")
	case *fxevent.RollingBack:
		l.l.Error().Err(e.StartErr).Msg("start failed, rolling back")
	case *fxevent.Started:
		if e.Err != nil {
			l.l.Error().Err(e.Err).Msg("start failed")
		} else {
			l.l.Info().Msg("started")
		}
	case *fxevent.LoggerInitialized:
		l.errOrTrace(e.Err).Str("constructor", e.ConstructorName).Msg("logger initialized")
	}
}
