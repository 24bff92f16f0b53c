package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"

	"onegov.dev/electionday/internal/app/appconfig"
)

func Configure(conf *appconfig.Config) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	var level zerolog.Level
	if conf.DevMode {
		level = zerolog.TraceLevel
	} else {
		level = zerolog.DebugLevel
	}

	writers := []io.Writer{}
	if conf.LogFile != "" {
		_ = os.MkdirAll(filepath.Dir(conf.LogFile), os.ModePerm)
		writers = append(writers, &lumberjack.Logger{
			Filename:   conf.LogFile,
			MaxSize:    conf.LogFileMaxSizeMB,
			MaxBackups: conf.LogFileMaxBackups,
			Compress:   true,
		})
	}

	if conf.LogJsonStdout {
		writers = append(writers, os.Stdout)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339Nano,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("env", conf.AppContext.Env.String()).
		Logger().
		Level(level)
}
