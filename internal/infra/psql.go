package infra

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/extra/bunotel"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/app/appconfig"
)

func Postgres(lc fx.Lifecycle, conf *appconfig.Config) (*bun.DB, error) {
	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(conf.PostgresDSN)))
	pgdb.SetMaxOpenConns(conf.PostgresMaxOpenConns)
	pgdb.SetMaxIdleConns(conf.PostgresMaxIdleConns)
	pgdb.SetConnMaxLifetime(conf.PostgresConnMaxLifeTime)
	pgdb.SetConnMaxIdleTime(conf.PostgresConnMaxIdleTime)

	db := bun.NewDB(pgdb, pgdialect.New())
	if conf.DevMode {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(conf.BunDebugVerbose),
		))
	}
	if conf.TracingEnabled {
		db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName("electionday")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("infra: postgres: failed to ping database")
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	return db, nil
}
