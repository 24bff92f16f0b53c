package infra

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/app/appconfig"
)

const (
	ImportStream  = "electionday-imports"
	ImportSubject = "IMPORT.*"
)

func NATS(lc fx.Lifecycle, conf *appconfig.Config) (*nats.Conn, nats.JetStreamContext, error) {
	errorHandler := func(conn *nats.Conn, sub *nats.Subscription, err error) {
		evt := log.Error().
			Str("evt.name", "infra.nats.error").
			Err(err).
			Str("conn.url", conn.ConnectedUrlRedacted())
		if sub != nil {
			evt = evt.Str("sub.subject", sub.Subject)
		}
		evt.Msg("nats error")
	}

	nc, err := nats.Connect(conf.NatsURL,
		nats.Name("electionday"),
		nats.PingInterval(time.Second*20),
		nats.ErrorHandler(errorHandler))
	if err != nil {
		log.Error().Err(err).Msg("infra: nats: failed to connect to NATS")
		return nil, nil, err
	}

	js, err := nc.JetStream(nats.PublishAsyncMaxPending(128))
	if err != nil {
		log.Error().Err(err).Msg("infra: nats: failed to initialize NATS JetStream")
		return nil, nil, err
	}

	// uploads are deduplicated by their fingerprint, sent as the message id
	_, err = js.AddStream(&nats.StreamConfig{
		Name:       ImportStream,
		Subjects:   []string{ImportSubject},
		Retention:  nats.WorkQueuePolicy,
		Discard:    nats.DiscardOld,
		Storage:    nats.FileStorage,
		Replicas:   1,
		Duplicates: time.Minute * 10,
	})
	if err != nil {
		log.Warn().Err(err).Msg("infra: nats: failed to create jetstream stream: is it already created?")
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return nc.Drain()
		},
	})

	return nc, js, nil
}
