package importwkr

import (
	"context"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/infra"
	"onegov.dev/electionday/internal/pkg/jetstream"
	"onegov.dev/electionday/internal/pkg/observability"
	"onegov.dev/electionday/internal/service"
)

const (
	// taskTimeout bounds a single import, including parsing and storing
	taskTimeout = time.Minute * 5
	ackWait     = time.Minute
	// informs JetStream well before ackWait passes
	inProgressInterval = time.Second * 20
)

type WorkerDeps struct {
	fx.In

	JetStream     nats.JetStreamContext
	ImportService *service.Import
}

type Worker struct {
	// count is the number of consumers
	count int

	wg sync.WaitGroup

	WorkerDeps
}

func Start(lc fx.Lifecycle, conf *appconfig.Config, deps WorkerDeps) {
	if !conf.AppContext.RunsWorkers() {
		return
	}

	w := &Worker{
		count:      conf.ImportWorkerCount,
		WorkerDeps: deps,
	}
	if w.count <= 0 {
		w.count = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ch := make(chan error, w.count)
			// handle & dump errors from consumers
			go func() {
				for err := range ch {
					log.Error().
						Str("evt.name", "worker.import.error").
						Err(err).
						Msg("import worker error")
				}
			}()

			for i := 0; i < w.count; i++ {
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					if err := w.Consumer(ctx, ch); err != nil && ctx.Err() == nil {
						ch <- err
					}
				}()
			}

			log.Info().
				Str("evt.name", "worker.import.started").
				Int("count", w.count).
				Msg("import workers started")
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()

			done := make(chan struct{})
			go func() {
				w.wg.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func (w *Worker) Consumer(ctx context.Context, ch chan error) error {
	msgChan := make(chan *nats.Msg, 16)

	sub, err := w.JetStream.ChanQueueSubscribe(infra.ImportSubject, infra.ImportStream, msgChan,
		nats.ManualAck(),
		nats.AckWait(ackWait),
		nats.MaxAckPending(16))
	if err != nil {
		log.Err(err).Msg("failed to subscribe to " + infra.ImportSubject)
		return err
	}
	defer func() {
		// the durable consumer outlives this subscription
		if err := sub.Drain(); err != nil {
			log.Warn().Err(err).Msg("failed to drain import subscription")
		}
	}()

	for {
		select {
		case msg := <-msgChan:
			if err := w.handle(ctx, msg); err != nil {
				ch <- err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handle always acks: failures are recorded in the task status, and a
// redelivered upload would fail the same way again.
func (w *Worker) handle(ctx context.Context, msg *nats.Msg) error {
	taskCtx, cancelTask := context.WithTimeout(ctx, taskTimeout)
	inProgress := time.NewTicker(inProgressInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-inProgress.C:
				if err := msg.InProgress(); err != nil {
					log.Error().Err(err).Msg("failed to set msg InProgress")
				}
			case <-done:
				return
			}
		}
	}()
	defer func() {
		close(done)
		inProgress.Stop()
		cancelTask()
		if err := msg.Ack(); err != nil {
			log.Error().Err(err).Msg("failed to ack")
		}
	}()

	task := &service.ImportTask{}
	if err := msgpack.Unmarshal(msg.Data, task); err != nil {
		return err
	}

	L := log.With().Str("taskId", task.TaskID).Logger()
	if meta, err := msg.Metadata(); err == nil {
		L = L.With().
			Str("msgId", jetstream.MessageID(meta.Sequence)).
			Uint64("deliveries", meta.NumDelivered).
			Logger()
		observability.ImportConsumeMessagingLatency.WithLabelValues().
			Observe(time.Since(meta.Timestamp).Seconds())
	}

	start := time.Now()
	err := w.ImportService.ConsumeWabstiC(taskCtx, task)
	observability.ImportConsumeDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	if err != nil {
		// the uploads themselves are left out, they can be megabytes
		task.Files = nil
		L.Error().
			Err(err).
			Str("importTask", spew.Sdump(task)).
			Msg("failed to consume import task")
		return err
	}

	L.Info().Msg("import task processed")
	return nil
}
