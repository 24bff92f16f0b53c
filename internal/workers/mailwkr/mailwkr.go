package mailwkr

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/pkg/observability"
	"onegov.dev/electionday/internal/service"
)

type WorkerDeps struct {
	fx.In

	MailService *service.Mail
}

type Worker struct {
	// count counts runs the worker has completed so far
	count int

	// interval describes the interval in-between runs
	interval time.Duration

	// limit is the maximum number of mails delivered per run
	limit int

	WorkerDeps
}

// Start delivers queued mails every MailProcessInterval. An interval of 0
// leaves delivery to `electionday mail deliver` or `electionday mail watch`.
func Start(lc fx.Lifecycle, conf *appconfig.Config, deps WorkerDeps) {
	if !conf.AppContext.RunsWorkers() {
		return
	}
	if conf.MailProcessInterval <= 0 {
		log.Info().
			Str("evt.name", "worker.mail.disabled").
			Msg("mail worker disabled as MAIL_PROCESS_INTERVAL is not set")
		return
	}

	w := &Worker{
		interval:   conf.MailProcessInterval,
		limit:      conf.MailProcessLimit,
		WorkerDeps: deps,
	}

	var cancel context.CancelFunc
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			cancel = w.do(done)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func (w *Worker) do(done chan struct{}) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			w.run(ctx)

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return cancel
}

func (w *Worker) run(ctx context.Context) {
	transport := w.MailService.Processor.Transport.Name()

	start := time.Now()
	result, err := w.MailService.Deliver(ctx, w.limit)
	observability.WorkerMailRunDuration.WithLabelValues(transport).Set(time.Since(start).Seconds())
	w.count++

	if err != nil {
		log.Error().
			Str("evt.name", "worker.mail.failed").
			Err(err).
			Int("count", w.count).
			Msg("mail worker run failed")
		return
	}

	if result.Sent > 0 || result.Failed > 0 {
		log.Info().
			Str("evt.name", "worker.mail.finished").
			Int("count", w.count).
			Int("sent", result.Sent).
			Int("failed", result.Failed).
			Msg("mail worker run finished")
	}
}

func (w *Worker) Count() int {
	return w.count
}
