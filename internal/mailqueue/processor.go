package mailqueue

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"onegov.dev/electionday/internal/pkg/observability"
)

const DefaultStaleAfter = 10 * time.Minute

type RunResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Processor delivers queued messages at most once. A message whose delivery
// failed keeps its lock and is only retried once the lock went stale.
type Processor struct {
	Queue      *Queue
	Transport  Transport
	StaleAfter time.Duration

	now func() time.Time
}

func NewProcessor(queue *Queue, transport Transport, staleAfter time.Duration) *Processor {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Processor{
		Queue:      queue,
		Transport:  transport,
		StaleAfter: staleAfter,
		now:        time.Now,
	}
}

type claimed struct {
	name string
	msg  *Message
}

// Run delivers up to limit messages (all if limit <= 0) in the order they
// were queued.
func (p *Processor) Run(ctx context.Context, limit int) (RunResult, error) {
	var result RunResult
	now := p.now()

	released, err := p.Queue.ReleaseStale(now, p.StaleAfter)
	if err != nil {
		return result, err
	}
	if released > 0 {
		log.Info().
			Str("evt.name", "mail.lock.released").
			Int("count", released).
			Msg("released stale mail locks")
	}

	names, err := p.Queue.Pending()
	if err != nil {
		return result, err
	}

	batchSize := p.Transport.BatchSize()
	batch := make([]claimed, 0, batchSize)
	taken := 0

	for _, name := range names {
		if limit > 0 && taken >= limit {
			break
		}
		if ctx.Err() != nil {
			break
		}

		ok, err := p.Queue.Lock(name, now)
		if err != nil {
			return result, err
		}
		if !ok {
			continue
		}
		taken++

		msg, err := p.Queue.Read(name)
		if err != nil {
			log.Error().
				Str("evt.name", "mail.message.invalid").
				Str("file", name).
				Err(err).
				Msg("failed to read queued mail")
			p.failed(&result)
			continue
		}

		batch = append(batch, claimed{name: name, msg: msg})
		if len(batch) >= batchSize {
			p.deliver(ctx, batch, &result)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		p.deliver(ctx, batch, &result)
	}

	return result, nil
}

func (p *Processor) failed(result *RunResult) {
	result.Failed++
	observability.MailDelivery.WithLabelValues(p.Transport.Name(), "failed").Inc()
}

func (p *Processor) deliver(ctx context.Context, batch []claimed, result *RunResult) {
	msgs := make([]*Message, len(batch))
	for i, c := range batch {
		msgs[i] = c.msg
	}

	errs, err := p.Transport.Send(ctx, msgs)
	if err != nil {
		log.Error().
			Str("evt.name", "mail.batch.failed").
			Str("transport", p.Transport.Name()).
			Int("size", len(batch)).
			Err(err).
			Msg("failed to deliver mail batch")
		for range batch {
			p.failed(result)
		}
		return
	}

	for i, c := range batch {
		if errs[i] != nil {
			log.Warn().
				Str("evt.name", "mail.message.failed").
				Str("transport", p.Transport.Name()).
				Str("file", c.name).
				Err(errs[i]).
				Msg("failed to deliver mail, retrying once the lock is stale")
			p.failed(result)
			continue
		}

		if err := p.Queue.Done(c.name); err != nil {
			// sent, but it will be sent again once the lock is stale
			log.Error().
				Str("evt.name", "mail.message.cleanup_failed").
				Str("file", c.name).
				Err(err).
				Msg("failed to remove delivered mail")
		}
		result.Sent++
		observability.MailDelivery.WithLabelValues(p.Transport.Name(), "sent").Inc()
	}
}
