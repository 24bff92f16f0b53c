package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/mailqueue"
	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/util/rekuest"
)

type Mail struct {
	Queue     *mailqueue.Queue
	Processor *mailqueue.Processor
}

// NewTransport returns the configured mail transport.
func NewTransport(conf *appconfig.Config) mailqueue.Transport {
	switch conf.MailTransport {
	case appconfig.MailTransportSMTP:
		return mailqueue.NewSMTP(conf.MailSMTPAddress, conf.MailSMTPUsername, conf.MailSMTPPassword)
	default:
		if conf.MailPostmarkToken == "" {
			log.Warn().Msg("Postmark token is missing, mails will fail to be delivered.")
		}
		return mailqueue.NewPostmark(conf.MailPostmarkToken, conf.MailPostmarkBatchSize)
	}
}

func NewMail(conf *appconfig.Config, transport mailqueue.Transport) (*Mail, error) {
	queue, err := mailqueue.Open(conf.MailQueueDir)
	if err != nil {
		return nil, err
	}
	return &Mail{
		Queue:     queue,
		Processor: mailqueue.NewProcessor(queue, transport, conf.MailLockStaleAfter),
	}, nil
}

// Enqueue validates and queues the message, returning its queue file name.
func (s *Mail) Enqueue(msg *mailqueue.Message) (string, error) {
	if err := rekuest.ValidStruct(msg); err != nil {
		return "", err
	}
	name, err := s.Queue.Enqueue(msg)
	if errors.Is(err, mailqueue.ErrEmptyBody) {
		return "", apperr.ErrInvalidReq.Msg("mail needs a TextBody or a HtmlBody")
	} else if err != nil {
		return "", err
	}

	log.Info().
		Str("evt.name", "mail.enqueued").
		Str("file", name).
		Str("subject", msg.Subject).
		Msg("mail queued")
	return name, nil
}

func (s *Mail) Deliver(ctx context.Context, limit int) (mailqueue.RunResult, error) {
	return s.Processor.Run(ctx, limit)
}
