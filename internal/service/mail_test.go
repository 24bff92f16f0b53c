package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/mailqueue"
	"onegov.dev/electionday/internal/pkg/apperr"
)

func TestNewTransport(t *testing.T) {
	conf := &appconfig.Config{}
	conf.MailTransport = appconfig.MailTransportPostmark
	conf.MailPostmarkToken = "token"
	conf.MailPostmarkBatchSize = 50
	assert.Equal(t, "postmark", NewTransport(conf).Name())
	assert.Equal(t, 50, NewTransport(conf).BatchSize())

	conf.MailTransport = appconfig.MailTransportSMTP
	conf.MailSMTPAddress = "localhost:25"
	assert.Equal(t, "smtp", NewTransport(conf).Name())
	assert.Equal(t, 1, NewTransport(conf).BatchSize())
}

func TestMailEnqueue(t *testing.T) {
	conf := &appconfig.Config{}
	conf.MailQueueDir = t.TempDir()
	conf.MailTransport = appconfig.MailTransportSMTP

	s, err := NewMail(conf, NewTransport(conf))
	require.NoError(t, err)

	name, err := s.Enqueue(&mailqueue.Message{
		From:     "noreply@example.org",
		To:       "voter@example.org",
		Subject:  "Resultate",
		TextBody: "Die Resultate sind da.",
	})
	require.NoError(t, err)

	pending, err := s.Queue.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{name}, pending)

	_, err = s.Enqueue(&mailqueue.Message{From: "noreply@example.org", To: "voter@example.org", Subject: "Leer"})
	assertAppErr(t, err, apperr.CodeInvalidRequest)

	_, err = s.Enqueue(&mailqueue.Message{TextBody: "no recipient"})
	assertAppErr(t, err, apperr.CodeInvalidRequest)
}
