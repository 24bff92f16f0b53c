package v1

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/mailqueue"
	"onegov.dev/electionday/internal/service"
)

func TestEnqueueMail(t *testing.T) {
	conf := &appconfig.Config{}
	conf.MailQueueDir = t.TempDir()
	conf.MailTransport = appconfig.MailTransportPostmark
	conf.MailPostmarkToken = "token"
	mail, err := service.NewMail(conf, service.NewTransport(conf))
	require.NoError(t, err)

	app, v1 := newTestApp()
	RegisterMail(v1, Mail{MailService: mail})

	status, body := do(t, app, http.MethodPost, "/api/v1/mail", `{
		"From": "noreply@example.org",
		"To": "voter@example.org",
		"Subject": "Resultate",
		"TextBody": "Die Resultate sind da."
	}`)
	require.Equal(t, fiber.StatusAccepted, status)

	msg, err := mail.Queue.Read(body.Get("file").String())
	require.NoError(t, err)
	assert.Equal(t, &mailqueue.Message{
		From:     "noreply@example.org",
		To:       "voter@example.org",
		Subject:  "Resultate",
		TextBody: "Die Resultate sind da.",
	}, msg)

	status, body = do(t, app, http.MethodPost, "/api/v1/mail", `{"From": "a@example.org", "To": "b@example.org", "Subject": "empty"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body.Get("code").String())
}
