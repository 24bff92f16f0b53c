package mailwkr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/app/appcontext"
	"onegov.dev/electionday/internal/mailqueue"
	"onegov.dev/electionday/internal/service"
)

type countingTransport struct {
	sent chan string
}

func (c *countingTransport) Name() string   { return "counting" }
func (c *countingTransport) BatchSize() int { return 10 }

func (c *countingTransport) Send(_ context.Context, msgs []*mailqueue.Message) ([]error, error) {
	for _, m := range msgs {
		c.sent <- m.Subject
	}
	return make([]error, len(msgs)), nil
}

func newMail(t *testing.T, conf *appconfig.Config) (*service.Mail, *countingTransport) {
	t.Helper()
	conf.MailQueueDir = t.TempDir()
	transport := &countingTransport{sent: make(chan string, 10)}
	mail, err := service.NewMail(conf, transport)
	require.NoError(t, err)

	for _, subject := range []string{"first", "second"} {
		_, err := mail.Enqueue(&mailqueue.Message{
			From:     "noreply@example.org",
			To:       "voter@example.org",
			Subject:  subject,
			TextBody: "Die Resultate sind da.",
		})
		require.NoError(t, err)
	}
	return mail, transport
}

func TestWorkerRun(t *testing.T) {
	mail, transport := newMail(t, &appconfig.Config{})
	w := &Worker{limit: 1, WorkerDeps: WorkerDeps{MailService: mail}}

	w.run(context.Background())
	assert.Equal(t, 1, w.Count())
	assert.Equal(t, "first", <-transport.sent)

	w.run(context.Background())
	assert.Equal(t, "second", <-transport.sent)

	pending, err := mail.Queue.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStart(t *testing.T) {
	conf := &appconfig.Config{}
	conf.AppContext = appcontext.Declare(appcontext.EnvWorker)
	conf.MailProcessInterval = time.Hour
	mail, transport := newMail(t, conf)

	lc := fxtest.NewLifecycle(t)
	Start(lc, conf, WorkerDeps{MailService: mail})
	lc.RequireStart()

	// the first run happens right away
	for _, want := range []string{"first", "second"} {
		select {
		case got := <-transport.sent:
			assert.Equal(t, want, got)
		case <-time.After(5 * time.Second):
			t.Fatal("mail worker did not deliver")
		}
	}

	lc.RequireStop()
}

func TestStartDisabled(t *testing.T) {
	conf := &appconfig.Config{}
	conf.AppContext = appcontext.Declare(appcontext.EnvCLI)
	conf.MailProcessInterval = time.Hour

	lc := fxtest.NewLifecycle(t)
	Start(lc, conf, WorkerDeps{})
	lc.RequireStart().RequireStop()
}
