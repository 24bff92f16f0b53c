package mailqueue

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func postmarkServer(t *testing.T, handler http.HandlerFunc) *Postmark {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewPostmark("server-token", 0)
	p.Endpoint = srv.URL
	p.Delay = time.Millisecond
	return p
}

func TestPostmarkSend(t *testing.T) {
	p := postmarkServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email/batch", r.URL.Path)
		assert.Equal(t, "server-token", r.Header.Get("X-Postmark-Server-Token"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "results", gjson.GetBytes(body, "0.Tag").String())
		assert.Equal(t, "broadcast", gjson.GetBytes(body, "0.MessageStream").String())

		_, _ = io.WriteString(w, `[
			{"ErrorCode": 0, "Message": "OK", "MessageID": "a"},
			{"ErrorCode": 300, "Message": "Invalid email request"}
		]`)
	})
	assert.Equal(t, PostmarkBatchSize, p.BatchSize())

	first := testMessage("first")
	first.Tag = "results"
	first.MessageStream = "broadcast"

	errs, err := p.Send(context.Background(), []*Message{first, testMessage("second")})
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])

	var pmErr *PostmarkError
	require.ErrorAs(t, errs[1], &pmErr)
	assert.Equal(t, int64(300), pmErr.Code)
	assert.Equal(t, "Invalid email request", pmErr.Message)
}

func TestPostmarkRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	p := postmarkServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[{"ErrorCode": 0}]`)
	})

	errs, err := p.Send(context.Background(), []*Message{testMessage("hello")})
	require.NoError(t, err)
	assert.Equal(t, []error{nil}, errs)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPostmarkClientErrorsFailTheBatch(t *testing.T) {
	var calls atomic.Int32
	p := postmarkServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"ErrorCode": 10, "Message": "Bad or missing API token"}`)
	})

	_, err := p.Send(context.Background(), []*Message{testMessage("hello")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad or missing API token")
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostmarkUnexpectedResponse(t *testing.T) {
	p := postmarkServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := p.Send(context.Background(), []*Message{testMessage("hello")})
	assert.Error(t, err)
}

func TestSMTPSend(t *testing.T) {
	type sent struct {
		from string
		to   []string
		data string
		auth bool
	}
	var got []sent

	s := NewSMTP("mail.example.org:587", "user", "secret")
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "mail.example.org:587", addr)
		got = append(got, sent{from: from, to: to, data: string(msg), auth: a != nil})
		return nil
	}

	msg := testMessage("Resultate Kantonsratswahl")
	msg.From = "Wahlen <noreply@example.org>"
	msg.Cc = "a@example.org, b@example.org"
	msg.Bcc = "hidden@example.org"
	msg.HtmlBody = "<p>Die Resultate sind da.</p>"
	msg.Headers = []Header{{Name: "x-election", Value: "kr-2015"}}

	invalid := testMessage("broken")
	invalid.From = "not an address"

	errs, err := s.Send(context.Background(), []*Message{msg, invalid})
	require.NoError(t, err)
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])

	require.Len(t, got, 1)
	assert.Equal(t, "noreply@example.org", got[0].from)
	assert.Equal(t, []string{"voter@example.org", "a@example.org", "b@example.org", "hidden@example.org"}, got[0].to)
	assert.True(t, got[0].auth)
	assert.Contains(t, got[0].data, "Subject: Resultate Kantonsratswahl\r\n")
	assert.Contains(t, got[0].data, "X-Election: kr-2015\r\n")
	assert.Contains(t, got[0].data, "multipart/alternative")
	assert.NotContains(t, got[0].data, "hidden@example.org")
}

func TestComposeAttachments(t *testing.T) {
	msg := testMessage("Bericht")
	msg.Attachments = []Attachment{{Name: "bericht.csv", Content: "YSxiCjEsMgo=", ContentType: "text/csv"}}

	data, err := compose(msg, time.Date(2015, 10, 18, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, out, `filename=bericht.csv`)
	assert.Contains(t, out, "YSxiCjEsMgo=")
	assert.Contains(t, out, "Die Resultate sind da.")
	assert.True(t, strings.HasPrefix(out, "From: noreply@example.org\r\n"))

	msg.Attachments[0].Content = "%%%"
	_, err = compose(msg, time.Now())
	assert.Error(t, err)
}
