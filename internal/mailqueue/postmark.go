package mailqueue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	PostmarkEndpoint  = "https://api.postmarkapp.com"
	PostmarkBatchSize = 500
)

// Transport delivers batches of messages. Send returns one error per message
// (nil if it was sent), or a single error if the batch as a whole failed.
type Transport interface {
	Name() string
	BatchSize() int
	Send(ctx context.Context, msgs []*Message) ([]error, error)
}

type PostmarkError struct {
	Code    int64
	Message string
}

func (e *PostmarkError) Error() string {
	return fmt.Sprintf("postmark: error %d: %s", e.Code, e.Message)
}

type Postmark struct {
	Endpoint string
	Token    string
	Batch    int
	Attempts uint
	Delay    time.Duration
	Client   *http.Client
}

var _ Transport = (*Postmark)(nil)

func NewPostmark(token string, batch int) *Postmark {
	if batch <= 0 || batch > PostmarkBatchSize {
		batch = PostmarkBatchSize
	}
	return &Postmark{
		Endpoint: PostmarkEndpoint,
		Token:    token,
		Batch:    batch,
		Attempts: 3,
		Delay:    time.Second,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *Postmark) Name() string {
	return "postmark"
}

func (p *Postmark) BatchSize() int {
	return p.Batch
}

func (p *Postmark) Send(ctx context.Context, msgs []*Message) ([]error, error) {
	payload, err := json.Marshal(msgs)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = retry.Do(
		func() error {
			body, err = p.post(ctx, payload)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(p.Attempts),
		retry.Delay(p.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	results := gjson.ParseBytes(body)
	if !results.IsArray() {
		return nil, errors.Errorf("postmark: unexpected response %q", body)
	}
	items := results.Array()
	if len(items) != len(msgs) {
		return nil, errors.Errorf("postmark: got %d results for %d messages", len(items), len(msgs))
	}

	errs := make([]error, len(msgs))
	for i, item := range items {
		if code := item.Get("ErrorCode").Int(); code != 0 {
			errs[i] = &PostmarkError{Code: code, Message: item.Get("Message").String()}
		}
	}
	return errs, nil
}

// post sends one batch request. Server errors are retried, client errors are
// not.
func (p *Postmark) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint+"/email/batch", bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.Token)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, errors.Errorf("postmark: server error %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, retry.Unrecoverable(errors.Errorf("postmark: request rejected with %d: %s",
			resp.StatusCode, gjson.GetBytes(body, "Message").String()))
	}
	return body, nil
}
