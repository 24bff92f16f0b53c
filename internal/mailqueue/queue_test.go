package mailqueue

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(subject string) *Message {
	return &Message{
		From:     "noreply@example.org",
		To:       "voter@example.org",
		Subject:  subject,
		TextBody: "Die Resultate sind da.",
	}
}

func openQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(t.TempDir())
	require.NoError(t, err)
	return q
}

func TestEnqueue(t *testing.T) {
	q := openQueue(t)

	first, err := q.Enqueue(testMessage("first"))
	require.NoError(t, err)
	second, err := q.Enqueue(testMessage("second"))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(first, ".json"))
	assert.Len(t, strings.Split(first, "."), 3)

	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, pending)

	tmp, err := os.ReadDir(filepath.Join(q.Dir, tmpDir))
	require.NoError(t, err)
	assert.Empty(t, tmp)

	msg, err := q.Read(first)
	require.NoError(t, err)
	assert.Equal(t, "first", msg.Subject)

	_, err = q.Enqueue(&Message{From: "a@example.org", To: "b@example.org", Subject: "empty"})
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestPendingIgnoresOtherFiles(t *testing.T) {
	q := openQueue(t)

	name, err := q.Enqueue(testMessage("hello"))
	require.NoError(t, err)
	for _, other := range []string{".hidden.json", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(q.Dir, other), []byte("{}"), 0o644))
	}

	ok, err := q.Lock(name, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{name}, pending)
}

func TestLock(t *testing.T) {
	q := openQueue(t)
	name, err := q.Enqueue(testMessage("hello"))
	require.NoError(t, err)

	now := time.Now()
	ok, err := q.Lock(name, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.Lock(name, now)
	require.NoError(t, err)
	assert.False(t, ok, "a locked message cannot be locked again")

	ok, err = q.Lock("missing.json", now)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, q.Done(name))
	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
	_, err = os.Stat(filepath.Join(q.Dir, name+LockSuffix))
	assert.True(t, os.IsNotExist(err))
}

func TestLockConcurrently(t *testing.T) {
	q := openQueue(t)
	name, err := q.Enqueue(testMessage("hello"))
	require.NoError(t, err)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		owned int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := q.Lock(name, time.Now())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				owned++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, owned)
}

func TestReleaseStale(t *testing.T) {
	q := openQueue(t)
	name, err := q.Enqueue(testMessage("hello"))
	require.NoError(t, err)

	locked := time.Now().Add(-time.Hour)
	ok, err := q.Lock(name, locked)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := q.ReleaseStale(locked.Add(5*time.Minute), 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, released)

	released, err = q.ReleaseStale(locked.Add(11*time.Minute), 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	ok, err = q.Lock(name, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

type fakeTransport struct {
	batchSize int
	fail      map[string]bool
	err       error
	batches   [][]string
}

func (f *fakeTransport) Name() string   { return "fake" }
func (f *fakeTransport) BatchSize() int { return f.batchSize }

func (f *fakeTransport) Send(_ context.Context, msgs []*Message) ([]error, error) {
	subjects := make([]string, len(msgs))
	for i, m := range msgs {
		subjects[i] = m.Subject
	}
	f.batches = append(f.batches, subjects)
	if f.err != nil {
		return nil, f.err
	}

	errs := make([]error, len(msgs))
	for i, m := range msgs {
		if f.fail[m.Subject] {
			errs[i] = errors.New("rejected")
		}
	}
	return errs, nil
}

func enqueueAll(t *testing.T, q *Queue, subjects ...string) {
	t.Helper()
	for _, s := range subjects {
		_, err := q.Enqueue(testMessage(s))
		require.NoError(t, err)
	}
}

func TestProcessorRun(t *testing.T) {
	q := openQueue(t)
	enqueueAll(t, q, "a", "b", "c", "d", "e")

	transport := &fakeTransport{batchSize: 2, fail: map[string]bool{"c": true}}
	p := NewProcessor(q, transport, time.Minute)

	result, err := p.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, RunResult{Sent: 4, Failed: 1}, result)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, transport.batches)

	// the failed message keeps its lock until it is stale
	pending, err := q.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	transport.batches = nil
	result, err = p.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, RunResult{}, result)
	assert.Empty(t, transport.batches)

	p.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	transport.fail = nil
	result, err = p.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, RunResult{Sent: 1}, result)
	assert.Equal(t, [][]string{{"c"}}, transport.batches)

	entries, err := os.ReadDir(q.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only tmp/ is left")
}

func TestProcessorRunLimit(t *testing.T) {
	q := openQueue(t)
	enqueueAll(t, q, "a", "b", "c")

	transport := &fakeTransport{batchSize: 500}
	p := NewProcessor(q, transport, 0)
	assert.Equal(t, DefaultStaleAfter, p.StaleAfter)

	result, err := p.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, RunResult{Sent: 2}, result)
	assert.Equal(t, [][]string{{"a", "b"}}, transport.batches)
}

func TestProcessorBatchFailure(t *testing.T) {
	q := openQueue(t)
	enqueueAll(t, q, "a", "b")

	transport := &fakeTransport{batchSize: 10, err: errors.New("unreachable")}
	p := NewProcessor(q, transport, time.Minute)

	result, err := p.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, RunResult{Failed: 2}, result)

	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestProcessorInvalidMessage(t *testing.T) {
	q := openQueue(t)
	require.NoError(t, os.WriteFile(filepath.Join(q.Dir, "1.broken.json"), []byte("not json"), 0o644))
	enqueueAll(t, q, "a")

	transport := &fakeTransport{batchSize: 10}
	result, err := NewProcessor(q, transport, time.Minute).Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, RunResult{Sent: 1, Failed: 1}, result)
}

func TestWatch(t *testing.T) {
	q := openQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, q.Dir, 20*time.Millisecond, func(context.Context) {
			runs <- struct{}{}
		})
	}()

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not run at start")
	}

	enqueueAll(t, q, "a", "b")
	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not run after enqueue")
	}

	cancel()
	require.NoError(t, <-done)
}
