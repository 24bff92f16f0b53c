package mailqueue

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dchest/uniuri"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	LockSuffix    = ".sending"
	MessageSuffix = ".json"
	tmpDir        = "tmp"
)

type Queue struct {
	Dir string
}

// Open creates the queue directory if necessary.
func Open(dir string) (*Queue, error) {
	if err := os.MkdirAll(filepath.Join(dir, tmpDir), 0o755); err != nil {
		return nil, errors.Wrap(err, "mailqueue: failed to create queue directory")
	}
	return &Queue{Dir: dir}, nil
}

// Enqueue writes the message to tmp/ first and renames it into the queue, so
// processors never see partial files. It returns the file name.
func (q *Queue) Enqueue(msg *Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	name := strconv.FormatInt(time.Now().UnixNano(), 10) + "." + uniuri.New() + MessageSuffix
	tmp := filepath.Join(q.Dir, tmpDir, name)

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", errors.Wrap(err, "mailqueue: failed to write message")
	}
	if err := os.Rename(tmp, filepath.Join(q.Dir, name)); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Wrap(err, "mailqueue: failed to move message into queue")
	}
	return name, nil
}

func isMessage(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.HasSuffix(name, MessageSuffix)
}

// Pending returns the queued message files in lexical order, which is the
// order they were enqueued in.
func (q *Queue) Pending() ([]string, error) {
	entries, err := os.ReadDir(q.Dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isMessage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (q *Queue) path(name string) string {
	return filepath.Join(q.Dir, name)
}

// Lock claims a message by hard-linking it. It returns false if another
// processor holds the lock already.
func (q *Queue) Lock(name string, now time.Time) (bool, error) {
	lock := q.path(name) + LockSuffix
	if err := os.Link(q.path(name), lock); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			// sent by someone else in the meantime
			return false, nil
		}
		return false, errors.Wrap(err, "mailqueue: failed to lock message")
	}

	// the link shares the inode with the message, so this marks when the
	// lock was taken
	if err := os.Chtimes(lock, now, now); err != nil {
		return true, errors.Wrap(err, "mailqueue: failed to touch lock")
	}
	return true, nil
}

// Done removes a sent message together with its lock.
func (q *Queue) Done(name string) error {
	if err := os.Remove(q.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Remove(q.path(name) + LockSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (q *Queue) Read(name string) (*Message, error) {
	data, err := os.ReadFile(q.path(name))
	if err != nil {
		return nil, err
	}
	return decodeMessage(data)
}

// ReleaseStale removes locks older than staleAfter, which makes their
// messages eligible again. It returns the number of released locks.
func (q *Queue) ReleaseStale(now time.Time, staleAfter time.Duration) (int, error) {
	entries, err := os.ReadDir(q.Dir)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), LockSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return released, err
		}
		if now.Sub(info.ModTime()) < staleAfter {
			continue
		}
		if err := os.Remove(q.path(e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return released, err
		}
		released++
	}
	return released, nil
}
