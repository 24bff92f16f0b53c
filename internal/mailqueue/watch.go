package mailqueue

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch calls fn once at start and then whenever messages appear in dir,
// waiting for debounce to pass without new messages. It returns when ctx is
// done.
func Watch(ctx context.Context, dir string, debounce time.Duration, fn func(ctx context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	fn(ctx)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) || !isMessage(filepath.Base(ev.Name)) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().
				Str("evt.name", "mail.watch.error").
				Err(err).
				Msg("mail queue watcher reported an error")

		case <-timer.C:
			fn(ctx)
		}
	}
}
