package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"entref/internal/logging"
	"entref/internal/store"
)

// Watcher re-runs a reload function when any watched file is written or
// replaced. Used to keep a store in sync with seed files edited on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch watches the given paths and calls reload on write/create events.
// Reload errors are logged, not fatal; the watch keeps running.
func Watch(paths []string, reload func() error, logger *slog.Logger) (*Watcher, error) {
	logger = logging.Default(logger).With("component", "seed-watch")

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for _, path := range paths {
		if err := fw.Add(path); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %q: %w", path, err)
		}
	}

	w := &Watcher{watcher: fw, done: make(chan struct{})}
	go w.loop(reload, logger)
	return w, nil
}

func (w *Watcher) loop(reload func() error, logger *slog.Logger) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := reload(); err != nil {
					logger.Error("reload failed", "path", ev.Name, "error", err)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// Close stops the watcher and waits for the watch loop to exit.
func (w *Watcher) Close() {
	_ = w.watcher.Close()
	<-w.done
}

// WatchSnapshotFile loads the snapshot into the store, then keeps the store in
// sync: every rewrite of the file replaces the store contents wholesale.
func WatchSnapshotFile(ctx context.Context, path string, st store.Writer, logger *slog.Logger) (*Watcher, error) {
	logger = logging.Default(logger)

	reload := func() error {
		snap, err := ReadSnapshotFile(path)
		if err != nil {
			return err
		}
		n, err := Replace(ctx, st, snap)
		if err != nil {
			return err
		}
		logger.Debug("snapshot loaded", "path", path, "records", n)
		return nil
	}
	if err := reload(); err != nil {
		return nil, err
	}
	return Watch([]string{path}, reload, logger)
}
