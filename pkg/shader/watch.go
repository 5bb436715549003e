package shader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports edits to a set of shader files. Notifications are
// coalesced: several writes before the consumer looks collapse into one.
//
// The watcher never touches GL; the render loop polls Changed and rebuilds
// the program on its own thread.
type Watcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	changed chan struct{}
	logger  *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher starts watching paths. The parent directories are watched so
// that editors which save by renaming a temporary file are noticed too.
func NewWatcher(logger *slog.Logger, paths ...string) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating shader watcher: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		files:   make(map[string]bool),
		changed: make(chan struct{}, 1),
		logger:  logger,
		done:    make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("error resolving %s: %w", p, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("error watching %s: %w", dir, err)
		}
	}

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("shader source changed", "file", event.Name, "op", event.Op.String())
			select {
			case w.changed <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("shader watcher error", "err", err)

		case <-w.done:
			return
		}
	}
}

// Changed delivers a value after one or more watched files changed.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Pending reports, without blocking, whether a change arrived since the
// last call.
func (w *Watcher) Pending() bool {
	select {
	case <-w.changed:
		return true
	default:
		return false
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
