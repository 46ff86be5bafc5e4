// Package watch re-runs an action whenever a single file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"aipm/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce absorbs the burst of events a single save produces.
const DefaultDebounce = 500 * time.Millisecond

// Func is called once per settled change.
type Func func(ctx context.Context) error

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Triggers      int
	Errors        int
	LastEventTime time.Time
	LastEventType string
}

// Watcher watches one file and calls its Func after changes settle.
// Editors often save by replacing the file, so the parent directory is
// watched and events are filtered by name.
type Watcher struct {
	mu       sync.Mutex
	path     string
	dir      string
	debounce time.Duration
	fn       Func
	pending  time.Time // zero when no change is waiting
	stats    Stats
}

// New creates a Watcher for path. A non-positive debounce uses DefaultDebounce.
func New(path string, debounce time.Duration, fn Func) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		debounce: debounce,
		fn:       fn,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Run blocks until ctx is cancelled, calling the Func after each settled
// change. Errors from the Func are logged and counted; they do not stop the
// watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logging.Watch("watching %s (debounce %v)", w.path, w.debounce)

	tick := w.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("stopped watching %s", w.path)
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.WatchWarn("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			if w.settled(time.Now()) {
				w.trigger(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var eventType string
	switch {
	case event.Has(fsnotify.Create):
		eventType = "create"
	case event.Has(fsnotify.Write):
		eventType = "modify"
	case event.Has(fsnotify.Rename), event.Has(fsnotify.Remove):
		// The replacement, if any, arrives as a Create.
		logging.WatchDebug("%s moved away: %s", w.path, event.Op)
		return
	default:
		return
	}

	logging.WatchDebug("%s event for %s", eventType, event.Name)
	now := time.Now()

	w.mu.Lock()
	w.pending = now
	w.stats.Events++
	w.stats.LastEventTime = now
	w.stats.LastEventType = eventType
	w.mu.Unlock()
}

// settled reports whether a pending change has been quiet for the debounce
// window, clearing it if so.
func (w *Watcher) settled(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.IsZero() || now.Sub(w.pending) < w.debounce {
		return false
	}
	w.pending = time.Time{}
	return true
}

func (w *Watcher) trigger(ctx context.Context) {
	w.mu.Lock()
	w.stats.Triggers++
	w.mu.Unlock()

	logging.Watch("%s changed, re-running", w.path)
	if err := w.fn(ctx); err != nil {
		logging.WatchWarn("re-run failed: %v", err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
	}
}

// Stats returns a snapshot of the watcher's activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
