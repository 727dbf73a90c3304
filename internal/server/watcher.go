package server

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// Watcher watches the config file and projects directory and tells
// connected sessions to reload when they change. Dev mode only.
type Watcher struct {
	paths  []string
	logger *slog.Logger

	mu   sync.Mutex
	subs map[*Session]struct{}
}

// NewWatcher creates a watcher over the given paths. Paths that do not
// exist yet are skipped at startup.
func NewWatcher(paths []string, logger *slog.Logger) *Watcher {
	return &Watcher{
		paths:  paths,
		logger: logger.With("component", "watcher"),
		subs:   make(map[*Session]struct{}),
	}
}

// Subscribe registers a session for reload notifications.
func (w *Watcher) Subscribe(s *Session) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs[s] = struct{}{}
}

// Unsubscribe removes a session.
func (w *Watcher) Unsubscribe(s *Session) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.subs, s)
}

// Run watches until ctx is cancelled. Changes are debounced so a save
// that touches several files triggers one reload.
func (w *Watcher) Run(ctx context.Context) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("watcher start failed", "error", err)
		return
	}
	defer fw.Close()

	watched := 0
	for _, p := range w.paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := fw.Add(p); err != nil {
			w.logger.Warn("cannot watch path", "path", p, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		w.logger.Info("nothing to watch")
		return
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			w.broadcast()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) broadcast() {
	w.mu.Lock()
	sessions := make([]*Session, 0, len(w.subs))
	for s := range w.subs {
		sessions = append(sessions, s)
	}
	w.mu.Unlock()

	w.logger.Info("broadcasting reload", "sessions", len(sessions))
	for _, s := range sessions {
		s.send(serverFrame{Type: "reload"})
	}
}
