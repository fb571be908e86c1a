package agent

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nstehr/pitch/pitch-core/config"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads the configuration file when it changes on disk and hands
// the new configuration to every subscriber. A file that fails to load or
// validate is logged and the previous configuration stays active.
type Watcher struct {
	path      string
	debounce  time.Duration
	overrides *config.Runtime

	mu      sync.Mutex
	current config.Config
	subs    map[int]func(config.Config) error
	nextID  int
}

type WatcherOption func(*Watcher)

// WithOverrides applies environment overrides to every reloaded file.
func WithOverrides(rt config.Runtime) WatcherOption {
	return func(w *Watcher) { w.overrides = &rt }
}

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

func NewWatcher(path string, initial config.Config, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	w := &Watcher{
		path:     abs,
		debounce: defaultDebounce,
		current:  initial,
		subs:     make(map[int]func(config.Config) error),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Current returns the last configuration that loaded successfully.
func (w *Watcher) Current() config.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Subscribe registers fn for future reloads. The returned function removes
// the subscription.
func (w *Watcher) Subscribe(fn func(config.Config) error) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// Reload reads the file and notifies subscribers. Subscriber failures are
// logged; they do not roll back the other subscribers.
func (w *Watcher) Reload() error {
	cfg, err := config.LoadFile(w.path)
	if err != nil {
		return err
	}
	if w.overrides != nil {
		w.overrides.Apply(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	w.mu.Lock()
	w.current = *cfg
	subs := make([]func(config.Config) error, 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	for _, fn := range subs {
		if err := fn(*cfg); err != nil {
			slog.Warn("subscriber rejected reloaded config", "path", w.path, "error", err)
		}
	}
	slog.Info("config reloaded", "path", w.path, "subscribers", len(subs))
	return nil
}

// Run watches the file's directory until ctx is cancelled. Editors often
// replace a file rather than write it, so the directory is watched and
// events are filtered by name.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	slog.Info("watching config", "path", w.path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(w.debounce)
			}
		case <-pending:
			pending = nil
			if err := w.Reload(); err != nil {
				slog.Warn("config reload failed, keeping previous config", "path", w.path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}
