package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long to wait after a write event before
// reloading, so editors that write in several steps produce one
// reload.
const watchDebounce = 250 * time.Millisecond

// Watcher reloads a config file on change and delivers each valid new
// configuration on Updates. Reloads that fail to parse or validate
// are logged and dropped; the previous configuration stays in effect.
type Watcher struct {
	path    string
	logger  *slog.Logger
	updates chan *Config

	timerMu sync.Mutex
	timer   *time.Timer
}

// NewWatcher creates a watcher for the given config file
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:    path,
		logger:  logger,
		updates: make(chan *Config, 1),
	}
}

// Updates delivers each successfully reloaded configuration
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Watch blocks until ctx is cancelled, reloading the file on write
// events. The file's directory is watched rather than the file itself
// so rename-based saves keep working.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	file := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// scheduleReload debounces bursts of write events into one reload
func (w *Watcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := LoadFromFile(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous config", "path", w.path, "error", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("reloaded config is invalid, keeping previous config", "path", w.path, "error", err)
		return
	}

	// Keep only the newest pending config if the consumer is slow.
	select {
	case <-w.updates:
	default:
	}
	w.updates <- cfg
	w.logger.Info("configuration reloaded", "path", w.path)
}
