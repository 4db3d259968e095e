package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
)

const defaultDebounce = 150 * time.Millisecond

// Watcher re-reads the config file when it changes on disk.
type Watcher struct {
	path     string
	load     func() (*Config, error)
	debounce time.Duration
	logger   *logging.Logger
}

// NewWatcher watches path and calls load on every change. Invalid results
// are logged and skipped.
func NewWatcher(path string, load func() (*Config, error), logger *logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		load:     load,
		debounce: defaultDebounce,
		logger:   logger.WithComponent("config-watcher"),
	}
}

// Run blocks until ctx is done, passing each reloaded configuration to
// onChange. The parent directory is watched because editors replace files
// by renaming over them.
func (w *Watcher) Run(ctx context.Context, onChange func(*Config)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", w.path, err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-timer.C:
			cfg, err := w.load()
			if err != nil {
				w.logger.Warn("config reload failed", "path", w.path, "error", err)
				continue
			}
			if err := ValidateConfig(cfg); err != nil {
				w.logger.Warn("reloaded config is invalid", "path", w.path, "error", err)
				continue
			}
			w.logger.Info("config reloaded", "path", w.path)
			onChange(cfg)
		}
	}
}
