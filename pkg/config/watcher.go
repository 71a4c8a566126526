package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/actorflow/actorflow/pkg/telemetry"
)

// DefaultReloadDelay is how long a burst of file events must be quiet
// before the document is reloaded.
const DefaultReloadDelay = 500 * time.Millisecond

// Watcher reloads a workflow document whenever it changes on disk.
type Watcher struct {
	path   string
	logger *telemetry.Logger
	delay  time.Duration
}

// NewWatcher creates a watcher for the document at path.
func NewWatcher(path string, logger *telemetry.Logger) *Watcher {
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &Watcher{
		path:   filepath.Clean(path),
		logger: logger.NewComponentLogger("config-watcher").WithField("path", path),
		delay:  DefaultReloadDelay,
	}
}

// SetDelay overrides the debounce delay.
func (w *Watcher) SetDelay(d time.Duration) {
	w.delay = d
}

// Watch blocks until ctx is done, calling onChange with the freshly
// loaded document after each change. The parent directory is watched so
// that editors replacing the file by rename are seen. Documents that fail
// to load are logged and skipped; an onChange error is logged and
// watching continues. onChange is never called concurrently.
func (w *Watcher) Watch(ctx context.Context, onChange func(*Document) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.logger.Info("watching workflow document for changes")

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.WithField("op", event.Op.String()).Debug("workflow document changed")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.delay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			doc, err := LoadFile(w.path)
			if err != nil {
				w.logger.WithError(err).Error("failed to reload workflow document")
				continue
			}
			if err := onChange(doc); err != nil {
				w.logger.WithError(err).Error("failed to apply reloaded workflow document")
				continue
			}
			w.logger.Info("workflow document reloaded")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Error("watcher error")
		}
	}
}
