// Package watcher reports changes to the sound pack directory so the
// catalog can rescan without polling.
package watcher

import (
	"context"
	"fmt"
	"runtime"

	"github.com/earconlabs/earcon/internal/logger"
)

// Watcher monitors file system changes.
type Watcher struct {
	backend Backend
	log     *logger.Logger
}

// New creates a new file watcher. The best backend for the platform is
// selected automatically:
//   - Linux: inotify with IN_CLOSE_WRITE, which fires once the writer is
//     done and needs no settle delay.
//   - Others: fsnotify with settle-timer debouncing, reliable everywhere.
func New(log *logger.Logger, opts Options) (*Watcher, error) {
	if log == nil {
		log = logger.Discard()
	}
	opts.setDefaults()

	var backend Backend
	var err error

	if runtime.GOOS == "linux" {
		backend, err = newLinuxBackend(log, opts)
		log.Debug("using Linux inotify backend")
	} else {
		backend, err = newFallbackBackend(log, opts)
		log.Debug("using fsnotify fallback backend", "platform", runtime.GOOS)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create backend: %w", err)
	}

	return &Watcher{
		backend: backend,
		log:     log,
	}, nil
}

// Watch adds a directory to be monitored.
func (w *Watcher) Watch(path string) error {
	return w.backend.Watch(path)
}

// Start begins watching for events. Blocks until the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	return w.backend.Start(ctx)
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() error {
	return w.backend.Stop()
}

// Events returns the channel for receiving file system events.
func (w *Watcher) Events() <-chan Event {
	return w.backend.Events()
}

// Errors returns the channel for receiving errors.
func (w *Watcher) Errors() <-chan error {
	return w.backend.Errors()
}
