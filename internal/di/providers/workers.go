package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/earconlabs/earcon/internal/catalog"
	"github.com/earconlabs/earcon/internal/config"
	"github.com/earconlabs/earcon/internal/logger"
	"github.com/earconlabs/earcon/internal/watcher"
)

// FileWatcherHandle wraps the pack directory watcher with shutdown capability.
type FileWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideFileWatcher provides the pack directory watcher. Every settled
// change triggers a catalog rescan, which in turn refreshes the search
// index and notifies stream clients through the catalog's reload hook.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cat := do.MustInvoke[*catalog.Catalog](i)

	if !cfg.Sounds.Watch || cfg.Sounds.PackDir == "" {
		log.Info("Pack watching disabled by configuration")
		return &FileWatcherHandle{}, nil
	}

	w, err := watcher.New(log, watcher.Options{IgnoreHidden: true})
	if err != nil {
		return nil, err
	}

	if err := w.Watch(cfg.Sounds.PackDir); err != nil {
		return nil, err
	}

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Pack watcher error", "error", err)
		}
	}()

	// Process events in background
	go func() {
		for {
			select {
			case event := <-w.Events():
				log.Debug("Pack change detected", "type", event.Type, "path", event.Path)
				if err := cat.Scan(ctx); err != nil {
					log.Warn("Rescan after pack change failed", "error", err)
				}
			case err := <-w.Errors():
				log.Warn("pack watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Pack watcher started", "path", cfg.Sounds.PackDir)

	return &FileWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}

// HistoryPruneJob runs periodic ledger pruning.
type HistoryPruneJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *HistoryPruneJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideHistoryPruneJob provides the periodic ledger retention job.
func ProvideHistoryPruneJob(i do.Injector) (*HistoryPruneJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	historyHandle := do.MustInvoke[*HistoryHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	retention := cfg.History.Retention
	if retention <= 0 {
		log.Info("History pruning disabled by configuration")
		return &HistoryPruneJob{cancel: func() {}}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Initial prune on startup
		if count, err := historyHandle.Prune(ctx, time.Now().Add(-retention)); err != nil {
			log.Warn("Initial history prune failed", "error", err)
		} else if count > 0 {
			log.Info("Initial history prune completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := historyHandle.Prune(ctx, time.Now().Add(-retention)); err != nil {
					log.Warn("History prune failed", "error", err)
				} else if count > 0 {
					log.Info("History prune completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("History prune job started", "retention", retention)

	return &HistoryPruneJob{cancel: cancel}, nil
}
