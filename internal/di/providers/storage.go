package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/earconlabs/earcon/internal/config"
	"github.com/earconlabs/earcon/internal/history"
	"github.com/earconlabs/earcon/internal/logger"
	"github.com/earconlabs/earcon/internal/prefs"
)

// PrefStoreHandle wraps the preference store with shutdown capability.
type PrefStoreHandle struct {
	*prefs.Store
}

// Shutdown implements do.Shutdownable.
func (h *PrefStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvidePrefStore provides the badger-backed preference store.
func ProvidePrefStore(i do.Injector) (*PrefStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := prefs.New(cfg.Storage.PrefsPath, log)
	if err != nil {
		return nil, fmt.Errorf("preference store: %w", err)
	}

	return &PrefStoreHandle{Store: store}, nil
}

// HistoryHandle wraps the playback ledger with shutdown capability.
type HistoryHandle struct {
	*history.Store
}

// Shutdown implements do.Shutdownable.
func (h *HistoryHandle) Shutdown() error {
	return h.Close()
}

// ProvideHistory provides the SQLite playback ledger.
func ProvideHistory(i do.Injector) (*HistoryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	// SQLite creates the file but not its parents.
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.HistoryPath), 0o755); err != nil {
		return nil, fmt.Errorf("history dir: %w", err)
	}

	store, err := history.Open(cfg.Storage.HistoryPath, log)
	if err != nil {
		return nil, fmt.Errorf("playback ledger: %w", err)
	}

	return &HistoryHandle{Store: store}, nil
}
