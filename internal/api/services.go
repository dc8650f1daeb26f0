package api

import (
	"github.com/earconlabs/earcon/internal/catalog"
	"github.com/earconlabs/earcon/internal/history"
	"github.com/earconlabs/earcon/internal/prefs"
	"github.com/earconlabs/earcon/internal/search"
	"github.com/earconlabs/earcon/pkg/earcon"
)

// Services groups the daemon subsystems the API server fronts.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Prefs   *prefs.Store        // Badger-backed preference store
	Engine  *earcon.Feedback    // Playback engine
	Catalog *catalog.Catalog    // Sound pack inventory
	Search  *search.SearchIndex // Bleve index over the sound inventory
	History *history.Store      // SQLite playback ledger
}
