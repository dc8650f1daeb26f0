package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/earconlabs/earcon/internal/catalog"
	"github.com/earconlabs/earcon/internal/config"
	"github.com/earconlabs/earcon/internal/logger"
	"github.com/earconlabs/earcon/internal/search"
	"github.com/earconlabs/earcon/internal/sse"
)

// ProvideCatalog provides the custom sound pack catalog. Every successful
// scan flows into the search index and onto the event stream, so clients
// and search stay consistent with the directory without extra wiring.
func ProvideCatalog(i do.Injector) (*catalog.Catalog, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	if cfg.Sounds.PackDir != "" {
		if err := os.MkdirAll(cfg.Sounds.PackDir, 0o755); err != nil {
			return nil, fmt.Errorf("pack dir: %w", err)
		}
	}

	cat := catalog.New(catalog.Options{
		Dir:    cfg.Sounds.PackDir,
		Logger: log,
		Prober: catalog.MetaProber{},
		OnReload: func(entries []catalog.Entry) {
			if err := indexHandle.Reindex(search.Documents(entries)); err != nil {
				log.Error("Search reindex after catalog reload failed", "error", err)
			}
			sseHandle.Emit(sse.NewCatalogReloadedEvent(len(entries)))
		},
	})

	// The first scan runs inline: the control API never serves an
	// uninventoried pack, and a failure is not fatal because system cues
	// work without one.
	if err := cat.Scan(context.Background()); err != nil {
		log.Warn("Initial pack scan failed", "error", err)
	}

	log.Info("Sound catalog ready", "clips", cat.Len())

	return cat, nil
}
