// Package di provides dependency injection configuration for the earcon daemon.
package di

import (
	"github.com/samber/do/v2"

	"github.com/earconlabs/earcon/internal/catalog"
	"github.com/earconlabs/earcon/internal/config"
	"github.com/earconlabs/earcon/internal/di/providers"
	"github.com/earconlabs/earcon/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Event stream
	do.Provide(injector, providers.ProvideSSEManager)

	// State stores
	do.Provide(injector, providers.ProvidePrefStore)
	do.Provide(injector, providers.ProvideHistory)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Sound inventory
	do.Provide(injector, providers.ProvideCatalog)

	// Playback engine
	do.Provide(injector, providers.ProvideEngine)

	// Workers
	do.Provide(injector, providers.ProvideFileWatcher)
	do.Provide(injector, providers.ProvideHistoryPruneJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services. The invocation order
// here fixes the shutdown order: do tears services down in reverse, so the HTTP
// server stops before the engine, and the engine before the stores it writes to.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.PrefStoreHandle](injector)
	_ = do.MustInvoke[*providers.HistoryHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*catalog.Catalog](injector)
	_ = do.MustInvoke[*providers.EngineHandle](injector)

	// Workers
	_ = do.MustInvoke[*providers.FileWatcherHandle](injector)
	_ = do.MustInvoke[*providers.HistoryPruneJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	// Catch the paths where the catalog could not feed the index: a disabled
	// pack directory still leaves the system sound tables to search.
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
