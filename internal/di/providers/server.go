package providers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/earconlabs/earcon/internal/api"
	"github.com/earconlabs/earcon/internal/catalog"
	"github.com/earconlabs/earcon/internal/config"
	"github.com/earconlabs/earcon/internal/id"
	"github.com/earconlabs/earcon/internal/logger"
	"github.com/earconlabs/earcon/internal/mdns"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
	timeout time.Duration
}

// Shutdown implements do.Shutdownable. In-flight requests drain before the
// API's own workers stop.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the control API server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	prefsHandle := do.MustInvoke[*PrefStoreHandle](i)
	historyHandle := do.MustInvoke[*HistoryHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	cat := do.MustInvoke[*catalog.Catalog](i)
	engineHandle := do.MustInvoke[*EngineHandle](i)

	services := &api.Services{
		Prefs:   prefsHandle.Store,
		Engine:  engineHandle.Feedback,
		Catalog: cat,
		Search:  indexHandle.SearchIndex,
		History: historyHandle.Store,
	}

	handler := api.NewServer(services, sseHandle.Manager, mdns.ServerVersion, log.Logger)

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = shutdownTimeout
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("Control API starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Control API error", "error", err)
		}
	}()

	log.Info("Control API running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, handler: handler, timeout: timeout}, nil
}

// MDNSServiceHandle wraps mdns.Service with Shutdownable.
type MDNSServiceHandle struct {
	*mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started && h.Service != nil {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService provides the mDNS advertisement service.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled by configuration")
		return &MDNSServiceHandle{Service: nil, started: false}, nil
	}

	svc := mdns.NewService(log.Logger)

	// Parse port
	port := 7733
	if _, err := fmt.Sscanf(cfg.Server.Port, "%d", &port); err != nil {
		log.Warn("Failed to parse server port for mDNS, using default", "port", cfg.Server.Port)
	}

	instance := mdns.Instance{
		ID:   id.MustNew(id.PrefixInstance),
		Name: cfg.Server.Name,
	}

	if err := svc.Start(instance, port); err != nil {
		log.Warn("mDNS advertisement unavailable", "error", err)
		// Non-fatal: the daemon works without mDNS (e.g., Docker, headless hosts)
		return &MDNSServiceHandle{Service: svc, started: false}, nil
	}

	return &MDNSServiceHandle{Service: svc, started: true}, nil
}
