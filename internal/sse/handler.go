package sse

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// heartbeatInterval spaces the keepalive frames. Long enough to stay
	// quiet, short enough that idle proxies keep the connection open.
	heartbeatInterval = 30 * time.Second
	// writeDeadline is re-armed after every frame so a hung client cannot
	// pin the connection forever.
	writeDeadline = 60 * time.Second
)

// Handler streams manager events to one client. It lives on the raw chi
// router (GET /api/v1/events) because huma buffers response bodies.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates the stream handler for the events route.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  logger,
	}
}

// ServeHTTP upgrades the request to an event stream: register with the
// manager, send the hello frame, then forward broadcast events and
// heartbeats until the client goes away or the manager shuts down.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Context().Err() != nil {
		// Client was gone before we did any work.
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // reverse proxies must not buffer the stream

	rc := http.NewResponseController(w)

	// Headers must reach the client before the first frame.
	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush stream headers", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.manager.Connect()
	if err != nil {
		h.logger.Error("failed to register event stream client", slog.String("error", err.Error()))
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	log := h.logger.With(slog.String("client_id", client.ID))

	if err := h.writeFrame(w, rc, NewConnectedEvent(client.ID)); err != nil {
		log.Warn("failed to send hello frame", slog.String("error", err.Error()))
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				log.Info("event channel closed")
				return
			}
			if err := h.writeFrame(w, rc, event); err != nil {
				// Client disconnect is normal, not an error condition.
				log.Info("client disconnected during send")
				return
			}

		case <-heartbeat.C:
			if err := h.writeFrame(w, rc, NewHeartbeatEvent()); err != nil {
				log.Info("client disconnected during heartbeat")
				return
			}

		case <-client.Done:
			// Manager closed this client (daemon shutdown).
			log.Info("client closed by manager")
			return

		case <-r.Context().Done():
			log.Info("client context canceled")
			return
		}
	}
}

// writeFrame renders one event in wire format and flushes it:
//
//	event: <type>
//	data: <json>
//	(blank line)
func (h *Handler) writeFrame(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	if err := rc.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		// Not every ResponseWriter supports deadlines; the stream still works.
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}
	return nil
}
