package sse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/earconlabs/earcon/internal/id"
)

const (
	// eventQueueSize buffers Emit against bursts; a feedback storm can
	// outrun the broadcast loop briefly without dropping frames.
	eventQueueSize = 1000
	// clientBufferSize buffers per-client delivery. A client that falls
	// this far behind starts losing events rather than stalling others.
	clientBufferSize = 100
)

// Client is one connected event stream subscriber.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
}

// Manager fans daemon events out to connected stream clients. Events are
// queued through Emit and delivered by the broadcast loop started in Start.
type Manager struct {
	clients map[string]*Client
	events  chan Event
	logger  *slog.Logger

	mu       sync.RWMutex // guards clients
	wg       sync.WaitGroup
	quit     chan struct{}
	quitOnce sync.Once
}

// NewManager creates an event manager. Call Start to begin delivery.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		events:  make(chan Event, eventQueueSize),
		logger:  logger,
		quit:    make(chan struct{}),
	}
}

// Start runs the broadcast loop until Shutdown is called or ctx is
// canceled. Run it in its own goroutine, once.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.logger.Info("event broadcaster started")

	for {
		select {
		case event := <-m.events:
			m.broadcast(event)

		case <-m.quit:
			// Shutdown drains the queue and closes clients.
			return

		case <-ctx.Done():
			m.logger.Info("event broadcaster stopping")
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops the broadcast loop, flushes queued events to the clients
// still connected, and closes them. Emit becomes a no-op from here on.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.quitOnce.Do(func() { close(m.quit) })

	// Wait the loop out so the drain below is the only queue reader.
	stopped := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		m.logger.Warn("broadcast loop did not stop in time, draining anyway")
	}

	if flushed := m.drain(); flushed > 0 {
		m.logger.Info("flushed queued events on shutdown", slog.Int("events", flushed))
	}
	m.closeAllClients()

	m.logger.Info("event broadcaster shut down")
	return nil
}

// drain delivers whatever is still queued without blocking.
func (m *Manager) drain() int {
	flushed := 0
	for {
		select {
		case event := <-m.events:
			m.broadcast(event)
			flushed++
		default:
			return flushed
		}
	}
}

// broadcast sends one event to every connected client. Sends never block:
// a client with a full buffer loses the event instead of holding up the rest.
func (m *Manager) broadcast(event Event) {
	var delivered, dropped int

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		select {
		case client.EventChan <- event:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", client.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	if event.Type != EventHeartbeat {
		m.logger.Debug("event broadcast",
			slog.String("event_type", string(event.Type)),
			slog.Group("stats",
				slog.Int("delivered", delivered),
				slog.Int("dropped", dropped)))
	}
}

// Connect registers a new stream client.
func (m *Manager) Connect() (*Client, error) {
	clientID, err := id.New(id.PrefixClient)
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		EventChan:   make(chan Event, clientBufferSize),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("event stream client connected",
		slog.String("client_id", clientID),
		slog.Int("total_clients", total))
	return client, nil
}

// Disconnect removes a client and closes its channels. Unknown IDs are
// ignored so the handler can disconnect unconditionally on the way out.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	total := len(m.clients)
	m.mu.Unlock()

	close(client.Done)
	close(client.EventChan)

	m.logger.Info("event stream client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", total))
}

// Emit queues an event for broadcast. It never blocks: after shutdown the
// event is discarded, and when the queue is full it is dropped with a log
// line. Cue events are cosmetic, so losing one beats stalling a caller.
func (m *Manager) Emit(event Event) {
	select {
	case <-m.quit:
		return
	default:
	}

	select {
	case m.events <- event:
	default:
		m.logger.Error("event queue full, dropping event",
			slog.String("event_type", string(event.Type)))
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// closeAllClients disconnects everyone at once. Safe to call twice; the
// second call sees an empty map.
func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.clients) == 0 {
		return
	}

	for _, client := range m.clients {
		close(client.Done)
		close(client.EventChan)
	}
	m.clients = make(map[string]*Client)

	m.logger.Info("all event stream clients disconnected")
}
