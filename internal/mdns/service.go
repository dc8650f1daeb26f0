// Package mdns provides Avahi service advertisement for earcond discovery.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/holoplot/go-avahi"
)

const (
	// ServiceType is the DNS-SD service type for earcon daemons.
	ServiceType = "_earcon._tcp"

	// APIVersion is the current API version advertised in TXT records.
	APIVersion = "v1"

	// ServerVersion is the current daemon version advertised in TXT records.
	ServerVersion = "1.0.0"
)

// Instance identifies this daemon on the network.
type Instance struct {
	ID   string // Unique daemon identity, goes into the id TXT record
	Name string // Human-readable service instance name (falls back to hostname)
}

// Service manages Avahi advertisement for the earcon daemon.
// It allows local network discovery of the daemon without manual configuration.
type Service struct {
	server *avahi.Server
	group  *avahi.EntryGroup
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// Start begins advertising the daemon via the Avahi daemon on the system bus.
// It should be called after the HTTP server is running.
//
// Returns an error if registration fails. Errors are typically non-fatal
// (no D-Bus system bus, no Avahi daemon, containered hosts) and callers
// are expected to log and continue.
func (s *Service) Start(instance Instance, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop existing advertisement if running (for restart scenarios)
	s.stopLocked()

	name := instance.Name
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "earcond"
		}
		name = host
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("connect to system bus: %w", err)
	}

	server, err := avahi.ServerNew(conn)
	if err != nil {
		return fmt.Errorf("connect to avahi daemon: %w", err)
	}

	group, err := server.EntryGroupNew()
	if err != nil {
		server.Close()
		return fmt.Errorf("create entry group: %w", err)
	}

	// Build TXT records with daemon metadata
	txt := [][]byte{
		[]byte(fmt.Sprintf("id=%s", instance.ID)),
		[]byte(fmt.Sprintf("version=%s", ServerVersion)),
		[]byte(fmt.Sprintf("api=%s", APIVersion)),
	}

	err = s.register(server, group, name, port, txt)
	if err != nil {
		// A stale advertisement with the same name may still be cached on
		// the network. Retry once under an alternative instance name
		// before giving up.
		altName, altErr := server.GetAlternativeServiceName(name)
		if altErr != nil {
			server.Close()
			return fmt.Errorf("register service: %w", err)
		}
		s.logger.Warn("mDNS registration failed, retrying with alternative name",
			"name", name,
			"alternative", altName,
			"error", err,
		)
		if err := group.Reset(); err != nil {
			server.Close()
			return fmt.Errorf("reset entry group: %w", err)
		}
		if err := s.register(server, group, altName, port, txt); err != nil {
			server.Close()
			return fmt.Errorf("register service: %w", err)
		}
		name = altName
	}

	s.server = server
	s.group = group

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", port,
		"name", name,
		"id", instance.ID,
	)

	return nil
}

// register adds the service to the entry group and commits it.
func (s *Service) register(server *avahi.Server, group *avahi.EntryGroup, name string, port int, txt [][]byte) error {
	err := group.AddService(
		avahi.InterfaceUnspec, // All interfaces
		avahi.ProtoUnspec,     // IPv4 and IPv6
		0,                     // Flags
		name,                  // Instance name
		ServiceType,           // Service type (_earcon._tcp)
		"",                    // Domain (empty = .local)
		"",                    // Host (empty = use avahi hostname)
		uint16(port),          // Port
		txt,                   // TXT records
	)
	if err != nil {
		return fmt.Errorf("add service: %w", err)
	}

	if err := group.Commit(); err != nil {
		return fmt.Errorf("commit entry group: %w", err)
	}

	return nil
}

// Stop stops mDNS advertising.
// Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.server == nil {
		return
	}

	if s.group != nil {
		s.server.EntryGroupFree(s.group)
		s.group = nil
	}
	s.server.Close()
	s.server = nil

	s.logger.Info("mDNS advertisement stopped")
}
