package watcher

import "context"

// Backend defines the platform-specific file watching implementation.
type Backend interface {
	// Watch adds a directory to be monitored. Only files directly inside
	// it are reported; sound packs are flat.
	Watch(path string) error

	// Start begins watching for events. Blocks until ctx is canceled or
	// Stop is called.
	Start(ctx context.Context) error

	// Stop stops the watcher and releases all resources.
	Stop() error

	// Events returns the channel for receiving file system events.
	Events() <-chan Event

	// Errors returns the channel for receiving errors.
	Errors() <-chan error
}
