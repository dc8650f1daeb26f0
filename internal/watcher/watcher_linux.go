//go:build linux

package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/earconlabs/earcon/internal/logger"
)

// linuxBackend implements Backend using Linux inotify with IN_CLOSE_WRITE.
type linuxBackend struct {
	log     *logger.Logger
	opts    Options
	watches map[string]int
	wdPaths map[int]string
	known   map[string]struct{} // files seen so far, to tell adds from modifies
	events  chan Event
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	fd      int
	mu      sync.RWMutex
}

// newLinuxBackend creates a new Linux-specific file watcher backend.
func newLinuxBackend(log *logger.Logger, opts Options) (*linuxBackend, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inotify: %w", err)
	}

	return &linuxBackend{
		log:     log,
		opts:    opts,
		fd:      fd,
		watches: make(map[string]int),
		wdPaths: make(map[int]string),
		known:   make(map[string]struct{}),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a directory to be monitored and seeds the known file set so
// later close-writes on existing files report as modifications.
func (b *linuxBackend) Watch(path string) error {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path is not a directory: %s", path)
	}

	if err := b.addWatch(path); err != nil {
		return err
	}
	return b.seedKnown(path)
}

func (b *linuxBackend) seedKnown(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list directory: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() || b.opts.shouldIgnore(e.Name()) {
			continue
		}
		b.known[filepath.Join(dir, e.Name())] = struct{}{}
	}
	return nil
}

// addWatch adds an inotify watch for a directory.
func (b *linuxBackend) addWatch(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.watches[path]; exists {
		return nil
	}

	// IN_CLOSE_WRITE: file closed after writing, so its content is complete.
	// IN_MOVED_TO: file moved into the watched directory.
	// IN_DELETE / IN_MOVED_FROM: file removed from the watched directory.
	// IN_DELETE_SELF: the watched directory itself was deleted.
	mask := unix.IN_CLOSE_WRITE | unix.IN_MOVED_TO | unix.IN_DELETE | unix.IN_MOVED_FROM | unix.IN_DELETE_SELF

	wd, err := unix.InotifyAddWatch(b.fd, path, uint32(mask))
	if err != nil {
		return fmt.Errorf("inotify_add_watch failed: %w", err)
	}

	b.watches[path] = wd
	b.wdPaths[wd] = path
	b.log.Debug("added watch", "path", path, "wd", wd)

	return nil
}

// removeWatch removes an inotify watch for a path.
func (b *linuxBackend) removeWatch(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wd, exists := b.watches[path]
	if !exists {
		return
	}

	// Ignore errors, the directory may already be gone.
	_, _ = unix.InotifyRmWatch(b.fd, uint32(wd))

	delete(b.watches, path)
	delete(b.wdPaths, wd)
	b.log.Debug("removed watch", "path", path, "wd", wd)
}

// Start begins watching for events.
func (b *linuxBackend) Start(ctx context.Context) error {
	b.wg.Add(1)
	go b.readEvents(ctx)

	<-ctx.Done()
	return nil
}

// readEvents reads events from inotify.
func (b *linuxBackend) readEvents(ctx context.Context) {
	defer b.wg.Done()

	buf := make([]byte, unix.SizeofInotifyEvent*100)

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		default:
			n, err := unix.Read(b.fd, buf)
			if err != nil {
				if err == unix.EINTR {
					continue
				}
				if err == unix.EAGAIN {
					// The fd is non-blocking so Stop can win; poll gently.
					time.Sleep(50 * time.Millisecond)
					continue
				}
				b.errors <- fmt.Errorf("failed to read inotify events: %w", err)
				return
			}

			if n < unix.SizeofInotifyEvent {
				continue
			}

			b.parseEvents(buf[:n])
		}
	}
}

// parseEvents parses raw inotify events.
func (b *linuxBackend) parseEvents(buf []byte) {
	offset := 0
	for offset < len(buf) {
		event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		offset += unix.SizeofInotifyEvent + int(event.Len)

		b.mu.RLock()
		dir, ok := b.wdPaths[int(event.Wd)]
		b.mu.RUnlock()

		if !ok {
			continue
		}

		name := ""
		if event.Len > 0 {
			nameBytes := buf[offset-int(event.Len) : offset]
			name = string(nameBytes[:clen(nameBytes)])
		}

		b.processEvent(filepath.Join(dir, name), event.Mask)
	}
}

// processEvent processes a single inotify event.
func (b *linuxBackend) processEvent(path string, mask uint32) {
	if b.opts.shouldIgnore(path) {
		return
	}

	// File removed or moved out of the watched directory.
	if mask&(unix.IN_DELETE|unix.IN_MOVED_FROM) != 0 {
		b.forget(path)
		b.emitEvent(Event{Type: EventRemoved, Path: path})
		return
	}

	// The watched directory itself was deleted.
	if mask&unix.IN_DELETE_SELF != 0 {
		b.emitEvent(Event{Type: EventRemoved, Path: path})
		b.removeWatch(path)
		return
	}

	// IN_CLOSE_WRITE and IN_MOVED_TO both mean the file content is complete.
	if mask&(unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO) != 0 {
		b.handleFileReady(path)
	}
}

// handleFileReady emits an event for a file whose content is complete.
func (b *linuxBackend) handleFileReady(path string) {
	info, err := os.Stat(path)
	if err != nil {
		b.log.Warn("failed to stat file", "path", path, "error", err)
		return
	}
	if info.IsDir() {
		return
	}

	typ := EventModified
	b.mu.Lock()
	if _, seen := b.known[path]; !seen {
		typ = EventAdded
		b.known[path] = struct{}{}
	}
	b.mu.Unlock()

	b.emitEvent(Event{
		Type:    typ,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

func (b *linuxBackend) forget(path string) {
	b.mu.Lock()
	delete(b.known, path)
	b.mu.Unlock()
}

// emitEvent sends an event to the events channel.
func (b *linuxBackend) emitEvent(event Event) {
	select {
	case b.events <- event:
	case <-b.done:
	}
}

// Events returns the events channel.
func (b *linuxBackend) Events() <-chan Event {
	return b.events
}

// Errors returns the errors channel.
func (b *linuxBackend) Errors() <-chan error {
	return b.errors
}

// Stop stops the watcher.
func (b *linuxBackend) Stop() error {
	close(b.done)
	b.wg.Wait()

	var closeErr error
	if b.fd >= 0 {
		closeErr = unix.Close(b.fd)
	}

	close(b.events)
	close(b.errors)

	return closeErr
}

// clen returns the length of a null-terminated byte slice.
func clen(n []byte) int {
	for i := 0; i < len(n); i++ {
		if n[i] == 0 {
			return i
		}
	}
	return len(n)
}

// newFallbackBackend is a stub that should never be called on Linux.
// It exists only to satisfy the compiler when watcher.go references it.
func newFallbackBackend(_ *logger.Logger, _ Options) (Backend, error) {
	return nil, fmt.Errorf("fallback backend not available on Linux")
}
