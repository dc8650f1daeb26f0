package earcon

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/earconlabs/earcon/internal/logger"
)

// Preference keys recognized by providers. Scoped with an "audio" prefix so
// they never collide with unrelated application preferences sharing a store.
const (
	KeyEnabled        = "audioEffectsEnabled"
	KeyLoggingEnabled = "audioLoggingEnabled"
	KeyLogThreshold   = "audioLogThreshold"
	KeyLogCooldown    = "audioLogCooldown"
)

// Defaults applied when a provider has no stored value. A stored zero is
// indistinguishable from an absent key; both yield the default.
const (
	DefaultLogThreshold = 20
	DefaultLogCooldown  = 120 * time.Second
)

// Values carries raw preference values as read from a store. Zero numeric
// values mean "not configured".
type Values struct {
	Enabled        bool
	LoggingEnabled bool
	LogThreshold   int // attempts
	LogCooldown    int // seconds
}

// Snapshot is the effective, defaulted view of the preferences. It is a
// value type: readers hold their own copy and never see a torn update.
type Snapshot struct {
	Enabled        bool
	LoggingEnabled bool
	LogThreshold   int
	LogCooldown    time.Duration
}

// DefaultSnapshot returns the snapshot used before any provider load
// succeeds: cues off, logging off, throttle at documented defaults.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		LogThreshold: DefaultLogThreshold,
		LogCooldown:  DefaultLogCooldown,
	}
}

func snapshotFrom(v Values) Snapshot {
	s := Snapshot{
		Enabled:        v.Enabled,
		LoggingEnabled: v.LoggingEnabled,
		LogThreshold:   DefaultLogThreshold,
		LogCooldown:    DefaultLogCooldown,
	}
	if v.LogThreshold > 0 {
		s.LogThreshold = v.LogThreshold
	}
	if v.LogCooldown > 0 {
		s.LogCooldown = time.Duration(v.LogCooldown) * time.Second
	}
	return s
}

// Provider is the opaque external settings store.
//
// Load returns the raw values; absent keys stay zero. Subscribe returns a
// channel that pulses after a value changes, plus a cancel func. A provider
// with no change stream may return a nil channel.
type Provider interface {
	Load(ctx context.Context) (Values, error)
	Subscribe() (<-chan struct{}, func())
}

// StaticProvider serves fixed values and never notifies. Used by the CLI
// tools and as a test double.
type StaticProvider struct {
	V Values
}

// Load implements Provider.
func (p StaticProvider) Load(context.Context) (Values, error) {
	return p.V, nil
}

// Subscribe implements Provider.
func (p StaticProvider) Subscribe() (<-chan struct{}, func()) {
	return nil, func() {}
}

// SettingsCache maintains a thread-safe, eventually-consistent snapshot of
// the audio preferences, refreshed from the provider's change notifications.
//
// Read is a lock-free atomic load and safe from any number of goroutines.
// Refresh and Inject serialize on an internal mutex: there is exactly one
// writer section at a time, and the snapshot is replaced wholesale, so a
// concurrent reader sees either the old or the new snapshot, never a mix.
type SettingsCache struct {
	log  *logger.Logger
	snap atomic.Pointer[Snapshot]

	mu       sync.Mutex // guards provider, notify, unsub and serializes refresh
	provider Provider
	notify   <-chan struct{}
	unsub    func()

	rewired   chan struct{} // pulsed by Inject so watch re-reads notify
	done      chan struct{}
	closeOnce sync.Once
}

// NewSettingsCache builds a cache over the provider and performs the initial
// load. If the load fails the cache starts from defaults and logs a warning;
// it never fails construction.
func NewSettingsCache(p Provider, log *logger.Logger) *SettingsCache {
	if log == nil {
		log = logger.Discard()
	}

	c := &SettingsCache{
		log:     log,
		rewired: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	def := DefaultSnapshot()
	c.snap.Store(&def)

	c.mu.Lock()
	c.attachLocked(p)
	if err := c.refreshLocked(context.Background()); err != nil {
		log.WithError(err).Warn("initial settings load failed, using defaults")
	}
	c.mu.Unlock()

	go c.watch()
	return c
}

// Read returns the current snapshot. Never blocks, even while a refresh is
// in progress.
func (c *SettingsCache) Read() Snapshot {
	return *c.snap.Load()
}

// Refresh re-reads all fields from the provider and swaps the snapshot
// atomically. Concurrent calls serialize; a failed load leaves the previous
// snapshot in place.
func (c *SettingsCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// Inject replaces the provider wholesale (test doubles, runtime rewiring),
// with the same atomicity contract as Refresh. The old subscription is
// cancelled before the new one attaches.
func (c *SettingsCache) Inject(p Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unsub != nil {
		c.unsub()
	}
	c.attachLocked(p)
	if err := c.refreshLocked(context.Background()); err != nil {
		c.log.WithError(err).Warn("settings load failed after provider injection")
	}

	// Wake the watcher off the old channel.
	select {
	case c.rewired <- struct{}{}:
	default:
	}
}

// Close stops the notification goroutine and cancels the subscription.
func (c *SettingsCache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.unsub != nil {
			c.unsub()
		}
		c.mu.Unlock()
	})
}

func (c *SettingsCache) attachLocked(p Provider) {
	c.provider = p
	c.notify, c.unsub = p.Subscribe()
}

func (c *SettingsCache) refreshLocked(ctx context.Context) error {
	vals, err := c.provider.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	snap := snapshotFrom(vals)
	c.snap.Store(&snap)
	return nil
}

// watch drains the subscription channel, refreshing once per pulse. It
// re-reads the channel under the lock each iteration; Inject pulses rewired
// to kick it off a stale channel. A nil channel (static provider) parks
// until rewire or shutdown.
func (c *SettingsCache) watch() {
	for {
		c.mu.Lock()
		ch := c.notify
		c.mu.Unlock()

		select {
		case <-c.done:
			return
		case <-c.rewired:
			continue
		case _, ok := <-ch:
			if !ok {
				// Channel closed by an unsubscribe. Park on a nil channel
				// until a new provider is injected, unless Inject already
				// swapped one in.
				c.mu.Lock()
				if c.notify == ch {
					c.notify = nil
				}
				c.mu.Unlock()
				continue
			}
			if err := c.Refresh(context.Background()); err != nil {
				c.log.WithError(err).Warn("settings refresh failed")
			}
		}
	}
}
