package earcon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu      sync.Mutex
	v       Values
	err     error
	ch      chan struct{}
	cancels int
}

func newFakeProvider(v Values) *fakeProvider {
	return &fakeProvider{v: v, ch: make(chan struct{}, 4)}
}

func (p *fakeProvider) Load(context.Context) (Values, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v, p.err
}

func (p *fakeProvider) Subscribe() (<-chan struct{}, func()) {
	return p.ch, func() {
		p.mu.Lock()
		p.cancels++
		p.mu.Unlock()
	}
}

// set stores new values and pulses the change channel, like a real store
// notifying after a write.
func (p *fakeProvider) set(v Values) {
	p.mu.Lock()
	p.v = v
	p.mu.Unlock()
	p.ch <- struct{}{}
}

func (p *fakeProvider) fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func (p *fakeProvider) cancelCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancels
}

func TestSettingsCache_DefaultsWhenLoadFails(t *testing.T) {
	p := newFakeProvider(Values{})
	p.fail(errors.New("store offline"))

	c := NewSettingsCache(p, nil)
	defer c.Close()

	assert.Equal(t, DefaultSnapshot(), c.Read())
}

func TestSettingsCache_ZeroValuesResolveToDefaults(t *testing.T) {
	// A store that answers but has nothing configured behaves exactly like
	// an absent store: thresholds fall back to 20 attempts / 120 s.
	c := NewSettingsCache(StaticProvider{V: Values{Enabled: true, LoggingEnabled: true}}, nil)
	defer c.Close()

	snap := c.Read()
	assert.True(t, snap.Enabled)
	assert.True(t, snap.LoggingEnabled)
	assert.Equal(t, DefaultLogThreshold, snap.LogThreshold)
	assert.Equal(t, DefaultLogCooldown, snap.LogCooldown)
}

func TestSettingsCache_ReadReflectsStoredValues(t *testing.T) {
	c := NewSettingsCache(StaticProvider{V: Values{
		Enabled:      true,
		LogThreshold: 40,
		LogCooldown:  30,
	}}, nil)
	defer c.Close()

	snap := c.Read()
	assert.True(t, snap.Enabled)
	assert.False(t, snap.LoggingEnabled)
	assert.Equal(t, 40, snap.LogThreshold)
	assert.Equal(t, 30*time.Second, snap.LogCooldown)
}

func TestSettingsCache_NotificationTriggersRefresh(t *testing.T) {
	p := newFakeProvider(Values{Enabled: false})
	c := NewSettingsCache(p, nil)
	defer c.Close()

	require.False(t, c.Read().Enabled)

	p.set(Values{Enabled: true, LogThreshold: 7})

	require.Eventually(t, func() bool {
		snap := c.Read()
		return snap.Enabled && snap.LogThreshold == 7
	}, time.Second, 5*time.Millisecond, "cache never caught up with the write")
}

func TestSettingsCache_FailedRefreshKeepsLastSnapshot(t *testing.T) {
	p := newFakeProvider(Values{Enabled: true, LogThreshold: 33})
	c := NewSettingsCache(p, nil)
	defer c.Close()

	require.Equal(t, 33, c.Read().LogThreshold)

	p.fail(errors.New("store offline"))
	err := c.Refresh(context.Background())
	require.Error(t, err)

	snap := c.Read()
	assert.True(t, snap.Enabled, "last good snapshot must survive a failed refresh")
	assert.Equal(t, 33, snap.LogThreshold)
}

func TestSettingsCache_InjectSwapsProvider(t *testing.T) {
	c := NewSettingsCache(StaticProvider{}, nil)
	defer c.Close()

	require.False(t, c.Read().Enabled)

	p := newFakeProvider(Values{Enabled: true, LogThreshold: 11})
	c.Inject(p)
	assert.Equal(t, 11, c.Read().LogThreshold, "inject refreshes synchronously")

	// Notifications from the injected provider must drive refreshes too.
	p.set(Values{Enabled: true, LogThreshold: 12})
	require.Eventually(t, func() bool {
		return c.Read().LogThreshold == 12
	}, time.Second, 5*time.Millisecond, "watcher still parked on the old channel")
}

func TestSettingsCache_CloseCancelsSubscription(t *testing.T) {
	p := newFakeProvider(Values{})
	c := NewSettingsCache(p, nil)

	c.Close()
	c.Close() // idempotent

	assert.Equal(t, 1, p.cancelCount())
}

func TestSettingsCache_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	p := newFakeProvider(Values{Enabled: true, LogThreshold: 40, LogCooldown: 60})
	c := NewSettingsCache(p, nil)
	defer c.Close()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := c.Read()
				// Either the 40/60 snapshot or the 50/90 one, never a mix.
				if snap.LogThreshold == 40 && snap.LogCooldown != 60*time.Second {
					t.Error("torn snapshot")
					return
				}
				if snap.LogThreshold == 50 && snap.LogCooldown != 90*time.Second {
					t.Error("torn snapshot")
					return
				}
			}
		}()
	}

	for range 50 {
		p.set(Values{Enabled: true, LogThreshold: 50, LogCooldown: 90})
		p.set(Values{Enabled: true, LogThreshold: 40, LogCooldown: 60})
	}
	close(stop)
	wg.Wait()
}
