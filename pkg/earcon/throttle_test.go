package earcon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestThrottle() (*Throttle, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return &Throttle{now: clk.Now}, clk
}

func enabledSnapshot() Snapshot {
	s := DefaultSnapshot()
	s.Enabled = true
	s.LoggingEnabled = true
	return s
}

func TestThrottle_FirstCallAlwaysEmits(t *testing.T) {
	th, _ := newTestThrottle()

	d := th.Smart(enabledSnapshot(), SmartPolicy{SkipEvery: 10 * time.Second, LogEvery: time.Hour})
	assert.True(t, d.Emit)
	assert.Equal(t, 1, d.Attempts)

	th2, _ := newTestThrottle()
	d = th2.Complete(enabledSnapshot(), time.Hour)
	assert.True(t, d.Emit)
	assert.Equal(t, 1, d.Attempts)
}

func TestThrottle_SmartSuppressesInsideWindow(t *testing.T) {
	th, clk := newTestThrottle()
	snap := enabledSnapshot()
	policy := SmartPolicy{LogEvery: 10 * time.Second}

	d := th.Smart(snap, policy)
	require.True(t, d.Emit)

	clk.Advance(time.Second)
	d = th.Smart(snap, policy)
	assert.False(t, d.Emit, "second call inside the window must not emit")
	assert.True(t, d.Notice)
	assert.Equal(t, 1, d.Attempts)

	clk.Advance(10 * time.Second)
	d = th.Smart(snap, policy)
	assert.True(t, d.Emit, "window expired")
	assert.Equal(t, 2, d.Attempts)
}

func TestThrottle_SmartStateChangeEmitsImmediately(t *testing.T) {
	th, clk := newTestThrottle()
	snap := enabledSnapshot()
	policy := SmartPolicy{LogEvery: 10 * time.Second}

	require.True(t, th.Smart(snap, policy).Emit)

	clk.Advance(time.Second)
	require.False(t, th.Smart(snap, policy).Emit)

	// Flip a compared bit: the very next call emits, elapsed time ignored.
	clk.Advance(time.Second)
	snap.LoggingEnabled = false
	d := th.Smart(snap, policy)
	assert.True(t, d.Emit)
}

func TestThrottle_SmartSkipGateIsCompletelySilent(t *testing.T) {
	th, clk := newTestThrottle()
	snap := enabledSnapshot()
	policy := SmartPolicy{SkipEvery: 10 * time.Second, LogEvery: time.Minute}

	require.True(t, th.Smart(snap, policy).Emit)

	clk.Advance(time.Second)
	d := th.Smart(snap, policy)
	require.True(t, d.Notice)
	require.Equal(t, 1, d.Attempts)

	// Inside the notice window: no emit, no notice, no counting.
	clk.Advance(time.Second)
	d = th.Smart(snap, policy)
	assert.False(t, d.Emit)
	assert.False(t, d.Notice)
	assert.Zero(t, d.Attempts)

	// Past the notice window the counter shows the silent call left no trace.
	clk.Advance(10 * time.Second)
	d = th.Smart(snap, policy)
	assert.True(t, d.Notice)
	assert.Equal(t, 2, d.Attempts)
}

func TestThrottle_SmartMaxAttemptsForcesEmit(t *testing.T) {
	th, clk := newTestThrottle()
	snap := enabledSnapshot()
	policy := SmartPolicy{LogEvery: time.Hour, MaxAttempts: 3}

	require.True(t, th.Smart(snap, policy).Emit)

	clk.Advance(time.Second)
	assert.True(t, th.Smart(snap, policy).Notice)
	clk.Advance(time.Second)
	assert.True(t, th.Smart(snap, policy).Notice)

	clk.Advance(time.Second)
	d := th.Smart(snap, policy)
	assert.True(t, d.Emit, "attempt ceiling overrides the window")
	assert.Equal(t, 3, d.Attempts)
}

func TestThrottle_CompleteWindow(t *testing.T) {
	th, clk := newTestThrottle()
	snap := enabledSnapshot()

	d := th.Complete(snap, 10*time.Second)
	require.True(t, d.Emit)

	clk.Advance(time.Second)
	assert.False(t, th.Complete(snap, 10*time.Second).Emit)
	clk.Advance(4 * time.Second)
	assert.False(t, th.Complete(snap, 10*time.Second).Emit)

	clk.Advance(5 * time.Second)
	d = th.Complete(snap, 10*time.Second)
	assert.True(t, d.Emit, "first call in a fresh window")
	assert.Equal(t, 3, d.Attempts, "suppressed calls are counted")
}

func TestThrottle_CompleteIgnoresStateChanges(t *testing.T) {
	th, clk := newTestThrottle()
	snap := enabledSnapshot()

	require.True(t, th.Complete(snap, 10*time.Second).Emit)

	clk.Advance(time.Second)
	snap.LoggingEnabled = false
	assert.False(t, th.Complete(snap, 10*time.Second).Emit,
		"complete mode has no state comparison")
}

func TestThrottle_EnableTransitionResetsHistory(t *testing.T) {
	th, clk := newTestThrottle()
	off := DefaultSnapshot()
	policy := SmartPolicy{SkipEvery: 10 * time.Second, LogEvery: time.Hour}

	require.True(t, th.Smart(off, policy).Emit)
	clk.Advance(time.Second)
	require.True(t, th.Smart(off, policy).Notice)

	// Re-enable: prior suppression history is discarded and the next dump
	// prints with a fresh count.
	clk.Advance(time.Second)
	on := off
	on.Enabled = true
	d := th.Smart(on, policy)
	assert.True(t, d.Emit)
	assert.Equal(t, 1, d.Attempts)
}

func TestThrottle_DisabledNoticeCapIsProcessLifetime(t *testing.T) {
	th, clk := newTestThrottle()

	for i := 0; i < MaxDisabledNotices; i++ {
		assert.True(t, th.DisabledNotice(), "notice %d", i+1)
	}
	assert.False(t, th.DisabledNotice())

	// An enable/disable cycle does not refill the cap.
	on := enabledSnapshot()
	off := DefaultSnapshot()
	th.Smart(off, DefaultSmartPolicy(off))
	clk.Advance(time.Second)
	th.Smart(on, DefaultSmartPolicy(on))
	clk.Advance(time.Second)
	th.Smart(off, DefaultSmartPolicy(off))

	assert.False(t, th.DisabledNotice())
}

func TestDefaultSmartPolicy(t *testing.T) {
	s := DefaultSnapshot()
	p := DefaultSmartPolicy(s)
	assert.Equal(t, s.LogCooldown, p.LogEvery)
	assert.Equal(t, s.LogThreshold, p.MaxAttempts)
	assert.Equal(t, defaultSkipNoticeInterval, p.SkipEvery)
}
