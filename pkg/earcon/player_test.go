package earcon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/earconlabs/earcon/internal/logger"
)

type fakeBackend struct {
	mu     sync.Mutex
	played []Resource
	err    error
}

func (b *fakeBackend) name() string { return "fake" }

func (b *fakeBackend) play(res Resource) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.played = append(b.played, res)
	return b.err
}

func (b *fakeBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.played)
}

func (b *fakeBackend) last() Resource {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.played[len(b.played)-1]
}

type fixedProber struct {
	d     time.Duration
	err   error
	calls int
}

func (p *fixedProber) Duration(string) (time.Duration, error) {
	p.calls++
	return p.d, p.err
}

// newTestPlayer wires a player against a fake sound tree with separate fake
// backends for the decoded and platform routes.
func newTestPlayer(t *testing.T, v Values) (p *Player, decoded, external *fakeBackend) {
	t.Helper()

	systemDir, packDir := writeSoundTree(t)
	cache := NewSettingsCache(StaticProvider{V: v}, nil)
	t.Cleanup(cache.Close)

	decoded = &fakeBackend{}
	external = &fakeBackend{}
	p = &Player{
		log:      logger.Discard(),
		cache:    cache,
		resolver: NewResolver(systemDir, packDir),
		throttle: NewThrottle(),
		decoded:  decoded,
		external: external,
	}
	return p, decoded, external
}

func TestPlayer_DisabledNeverInvokesBackend(t *testing.T) {
	p, decoded, external := newTestPlayer(t, Values{Enabled: false})

	for _, loc := range []Locator{
		System(SetUI, "Ping"),
		Custom("chime", ExtWAV),
		Custom("does-not-exist", ExtWAV),
	} {
		out := p.PlaySync(loc)
		assert.False(t, out.OK)
		assert.Equal(t, ReasonDisabled, out.Reason)
	}

	assert.Zero(t, decoded.count())
	assert.Zero(t, external.count())
}

func TestPlayer_PlaysDecodedFormats(t *testing.T) {
	p, decoded, external := newTestPlayer(t, Values{Enabled: true})

	out := p.PlaySync(Custom("chime", ExtWAV))
	require.True(t, out.OK)
	assert.Equal(t, 1, decoded.count())
	assert.Zero(t, external.count())
	assert.Equal(t, ExtWAV, decoded.last().Ext)

	out = p.PlaySync(Custom("alarm", ExtMP3))
	require.True(t, out.OK)
	assert.Equal(t, 2, decoded.count())
}

func TestPlayer_RoutesPlatformFormatsToExternal(t *testing.T) {
	p, decoded, external := newTestPlayer(t, Values{Enabled: true})

	out := p.PlaySync(Custom("ding", ExtCAF))
	require.True(t, out.OK)
	assert.Zero(t, decoded.count())
	assert.Equal(t, 1, external.count())

	out = p.PlaySync(System(SetModern, "Chime"))
	require.True(t, out.OK)
	assert.Equal(t, 2, external.count())
	assert.True(t, external.last().System)
}

func TestPlayer_FallsBackWhenDecoderFails(t *testing.T) {
	p, decoded, external := newTestPlayer(t, Values{Enabled: true})
	decoded.err = errors.New("no audio device")

	out := p.PlaySync(Custom("chime", ExtWAV))
	require.True(t, out.OK)
	assert.Equal(t, 1, decoded.count())
	assert.Equal(t, 1, external.count())
}

func TestPlayer_NoPlayerAtAll(t *testing.T) {
	p, decoded, _ := newTestPlayer(t, Values{Enabled: true})
	decoded.err = errors.New("no audio device")
	p.external = nil

	out := p.PlaySync(Custom("chime", ExtWAV))
	assert.False(t, out.OK)
	assert.Equal(t, ReasonPlatformError, out.Reason)

	out = p.PlaySync(Custom("ding", ExtCAF))
	assert.False(t, out.OK)
	assert.Equal(t, ReasonPlatformError, out.Reason)
}

func TestPlayer_ResolutionFailure(t *testing.T) {
	p, decoded, external := newTestPlayer(t, Values{Enabled: true})

	out := p.PlaySync(Custom("no-such-clip", ExtWAV))
	assert.False(t, out.OK)
	assert.Equal(t, ReasonResolutionFailed, out.Reason)

	out = p.PlaySync(System(SetUI, "Klaxon"))
	assert.False(t, out.OK)
	assert.Equal(t, ReasonResolutionFailed, out.Reason)

	assert.Zero(t, decoded.count())
	assert.Zero(t, external.count())
}

func TestPlayer_OverlongCustomClipIsSilentNoop(t *testing.T) {
	p, decoded, external := newTestPlayer(t, Values{Enabled: true})
	p.prober = &fixedProber{d: 31 * time.Second}

	out := p.PlaySync(Custom("chime", ExtWAV))
	assert.True(t, out.OK, "over-long clips resolve fine, they just stay silent")
	assert.Zero(t, decoded.count())
	assert.Zero(t, external.count())
}

func TestPlayer_ClipAtLimitPlays(t *testing.T) {
	p, decoded, _ := newTestPlayer(t, Values{Enabled: true})
	p.prober = &fixedProber{d: MaxCustomClipLength}

	out := p.PlaySync(Custom("chime", ExtWAV))
	assert.True(t, out.OK)
	assert.Equal(t, 1, decoded.count())
}

func TestPlayer_ProbeErrorDoesNotBlockPlayback(t *testing.T) {
	p, decoded, _ := newTestPlayer(t, Values{Enabled: true})
	p.prober = &fixedProber{err: errors.New("unreadable header")}

	out := p.PlaySync(Custom("chime", ExtWAV))
	assert.True(t, out.OK)
	assert.Equal(t, 1, decoded.count())
}

func TestPlayer_SystemSoundsSkipLengthCheck(t *testing.T) {
	prober := &fixedProber{d: time.Hour}
	p, _, external := newTestPlayer(t, Values{Enabled: true})
	p.prober = prober

	out := p.PlaySync(System(SetUI, "Ping"))
	assert.True(t, out.OK)
	assert.Zero(t, prober.calls, "the length cap applies to custom clips only")
	assert.Equal(t, 1, external.count())
}

func TestPlayer_FloodGuard(t *testing.T) {
	p, decoded, _ := newTestPlayer(t, Values{Enabled: true})
	p.limiter = rate.NewLimiter(rate.Limit(1), 1)

	out := p.PlaySync(Custom("chime", ExtWAV))
	require.True(t, out.OK)

	out = p.PlaySync(Custom("chime", ExtWAV))
	assert.False(t, out.OK)
	assert.Equal(t, ReasonPlatformError, out.Reason)
	assert.Equal(t, 1, decoded.count())
}

func TestPlayer_OnOutcomeObservesEveryAttempt(t *testing.T) {
	p, _, _ := newTestPlayer(t, Values{Enabled: true})

	var mu sync.Mutex
	var seen []Outcome
	p.onOutc = func(out Outcome) {
		mu.Lock()
		seen = append(seen, out)
		mu.Unlock()
	}

	p.PlaySync(Custom("chime", ExtWAV))
	p.PlaySync(Custom("missing", ExtWAV))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].OK)
	assert.Equal(t, ReasonResolutionFailed, seen[1].Reason)
	assert.Equal(t, Custom("missing", ExtWAV), seen[1].Locator)
}

func TestPlayer_PlayAfterCloseIsNoop(t *testing.T) {
	p, decoded, _ := newTestPlayer(t, Values{Enabled: true})

	require.NoError(t, p.Close(context.Background()))
	p.Play(Custom("chime", ExtWAV))

	assert.Zero(t, decoded.count())
}

type blockingBackend struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingBackend) name() string { return "blocking" }

func (b *blockingBackend) play(Resource) error {
	b.started <- struct{}{}
	<-b.release
	return nil
}

func TestPlayer_CloseWaitIsBounded(t *testing.T) {
	p, _, _ := newTestPlayer(t, Values{Enabled: true})
	bb := &blockingBackend{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	p.decoded = bb

	p.Play(Custom("chime", ExtWAV))
	<-bb.started

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := p.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "in-flight playback is not cancelled")

	// Once the clip finishes on its own, a patient close succeeds.
	close(bb.release)
	assert.NoError(t, p.Close(context.Background()))
}
