package earcon

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/earconlabs/earcon/internal/logger"
)

// MaxCustomClipLength is the documented ceiling on custom clips. Longer
// files still resolve, but playback is a silent no-op; the limit comes from
// the platform sound primitive this engine models, not from the decoders.
const MaxCustomClipLength = 30 * time.Second

// Prober reports the playable length of an audio file. A nil prober skips
// the length check entirely.
type Prober interface {
	Duration(path string) (time.Duration, error)
}

// PlayerOptions configures a Player. Cache and Resolver are required.
type PlayerOptions struct {
	Cache    *SettingsCache
	Resolver *Resolver
	Logger   *logger.Logger // nil for silent
	Prober   Prober         // nil skips the custom clip length check

	// Flood guard on playback attempts. Rate <= 0 disables it.
	Rate  rate.Limit
	Burst int

	// OnOutcome observes every attempt, called on the playback goroutine.
	OnOutcome func(Outcome)
}

// Player turns locators into sound. Play is fire-and-forget: it never
// blocks the caller and never reports failure to it; a failed attempt is
// visible only through the (throttled) log and the OnOutcome hook. Once a
// clip starts it runs to completion, there is no cancellation path.
type Player struct {
	log      *logger.Logger
	cache    *SettingsCache
	resolver *Resolver
	throttle *Throttle
	prober   Prober
	limiter  *rate.Limiter
	onOutc   func(Outcome)

	decoded  backend // in-process wav/mp3
	external backend // platform player, nil when none was found

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPlayer wires a playback engine. Backend detection happens here: the
// speaker device is opened lazily on first decoded playback, the command
// line player is probed once up front.
func NewPlayer(opts PlayerOptions) *Player {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	p := &Player{
		log:      log,
		cache:    opts.Cache,
		resolver: opts.Resolver,
		throttle: NewThrottle(),
		prober:   opts.Prober,
		onOutc:   opts.OnOutcome,
		decoded:  &speakerBackend{},
	}
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(opts.Rate, burst)
	}

	if eb, err := detectExecBackend(); err == nil {
		p.external = eb
		log.Debug("detected platform audio player", "player", eb.name())
	} else {
		log.Debug("no platform audio player found, decoded formats only")
	}
	return p
}

// Play requests a cue and returns immediately. After Close it is a no-op.
func (p *Player) Play(loc Locator) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.PlaySync(loc)
	}()
}

// PlaySync runs one attempt to completion and reports how it went. The
// daemon uses it on playback workers; library callers normally want Play.
func (p *Player) PlaySync(loc Locator) Outcome {
	out := p.attempt(loc)
	if p.onOutc != nil {
		p.onOutc(out)
	}
	return out
}

// Close stops accepting new cues and waits for in-flight playback, bounded
// by ctx. Clips still sounding when ctx expires finish on their own.
func (p *Player) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Player) attempt(loc Locator) Outcome {
	snap := p.cache.Read()

	if !snap.Enabled {
		d := p.logDisabled(snap, loc)
		out := failure(loc, ReasonDisabled)
		out.Attempts = d.Attempts
		return out
	}

	if p.limiter != nil && !p.limiter.Allow() {
		d := p.logFailure(snap, loc, "playback rate limit exceeded", nil)
		out := failure(loc, ReasonPlatformError)
		out.Attempts = d.Attempts
		return out
	}

	res, err := p.resolver.Resolve(loc)
	if err != nil {
		d := p.logFailure(snap, loc, "cue did not resolve", err)
		out := failure(loc, ReasonResolutionFailed)
		out.Attempts = d.Attempts
		return out
	}

	if !res.System && p.prober != nil {
		if d, perr := p.prober.Duration(res.Path); perr == nil && d > MaxCustomClipLength {
			p.log.Debug("skipping over-long custom clip",
				"cue", loc.String(), "duration", d, "max", MaxCustomClipLength)
			return success(loc)
		}
	}

	if err := p.playResource(res); err != nil {
		d := p.logFailure(snap, loc, "playback failed", err)
		out := failure(loc, ReasonPlatformError)
		out.Attempts = d.Attempts
		return out
	}
	return success(loc)
}

// playResource picks a backend by format: wav and mp3 decode in process,
// everything else goes to the platform player. When the speaker device is
// unavailable the platform player also covers the decoded formats.
func (p *Player) playResource(res Resource) error {
	switch res.Ext {
	case ExtWAV, ExtMP3:
		err := p.decoded.play(res)
		if err == nil {
			return nil
		}
		if p.external != nil {
			p.log.WithError(err).Debug("decoded playback failed, trying platform player",
				"player", p.external.name())
			return p.external.play(res)
		}
		return err
	default:
		if p.external == nil {
			return ErrNoPlayer
		}
		return p.external.play(res)
	}
}

// logDisabled handles the two disabled-path channels: with logging on, the
// smart throttle spaces full settings dumps; with logging off, a short
// notice goes out at most MaxDisabledNotices times per process.
func (p *Player) logDisabled(snap Snapshot, loc Locator) Decision {
	if !snap.LoggingEnabled {
		if p.throttle.DisabledNotice() {
			p.log.Info("audio disabled", "cue", loc.String())
		}
		return Decision{}
	}

	d := p.throttle.Smart(snap, DefaultSmartPolicy(snap))
	switch {
	case d.Emit:
		p.log.Info("audio disabled, cue skipped",
			"cue", loc.String(),
			"attempts", d.Attempts,
			"enabled", snap.Enabled,
			"loggingEnabled", snap.LoggingEnabled,
			"logThreshold", snap.LogThreshold,
			"logCooldown", snap.LogCooldown)
	case d.Notice:
		p.log.Debug("suppressing disabled-cue logs", "attempts", d.Attempts)
	}
	return d
}

// logFailure reports resolution and platform problems as throttled log
// attempts. Failures never reach the caller, so the log is the only
// place they surface.
func (p *Player) logFailure(snap Snapshot, loc Locator, msg string, err error) Decision {
	d := p.throttle.Complete(snap, snap.LogCooldown)
	if !d.Emit {
		return d
	}
	l := p.log
	if err != nil {
		l = l.WithError(err)
	}
	l.Warn(msg, "cue", loc.String(), "attempts", d.Attempts)
	return d
}
