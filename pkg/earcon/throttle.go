package earcon

import (
	"sync"
	"time"
)

// MaxDisabledNotices caps the "audio disabled" informational line for the
// life of the process. It is a bounded counter separate from the smart and
// complete policies and is never reset.
const MaxDisabledNotices = 5

// defaultSkipNoticeInterval spaces out the one-line suppression notices so
// the throttle never spams the log about its own suppression.
const defaultSkipNoticeInterval = 10 * time.Second

// Decision is the outcome of one throttle call.
//
// Emit means the full log line should go out. Notice means only a one-line
// "suppressing, N attempts" notice should go out. Neither set means stay
// silent. Attempts is the attempt counter at decision time; it resets to
// zero after every full emission.
type Decision struct {
	Emit     bool
	Notice   bool
	Attempts int
}

// SmartPolicy parameterizes the smart throttle mode.
type SmartPolicy struct {
	// SkipEvery is the minimum spacing between suppression notices.
	// Suppressed calls inside this window are completely silent and do not
	// touch any state.
	SkipEvery time.Duration
	// LogEvery is the minimum spacing between full emissions while the
	// observed state is unchanged.
	LogEvery time.Duration
	// MaxAttempts forces a full emission once this many counted attempts
	// pile up, regardless of LogEvery. Zero disables the override.
	MaxAttempts int
}

// DefaultSmartPolicy derives the smart parameters from a snapshot: the
// stored cooldown spaces full emissions, the stored threshold caps counted
// attempts between them.
func DefaultSmartPolicy(s Snapshot) SmartPolicy {
	return SmartPolicy{
		SkipEvery:   defaultSkipNoticeInterval,
		LogEvery:    s.LogCooldown,
		MaxAttempts: s.LogThreshold,
	}
}

// Throttle decides, per log attempt, whether to actually emit. Two modes
// share one state: Smart spaces emissions while the observed enabled state
// is unchanged and always emits on a change; Complete is a plain time
// window. A separate bounded counter rations the "audio disabled" notice.
//
// All methods are safe for concurrent use.
type Throttle struct {
	mu  sync.Mutex
	now func() time.Time

	attempts int
	lastLog  time.Time
	lastSkip time.Time

	// Enabled state as observed on every call, for the re-enable reset.
	seenOnce        bool
	lastSeenEnabled bool

	// State remembered at the last smart emission, for change comparison.
	emittedOnce bool
	cmpEnabled  bool
	cmpLogging  bool

	disabledNotices int
}

// NewThrottle returns a throttle using the wall clock.
func NewThrottle() *Throttle {
	return &Throttle{now: time.Now}
}

// Smart applies the smart policy: the first-ever call and any call whose
// enabled or logging state differs from the last emission always emit;
// otherwise emissions are spaced by LogEvery, suppression notices by
// SkipEvery, and MaxAttempts forces an emission when suppressed attempts
// accumulate.
func (t *Throttle) Smart(s Snapshot, p SmartPolicy) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.observeEnabled(s, now)

	if !t.emittedOnce {
		t.attempts++
		return t.emitLocked(s, now)
	}
	if s.Enabled != t.cmpEnabled || s.LoggingEnabled != t.cmpLogging {
		// State changes are always interesting, regardless of elapsed time.
		t.attempts++
		return t.emitLocked(s, now)
	}

	if p.SkipEvery > 0 && now.Sub(t.lastSkip) < p.SkipEvery {
		// Inside the notice window: suppress silently, touch nothing.
		return Decision{}
	}

	t.attempts++
	if now.Sub(t.lastLog) < p.LogEvery && (p.MaxAttempts <= 0 || t.attempts < p.MaxAttempts) {
		t.lastSkip = now
		return Decision{Notice: true, Attempts: t.attempts}
	}

	return t.emitLocked(s, now)
}

// Complete applies the plain time window: at most one emission per `every`,
// no state-change comparison. The first call in a fresh window emits.
func (t *Throttle) Complete(s Snapshot, every time.Duration) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.observeEnabled(s, now)

	t.attempts++
	if !t.lastLog.IsZero() && now.Sub(t.lastLog) < every {
		return Decision{Attempts: t.attempts}
	}

	d := Decision{Emit: true, Attempts: t.attempts}
	t.attempts = 0
	t.lastLog = now
	return d
}

// DisabledNotice reports whether an "audio disabled" informational line may
// still be emitted, consuming one of the capped occurrences when it may.
func (t *Throttle) DisabledNotice() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disabledNotices >= MaxDisabledNotices {
		return false
	}
	t.disabledNotices++
	return true
}

// observeEnabled tracks the enabled bit across calls. A false to true
// transition discards all suppression history so the next dump prints.
func (t *Throttle) observeEnabled(s Snapshot, now time.Time) {
	if t.seenOnce && !t.lastSeenEnabled && s.Enabled {
		t.attempts = 0
		t.lastLog = now
		t.lastSkip = time.Time{}
	}
	t.seenOnce = true
	t.lastSeenEnabled = s.Enabled
}

// emitLocked builds an emitting decision from the counted attempts and
// resets the suppression state. Callers count the current attempt first.
func (t *Throttle) emitLocked(s Snapshot, now time.Time) Decision {
	d := Decision{Emit: true, Attempts: t.attempts}

	t.attempts = 0
	t.lastLog = now
	t.lastSkip = time.Time{}
	t.cmpEnabled = s.Enabled
	t.cmpLogging = s.LoggingEnabled
	t.emittedOnce = true
	return d
}
