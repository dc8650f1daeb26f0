package earcon

import "sync"

// CuePlayer is the playback surface a binding needs. *Player satisfies it.
type CuePlayer interface {
	Play(loc Locator)
}

// Binding attaches audio feedback to a changing value. The owner of the
// value calls Update on every new observation; the binding fires only when
// the value actually changed, the condition (if any) holds, and the
// selector produces a locator. The first observation seeds the baseline
// and never fires.
//
// Safe for concurrent Update calls.
type Binding[T comparable] struct {
	player CuePlayer
	cond   func(old, next T) bool
	sel    func(old, next T) (Locator, bool)

	mu     sync.Mutex
	seeded bool
	closed bool
	last   T
}

// BindOption customizes a binding's firing condition.
type BindOption[T comparable] func(*Binding[T])

// When gates firing on a predicate over the old and new values.
func When[T comparable](cond func(old, next T) bool) BindOption[T] {
	return func(b *Binding[T]) { b.cond = cond }
}

// WhenNew gates firing on a predicate over the new value only.
func WhenNew[T comparable](cond func(next T) bool) BindOption[T] {
	return func(b *Binding[T]) {
		b.cond = func(_, next T) bool { return cond(next) }
	}
}

// WhenEach gates firing on a predicate independent of the values, checked
// on each change.
func WhenEach[T comparable](cond func() bool) BindOption[T] {
	return func(b *Binding[T]) {
		b.cond = func(_, _ T) bool { return cond() }
	}
}

// Bind plays a fixed cue whenever the observed value changes.
func Bind[T comparable](p CuePlayer, loc Locator, opts ...BindOption[T]) *Binding[T] {
	return BindFunc[T](p, func(_, _ T) (Locator, bool) {
		return loc, true
	}, opts...)
}

// BindFunc picks the cue per change. Returning false plays nothing for
// that transition.
func BindFunc[T comparable](p CuePlayer, sel func(old, next T) (Locator, bool), opts ...BindOption[T]) *Binding[T] {
	b := &Binding[T]{player: p, sel: sel}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Update feeds the binding a new observation.
func (b *Binding[T]) Update(v T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if !b.seeded {
		b.seeded = true
		b.last = v
		b.mu.Unlock()
		return
	}
	old := b.last
	if v == old {
		b.mu.Unlock()
		return
	}
	b.last = v
	b.mu.Unlock()

	if b.cond != nil && !b.cond(old, v) {
		return
	}
	if loc, ok := b.sel(old, v); ok {
		b.player.Play(loc)
	}
}

// Close detaches the binding. Subsequent Updates are no-ops.
func (b *Binding[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}
