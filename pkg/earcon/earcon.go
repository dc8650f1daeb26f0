package earcon

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/earconlabs/earcon/internal/logger"
)

// Options configures a Feedback instance.
type Options struct {
	// Provider backs the settings cache. Nil means a static all-defaults
	// provider: cues disabled until Inject swaps in a real store.
	Provider Provider

	// SystemDir overrides the platform system sound directory.
	SystemDir string
	// PackDir holds custom clips. Empty disables custom cues.
	PackDir string

	Logger *logger.Logger // nil for silent
	Prober Prober         // nil skips the custom clip length check

	// Flood guard on playback attempts. Rate <= 0 disables it.
	Rate  rate.Limit
	Burst int

	// OnOutcome observes every attempt, called on the playback goroutine.
	OnOutcome func(Outcome)
}

// Feedback is the assembled engine: settings cache, resolver and player
// behind one handle. Construct it once at startup and pass it by reference;
// every method is safe for concurrent use.
type Feedback struct {
	cache    *SettingsCache
	resolver *Resolver
	player   *Player
}

// New assembles a Feedback from the options.
func New(opts Options) *Feedback {
	provider := opts.Provider
	if provider == nil {
		provider = StaticProvider{}
	}

	cache := NewSettingsCache(provider, opts.Logger)
	resolver := NewResolver(opts.SystemDir, opts.PackDir)
	player := NewPlayer(PlayerOptions{
		Cache:     cache,
		Resolver:  resolver,
		Logger:    opts.Logger,
		Prober:    opts.Prober,
		Rate:      opts.Rate,
		Burst:     opts.Burst,
		OnOutcome: opts.OnOutcome,
	})

	return &Feedback{
		cache:    cache,
		resolver: resolver,
		player:   player,
	}
}

// Play requests a cue, fire-and-forget.
func (f *Feedback) Play(loc Locator) {
	f.player.Play(loc)
}

// PlaySystem requests a named system cue.
func (f *Feedback) PlaySystem(set SystemSet, name string) {
	f.player.Play(System(set, name))
}

// PlayCustom requests a custom clip from the pack directory.
func (f *Feedback) PlayCustom(name string, ext Extension) {
	f.player.Play(Custom(name, ext))
}

// Settings returns the current effective preference snapshot.
func (f *Feedback) Settings() Snapshot {
	return f.cache.Read()
}

// Refresh forces a synchronous reload from the provider.
func (f *Feedback) Refresh(ctx context.Context) error {
	return f.cache.Refresh(ctx)
}

// Inject swaps the settings provider at runtime.
func (f *Feedback) Inject(p Provider) {
	f.cache.Inject(p)
}

// Player exposes the playback engine, mainly for bindings and the daemon.
func (f *Feedback) Player() *Player {
	return f.player
}

// Resolver exposes the lookup layer.
func (f *Feedback) Resolver() *Resolver {
	return f.resolver
}

// Close stops the cache watcher and waits for in-flight playback, bounded
// by ctx.
func (f *Feedback) Close(ctx context.Context) error {
	err := f.player.Close(ctx)
	f.cache.Close()
	return err
}
