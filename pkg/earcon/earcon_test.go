package earcon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToDisabled(t *testing.T) {
	f := New(Options{})
	defer f.Close(context.Background())

	snap := f.Settings()
	assert.False(t, snap.Enabled)
	assert.Equal(t, DefaultLogThreshold, snap.LogThreshold)
	assert.Equal(t, DefaultLogCooldown, snap.LogCooldown)

	// Disabled playback is a safe no-op from the public surface.
	f.Play(System(SetUI, "Ping"))
	f.PlaySystem(SetModern, "Chime")
	f.PlayCustom("chime", ExtWAV)
}

func TestFeedback_InjectProvider(t *testing.T) {
	f := New(Options{})
	defer f.Close(context.Background())

	require.False(t, f.Settings().Enabled)

	f.Inject(StaticProvider{V: Values{Enabled: true, LogThreshold: 3}})
	snap := f.Settings()
	assert.True(t, snap.Enabled)
	assert.Equal(t, 3, snap.LogThreshold)
}

func TestFeedback_SatisfiesCuePlayer(t *testing.T) {
	f := New(Options{})
	defer f.Close(context.Background())

	var _ CuePlayer = f
	var _ CuePlayer = f.Player()
}
