package earcon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSoundTree lays out a fake system sound directory and a pack
// directory with a handful of empty clip files.
func writeSoundTree(t *testing.T) (systemDir, packDir string) {
	t.Helper()

	systemDir = t.TempDir()
	packDir = t.TempDir()

	files := []string{
		filepath.Join(systemDir, "Ping.aiff"),
		filepath.Join(systemDir, "Basso.aiff"),
		filepath.Join(systemDir, "Modern", "Chime.caf"),
		filepath.Join(systemDir, "Nano", "Tick.caf"),
		filepath.Join(packDir, "chime.wav"),
		filepath.Join(packDir, "alarm.mp3"),
		filepath.Join(packDir, "ding.caf"),
	}
	for _, f := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(f), 0o755))
		require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	}
	return systemDir, packDir
}

func TestResolver_SystemSounds(t *testing.T) {
	systemDir, packDir := writeSoundTree(t)
	r := NewResolver(systemDir, packDir)

	res, err := r.Resolve(System(SetUI, "Ping"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(systemDir, "Ping.aiff"), res.Path)
	assert.Equal(t, ExtAIFF, res.Ext)
	assert.True(t, res.System)

	res, err = r.Resolve(System(SetModern, "Chime"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(systemDir, "Modern", "Chime.caf"), res.Path)
	assert.Equal(t, ExtCAF, res.Ext)
}

func TestResolver_UnknownSystemSound(t *testing.T) {
	systemDir, _ := writeSoundTree(t)
	r := NewResolver(systemDir, "")

	_, err := r.Resolve(System(SetUI, "Klaxon"))
	assert.ErrorIs(t, err, ErrUnknownSound)
}

func TestResolver_KnownSoundMissingOnDisk(t *testing.T) {
	systemDir, _ := writeSoundTree(t)
	r := NewResolver(systemDir, "")

	// Sosumi is in the table but the fake tree does not ship it.
	_, err := r.Resolve(System(SetUI, "Sosumi"))
	assert.ErrorIs(t, err, ErrNotResolvable)
}

func TestResolver_CustomSounds(t *testing.T) {
	_, packDir := writeSoundTree(t)
	r := NewResolver(t.TempDir(), packDir)

	res, err := r.Resolve(Custom("chime", ExtWAV))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(packDir, "chime.wav"), res.Path)
	assert.Equal(t, ExtWAV, res.Ext)
	assert.False(t, res.System)

	_, err = r.Resolve(Custom("missing", ExtWAV))
	assert.ErrorIs(t, err, ErrNotResolvable)
}

func TestResolver_NoPackConfigured(t *testing.T) {
	r := NewResolver(t.TempDir(), "")

	_, err := r.Resolve(Custom("chime", ExtWAV))
	assert.ErrorIs(t, err, ErrNotResolvable)
}

func TestResolver_InvalidLocatorNeverStats(t *testing.T) {
	stats := 0
	r := NewResolver(t.TempDir(), t.TempDir())
	r.Stat = func(path string) (os.FileInfo, error) {
		stats++
		return os.Stat(path)
	}

	_, err := r.Resolve(Custom("../escape", ExtWAV))
	assert.ErrorIs(t, err, ErrInvalidLocator)
	assert.Zero(t, stats, "validation failures must not touch the filesystem")
}

func TestResolver_HasSystemSounds(t *testing.T) {
	systemDir, _ := writeSoundTree(t)

	assert.True(t, NewResolver(systemDir, "").HasSystemSounds())
	assert.False(t, NewResolver(filepath.Join(systemDir, "nope"), "").HasSystemSounds())
}

func TestDefaultSystemDir_NonEmpty(t *testing.T) {
	assert.NotEmpty(t, DefaultSystemDir())
}
