package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest_Missing(t *testing.T) {
	m, err := loadManifest(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, m)
}

func TestLoadManifest_Valid(t *testing.T) {
	dir := t.TempDir()
	content := `
name: office
description: desk sounds
aliases:
  chime: [bell]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestFile), []byte(content), 0o644))

	m, err := loadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "office", m.Name)
	assert.Equal(t, "desk sounds", m.Description)
	assert.Equal(t, []string{"bell"}, m.Aliases["chime"])
}

func TestLoadManifest_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestFile), []byte("name: [unclosed"), 0o644))

	_, err := loadManifest(dir)
	require.Error(t, err)
}
