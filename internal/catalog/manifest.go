package catalog

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// manifestFile is the optional pack descriptor sitting next to the clips.
const manifestFile = "pack.yaml"

// Manifest carries pack-level metadata. Everything in it is optional; a
// pack is just a directory of audio files, the manifest only dresses it up.
type Manifest struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Aliases     map[string][]string `yaml:"aliases"` // cue name -> alternate names
}

// loadManifest reads pack.yaml from dir.
// Returns a zero Manifest when the file doesn't exist (no error).
func loadManifest(dir string) (Manifest, error) {
	var m Manifest

	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, err
	}

	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, err
	}

	return m, nil
}
