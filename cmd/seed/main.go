// Package main provides a tool to seed a demo sound pack.
//
// It synthesizes a handful of short cue clips with beep's tone generators,
// writes them out as WAV files, and drops a pack.yaml manifest next to them
// so a fresh daemon has custom sounds to catalog.
//
// Usage:
//
//	go run ./cmd/seed                      # writes to ~/.earcon/packs
//	go run ./cmd/seed -dir ./testdata/pack
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"
	"gopkg.in/yaml.v3"

	"github.com/earconlabs/earcon/internal/catalog"
)

var dir = flag.String("dir", "", "destination pack directory (default: $EARCON_PACK_DIR or ~/.earcon/packs)")

type clip struct {
	name    string
	freq    float64
	length  time.Duration
	aliases []string
}

// clips covers the cue vocabulary a desktop client actually uses: a
// confirmation, a cursor tick, a failure thud and a couple of alerts.
var clips = []clip{
	{name: "chime", freq: 880, length: 300 * time.Millisecond, aliases: []string{"ding", "confirm"}},
	{name: "blip", freq: 1320, length: 120 * time.Millisecond},
	{name: "tick", freq: 2093, length: 60 * time.Millisecond},
	{name: "thud", freq: 196, length: 250 * time.Millisecond, aliases: []string{"bump"}},
	{name: "alert", freq: 660, length: 400 * time.Millisecond, aliases: []string{"warning"}},
}

func main() {
	flag.Parse()

	packDir := *dir
	if packDir == "" {
		packDir = os.Getenv("EARCON_PACK_DIR")
	}
	if packDir == "" {
		packDir = os.ExpandEnv("$HOME/.earcon/packs")
	}

	if err := os.MkdirAll(packDir, 0o755); err != nil {
		log.Fatalf("Failed to create pack directory: %v", err)
	}

	fmt.Printf("Seeding demo pack at: %s\n\n", packDir)

	sr := beep.SampleRate(44100)
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}

	for _, c := range clips {
		path := filepath.Join(packDir, c.name+".wav")
		if err := writeClip(path, c, sr, format); err != nil {
			log.Fatalf("Failed to write %s: %v", c.name, err)
		}
		fmt.Printf("  %s.wav  %.0f Hz  %s\n", c.name, c.freq, c.length)
	}

	if err := writeManifest(packDir); err != nil {
		log.Fatalf("Failed to write manifest: %v", err)
	}

	fmt.Printf("\nSeeded %d clips. Run `cuetest -scan %s` to verify.\n", len(clips), packDir)
}

func writeClip(path string, c clip, sr beep.SampleRate, format beep.Format) error {
	tone, err := generators.SineTone(sr, c.freq)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := wav.Encode(f, beep.Take(sr.N(c.length), tone), format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeManifest(packDir string) error {
	manifest := catalog.Manifest{
		Name:        "demo",
		Description: "Synthesized demo cues seeded by cmd/seed",
		Aliases:     make(map[string][]string),
	}
	for _, c := range clips {
		if len(c.aliases) > 0 {
			manifest.Aliases[c.name] = c.aliases
		}
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(packDir, "pack.yaml"), data, 0o644)
}
