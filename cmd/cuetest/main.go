package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/simonhull/audiometa"

	"github.com/earconlabs/earcon/internal/catalog"
	"github.com/earconlabs/earcon/pkg/earcon"
)

func main() {
	list := flag.Bool("list", false, "print the system sound tables")
	probe := flag.String("probe", "", "dump audio metadata for a clip file")
	scan := flag.String("scan", "", "scan a pack directory and print its inventory")
	set := flag.String("set", "", "system set for the cue (Modern, Nano, New, UI)")
	packDir := flag.String("packs", "", "custom sound pack directory")
	systemDir := flag.String("system-sounds", "", "system sound directory override")
	flag.Parse()

	switch {
	case *list:
		listSounds()
	case *probe != "":
		probeClip(*probe)
	case *scan != "":
		scanPack(*scan)
	default:
		name := flag.Arg(0)
		if name == "" {
			log.Fatal("Usage: cuetest [-set UI] <name> | -list | -probe <file> | -scan <dir>")
		}
		playCue(name, *set, *systemDir, *packDir)
	}
}

func listSounds() {
	for _, set := range earcon.SystemSets() {
		names := earcon.SoundsIn(set)
		fmt.Printf("%s (%d sounds)\n", set, len(names))
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println()
	}
}

func probeClip(path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer file.Close()

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Format: %s\n", file.Format.String())
	fmt.Printf("Duration: %s\n", file.Audio.Duration)
	if file.Tags.Title != "" {
		fmt.Printf("Title: %s\n", file.Tags.Title)
	}

	if file.Audio.Duration > earcon.MaxCustomClipLength {
		fmt.Printf("\nClip exceeds %s: it will resolve but not play\n", earcon.MaxCustomClipLength)
	}
}

func scanPack(dir string) {
	cat := catalog.New(catalog.Options{
		Dir:    dir,
		Prober: catalog.MetaProber{},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := cat.Scan(ctx); err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	manifest := cat.Manifest()
	if manifest.Name != "" {
		fmt.Printf("Pack: %s\n", manifest.Name)
	}
	if manifest.Description != "" {
		fmt.Printf("Description: %s\n", manifest.Description)
	}
	fmt.Println()

	for _, e := range cat.Entries() {
		length := "length unknown"
		if e.Duration > 0 {
			length = e.Duration.Round(time.Millisecond).String()
		}
		fmt.Printf("%-24s %-5s %8d bytes  %s", e.Name, e.Ext, e.Size, length)
		if e.Overlong {
			fmt.Print("  [overlong]")
		}
		if len(e.Aliases) > 0 {
			fmt.Printf("  aka %s", strings.Join(e.Aliases, ", "))
		}
		fmt.Println()
	}

	fmt.Printf("\n=== Scan Complete ===\n")
	fmt.Printf("Duration: %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Clips: %d\n", cat.Len())
}

// playCue resolves and plays one cue with a standalone engine, waiting for
// the outcome instead of firing and forgetting. The static provider keeps
// the daemon and its preference store out of the loop.
func playCue(name, setName, systemDir, packDir string) {
	loc, err := buildLocator(name, setName)
	if err != nil {
		log.Fatalf("Bad cue: %v", err)
	}

	done := make(chan earcon.Outcome, 1)
	engine := earcon.New(earcon.Options{
		Provider:  earcon.StaticProvider{V: earcon.Values{Enabled: true}},
		SystemDir: systemDir,
		PackDir:   packDir,
		Prober:    catalog.MetaProber{},
		OnOutcome: func(out earcon.Outcome) {
			done <- out
		},
	})

	if err := engine.Refresh(context.Background()); err != nil {
		log.Fatalf("Engine refresh failed: %v", err)
	}

	fmt.Printf("Playing: %s\n", loc)
	engine.Play(loc)

	select {
	case out := <-done:
		if out.OK {
			fmt.Println("OK")
		} else {
			fmt.Printf("Failed: %s\n", out.Reason)
			report(out, engine)
		}
	case <-time.After(45 * time.Second):
		fmt.Println("Timed out waiting for playback outcome")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = engine.Close(ctx)

	os.Exit(0)
}

func buildLocator(name, setName string) (earcon.Locator, error) {
	if setName != "" {
		set, err := earcon.ParseSystemSet(setName)
		if err != nil {
			return earcon.Locator{}, err
		}
		loc := earcon.System(set, name)
		return loc, loc.Validate()
	}

	ext := earcon.ExtWAV
	if fileExt := filepath.Ext(name); fileExt != "" {
		parsed, err := earcon.ParseExtension(fileExt)
		if err != nil {
			return earcon.Locator{}, err
		}
		ext = parsed
		name = strings.TrimSuffix(name, fileExt)
	}

	loc := earcon.Custom(name, ext)
	return loc, loc.Validate()
}

func report(out earcon.Outcome, engine *earcon.Feedback) {
	if out.Reason != earcon.ReasonResolutionFailed {
		return
	}

	r := engine.Resolver()
	if out.Locator.Kind == earcon.KindSystem && !r.HasSystemSounds() {
		fmt.Printf("No system sound library at %s\n", r.SystemDir)
		return
	}
	if out.Locator.Kind == earcon.KindCustom && r.PackDir == "" {
		fmt.Println("No pack directory given; pass -packs")
	}
}
