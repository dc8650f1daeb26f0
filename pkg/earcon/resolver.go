package earcon

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// Resource is a resolved, playable clip.
type Resource struct {
	Path   string
	Ext    Extension
	System bool
}

// DefaultSystemDir returns the platform's OS sound library root.
func DefaultSystemDir() string {
	switch runtime.GOOS {
	case "darwin":
		return "/System/Library/Sounds"
	case "windows":
		return `C:\Windows\Media`
	default:
		return "/usr/share/sounds"
	}
}

// Resolver maps locators to concrete file paths. Resolution is pure lookup
// plus a stat; it performs no audio I/O and keeps no cache.
type Resolver struct {
	// SystemDir is the OS sound library root.
	SystemDir string
	// PackDir is the custom sound pack directory.
	PackDir string
	// Stat is injectable for tests; defaults to os.Stat.
	Stat func(string) (fs.FileInfo, error)
}

// NewResolver builds a resolver. An empty systemDir selects the platform
// default.
func NewResolver(systemDir, packDir string) *Resolver {
	if systemDir == "" {
		systemDir = DefaultSystemDir()
	}
	return &Resolver{
		SystemDir: systemDir,
		PackDir:   packDir,
		Stat:      os.Stat,
	}
}

// HasSystemSounds reports whether this host exposes an OS sound library.
// System cues on hosts without one fail resolution.
func (r *Resolver) HasSystemSounds() bool {
	info, err := r.stat(r.SystemDir)
	return err == nil && info.IsDir()
}

// Resolve maps a locator to a resource. It never partially resolves: the
// returned resource points at a file that existed at resolution time.
func (r *Resolver) Resolve(loc Locator) (Resource, error) {
	if err := loc.Validate(); err != nil {
		return Resource{}, err
	}

	switch loc.Kind {
	case KindSystem:
		return r.resolveSystem(loc)
	default:
		return r.resolveCustom(loc)
	}
}

func (r *Resolver) resolveSystem(loc Locator) (Resource, error) {
	sound, ok := lookupSystemSound(loc.Set, loc.Name)
	if !ok {
		return Resource{}, fmt.Errorf("%w: %s/%s", ErrUnknownSound, loc.Set, loc.Name)
	}

	path := filepath.Join(r.SystemDir, setFolders[loc.Set], sound.File)
	if _, err := r.stat(path); err != nil {
		return Resource{}, fmt.Errorf("%w: %s: %v", ErrNotResolvable, path, err)
	}

	ext, err := ParseExtension(filepath.Ext(sound.File))
	if err != nil {
		return Resource{}, err
	}
	return Resource{Path: path, Ext: ext, System: true}, nil
}

func (r *Resolver) resolveCustom(loc Locator) (Resource, error) {
	if r.PackDir == "" {
		return Resource{}, fmt.Errorf("%w: no sound pack configured", ErrNotResolvable)
	}

	path := filepath.Join(r.PackDir, loc.Name+"."+string(loc.Ext))
	if _, err := r.stat(path); err != nil {
		return Resource{}, fmt.Errorf("%w: %s: %v", ErrNotResolvable, path, err)
	}
	return Resource{Path: path, Ext: loc.Ext}, nil
}

func (r *Resolver) stat(path string) (fs.FileInfo, error) {
	if r.Stat != nil {
		return r.Stat(path)
	}
	return os.Stat(path)
}
