// Package catalog inventories the custom sound pack: which clips exist,
// how long they run, and what the pack manifest says about them. The
// resolver consults the filesystem directly at playback time; the catalog
// is the browsable view the API and search index are built from.
package catalog

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/earconlabs/earcon/internal/id"
	"github.com/earconlabs/earcon/internal/logger"
	"github.com/earconlabs/earcon/pkg/earcon"
)

// Entry is one playable clip discovered in the pack directory.
type Entry struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Slug     string           `json:"slug"`
	Ext      earcon.Extension `json:"ext"`
	Path     string           `json:"path"`
	Size     int64            `json:"size"`
	Duration time.Duration    `json:"duration"` // 0 when the probe failed or was skipped
	Overlong bool             `json:"overlong"` // longer than the player will render
	ModTime  time.Time        `json:"modTime"`
	Pack     string           `json:"pack"`
	Aliases  []string         `json:"aliases,omitempty"`
}

// Locator returns the playback locator for this entry.
func (e Entry) Locator() earcon.Locator {
	return earcon.Custom(e.Name, e.Ext)
}

// Options configures a Catalog.
type Options struct {
	Dir      string         // pack directory; empty disables custom sounds
	Logger   *logger.Logger // nil for silent
	Prober   earcon.Prober  // nil skips duration probing
	OnReload func([]Entry)  // called after every successful scan
}

// Catalog holds the scanned entry set. Reads never block a running scan:
// Scan builds the new set aside and swaps it in under a short write lock.
type Catalog struct {
	log      *logger.Logger
	dir      string
	prober   earcon.Prober
	onReload func([]Entry)

	scanMu sync.Mutex // serializes scans

	mu       sync.RWMutex
	entries  []Entry // sorted by Name, then Ext
	byKey    map[string]Entry
	manifest Manifest
	scanned  time.Time
}

// New creates an empty catalog. Call Scan to populate it.
func New(opts Options) *Catalog {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	return &Catalog{
		log:      log,
		dir:      opts.Dir,
		prober:   opts.Prober,
		onReload: opts.OnReload,
		byKey:    make(map[string]Entry),
	}
}

// Scan rebuilds the entry set from the pack directory. Unreadable files and
// failed probes are tolerated; a canceled context aborts without touching
// the current set. No-op when no pack directory is configured.
func (c *Catalog) Scan(ctx context.Context) error {
	if c.dir == "" {
		return nil
	}

	c.scanMu.Lock()
	defer c.scanMu.Unlock()

	start := time.Now()

	manifest, err := loadManifest(c.dir)
	if err != nil {
		// A broken manifest must not take the pack offline.
		c.log.Error("pack manifest unreadable, ignoring", "dir", c.dir, "error", err)
		manifest = Manifest{}
	}

	pack := manifest.Name
	if pack == "" {
		pack = filepath.Base(c.dir)
	}

	var entries []Entry
	for wr := range walkPack(ctx, c.log, c.dir) {
		ext, perr := earcon.ParseExtension(filepath.Ext(wr.Name))
		if perr != nil {
			// Not an audio clip: manifest, readme, cover art.
			continue
		}

		name := strings.TrimSuffix(wr.Name, filepath.Ext(wr.Name))
		entry := Entry{
			ID:      id.MustNew(id.PrefixCue),
			Name:    name,
			Slug:    slugify(name),
			Ext:     ext,
			Path:    wr.Path,
			Size:    wr.Size,
			ModTime: wr.ModTime,
			Pack:    pack,
			Aliases: manifest.Aliases[name],
		}

		if c.prober != nil {
			d, perr := c.prober.Duration(wr.Path)
			if perr != nil {
				c.log.Debug("length probe failed", "file", wr.Name, "error", perr)
			} else {
				entry.Duration = d
				entry.Overlong = d > earcon.MaxCustomClipLength
			}
		}

		entries = append(entries, entry)
	}

	// A canceled walk yields a partial set; keep what we had.
	if err := ctx.Err(); err != nil {
		return err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Ext < entries[j].Ext
	})

	byKey := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byKey[entryKey(e.Name, e.Ext)] = e
	}

	c.mu.Lock()
	c.entries = entries
	c.byKey = byKey
	c.manifest = manifest
	c.scanned = time.Now()
	c.mu.Unlock()

	c.log.Info("sound pack scanned",
		"dir", c.dir,
		"clips", len(entries),
		"took", time.Since(start).Round(time.Millisecond))

	if c.onReload != nil {
		c.onReload(c.Entries())
	}

	return nil
}

// Lookup finds an entry by cue name and extension.
func (c *Catalog) Lookup(name string, ext earcon.Extension) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.byKey[entryKey(name, ext)]
	return e, ok
}

// Entries returns a copy of the entry set, sorted by name then extension.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len reports the number of cataloged clips.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Manifest returns the pack manifest from the last scan.
func (c *Catalog) Manifest() Manifest {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.manifest
}

// LastScan reports when the entry set was last rebuilt, zero before the
// first successful scan.
func (c *Catalog) LastScan() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.scanned
}

func entryKey(name string, ext earcon.Extension) string {
	return name + "." + string(ext)
}
