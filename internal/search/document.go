// Package search provides full-text search over the sound inventory using
// Bleve. It covers both the OS sound library and the custom pack, with
// fuzzy matching for typo tolerance and faceted filtering by extension.
package search

import (
	"github.com/earconlabs/earcon/internal/catalog"
	"github.com/earconlabs/earcon/pkg/earcon"
)

// SoundKind discriminates document origin in the unified index.
type SoundKind string

// Sound kinds for the search index.
const (
	KindSystem SoundKind = "system"
	KindCustom SoundKind = "custom"
)

// SoundDocument is the unified document structure for the Bleve index.
// System sounds and custom pack clips are indexed together with kind
// discrimination so one query serves the whole inventory.
type SoundDocument struct {
	// Identity
	ID   string    `json:"id"`   // Entry ID for custom clips, locator string for system sounds
	Kind SoundKind `json:"kind"` // Discriminator for result grouping

	// Primary searchable text
	Name string `json:"name"`

	// Custom-clip fields (empty for system sounds)
	Slug    string   `json:"slug,omitempty"`
	Aliases []string `json:"aliases,omitempty"` // Manifest aliases, searchable
	Pack    string   `json:"pack,omitempty"`
	Ext     string   `json:"ext,omitempty"`

	// System-sound fields (empty for custom clips)
	Set string `json:"set,omitempty"`

	// Locator is the playback handle clients pass back to POST /play.
	Locator string `json:"locator"`

	// Numeric fields for range queries and sorting (custom clips only;
	// system sound durations are not probed)
	Duration float64 `json:"duration,omitempty"` // Seconds
	ModTime  int64   `json:"mod_time,omitempty"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// This ensures field names match the Bleve index mapping.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SoundDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":      d.ID,
		"kind":    string(d.Kind),
		"name":    d.Name,
		"locator": d.Locator,
	}

	// Optional fields - only add if non-empty
	if d.Slug != "" {
		m["slug"] = d.Slug
	}
	if len(d.Aliases) > 0 {
		m["aliases"] = d.Aliases
	}
	if d.Pack != "" {
		m["pack"] = d.Pack
	}
	if d.Ext != "" {
		m["ext"] = d.Ext
	}
	if d.Set != "" {
		m["set"] = d.Set
	}
	if d.Duration > 0 {
		m["duration"] = d.Duration
	}
	if d.ModTime > 0 {
		m["mod_time"] = d.ModTime
	}

	return m
}

// EntryToDocument converts a catalog entry to a SoundDocument.
func EntryToDocument(e catalog.Entry) *SoundDocument {
	return &SoundDocument{
		ID:       e.ID,
		Kind:     KindCustom,
		Name:     e.Name,
		Slug:     e.Slug,
		Aliases:  e.Aliases,
		Pack:     e.Pack,
		Ext:      string(e.Ext),
		Locator:  e.Locator().String(),
		Duration: e.Duration.Seconds(),
		ModTime:  e.ModTime.UnixMilli(),
	}
}

// SystemToDocument converts one OS library sound to a SoundDocument.
// The locator string doubles as the document ID: system sounds have no
// catalog identity and the locator is unique within the library.
func SystemToDocument(set earcon.SystemSet, name string) *SoundDocument {
	loc := earcon.System(set, name)
	return &SoundDocument{
		ID:      loc.String(),
		Kind:    KindSystem,
		Name:    name,
		Set:     string(set),
		Locator: loc.String(),
	}
}

// Documents builds the full document set for a reindex: every sound in the
// OS library tables plus every scanned pack entry.
func Documents(entries []catalog.Entry) []*SoundDocument {
	docs := make([]*SoundDocument, 0, len(entries)+64)
	for _, set := range earcon.SystemSets() {
		for _, name := range earcon.SoundsIn(set) {
			docs = append(docs, SystemToDocument(set, name))
		}
	}
	for _, e := range entries {
		docs = append(docs, EntryToDocument(e))
	}
	return docs
}
