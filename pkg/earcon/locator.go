// Package earcon plays short audio cues ("earcons") in response to
// application events. It resolves abstract cue locators against the OS sound
// library or a custom sound pack, gates playback on user preferences, and
// throttles its own diagnostics so a misfiring caller cannot flood the log.
//
// Playback is fire-and-forget: cues are cosmetic and must never disrupt the
// caller's control flow. Failures surface only through the log channel and
// the optional outcome hook.
package earcon

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by resolution.
var (
	// ErrInvalidLocator means the locator itself is malformed (bad kind,
	// empty name, unknown extension, or a name that escapes the pack dir).
	ErrInvalidLocator = errors.New("invalid locator")
	// ErrUnknownSound means a system locator names a sound that is not in
	// the set tables.
	ErrUnknownSound = errors.New("unknown system sound")
	// ErrNotResolvable means the locator is well-formed but the backing
	// file does not exist on this host.
	ErrNotResolvable = errors.New("sound not resolvable")
)

// Extension is an audio container/extension accepted for cues.
type Extension string

// Supported cue file extensions.
const (
	ExtWAV  Extension = "wav"
	ExtMP3  Extension = "mp3"
	ExtAIF  Extension = "aif"
	ExtAIFF Extension = "aiff"
	ExtCAF  Extension = "caf"
	ExtM4A  Extension = "m4a"
)

// Extensions returns the supported extensions in stable order.
func Extensions() []Extension {
	return []Extension{ExtWAV, ExtMP3, ExtAIF, ExtAIFF, ExtCAF, ExtM4A}
}

// Valid reports whether e is a supported extension.
func (e Extension) Valid() bool {
	switch e {
	case ExtWAV, ExtMP3, ExtAIF, ExtAIFF, ExtCAF, ExtM4A:
		return true
	}
	return false
}

func (e Extension) String() string {
	return string(e)
}

// ParseExtension normalizes a file extension ("wav", ".WAV") to an Extension.
func ParseExtension(s string) (Extension, error) {
	e := Extension(strings.ToLower(strings.TrimPrefix(s, ".")))
	if !e.Valid() {
		return "", fmt.Errorf("%w: extension %q", ErrInvalidLocator, s)
	}
	return e, nil
}

// SystemSet identifies one of the OS sound library's cue sets.
type SystemSet string

// The closed set of system sound sets. UI sounds live at the root of the
// system sound directory; the other sets live in a folder of the same name.
const (
	SetModern SystemSet = "Modern"
	SetNano   SystemSet = "Nano"
	SetNew    SystemSet = "New"
	SetUI     SystemSet = "UI"
)

// SystemSets returns all sets in stable order.
func SystemSets() []SystemSet {
	return []SystemSet{SetModern, SetNano, SetNew, SetUI}
}

// Valid reports whether s is a known set.
func (s SystemSet) Valid() bool {
	switch s {
	case SetModern, SetNano, SetNew, SetUI:
		return true
	}
	return false
}

func (s SystemSet) String() string {
	return string(s)
}

// ParseSystemSet normalizes a set name case-insensitively.
func ParseSystemSet(s string) (SystemSet, error) {
	for _, set := range SystemSets() {
		if strings.EqualFold(s, string(set)) {
			return set, nil
		}
	}
	return "", fmt.Errorf("%w: system set %q", ErrInvalidLocator, s)
}

// Kind discriminates the two locator variants.
type Kind string

// Locator kinds.
const (
	KindSystem Kind = "system"
	KindCustom Kind = "custom"
)

// Locator names a cue abstractly: either a sound from one of the OS sets, or
// a file from the custom sound pack. Locators are immutable values,
// constructed per playback request and discarded after resolution.
type Locator struct {
	Kind Kind      `json:"kind"`
	Set  SystemSet `json:"set,omitempty"`
	Name string    `json:"name"`
	Ext  Extension `json:"ext,omitempty"`
}

// System builds a locator for a sound in one of the OS sets.
func System(set SystemSet, name string) Locator {
	return Locator{Kind: KindSystem, Set: set, Name: name}
}

// Custom builds a locator for a file in the custom sound pack.
func Custom(name string, ext Extension) Locator {
	return Locator{Kind: KindCustom, Name: name, Ext: ext}
}

// Validate checks the locator's shape without touching the filesystem.
func (l Locator) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidLocator)
	}
	switch l.Kind {
	case KindSystem:
		if !l.Set.Valid() {
			return fmt.Errorf("%w: system set %q", ErrInvalidLocator, l.Set)
		}
	case KindCustom:
		if !l.Ext.Valid() {
			return fmt.Errorf("%w: extension %q", ErrInvalidLocator, l.Ext)
		}
		if strings.ContainsAny(l.Name, `/\`) || strings.Contains(l.Name, "..") {
			return fmt.Errorf("%w: name %q must not contain path elements", ErrInvalidLocator, l.Name)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidLocator, l.Kind)
	}
	return nil
}

// String renders the locator for logs: "system:UI/Ping", "custom:chime.wav".
func (l Locator) String() string {
	switch l.Kind {
	case KindSystem:
		return fmt.Sprintf("system:%s/%s", l.Set, l.Name)
	case KindCustom:
		return fmt.Sprintf("custom:%s.%s", l.Name, l.Ext)
	default:
		return fmt.Sprintf("?:%s", l.Name)
	}
}
