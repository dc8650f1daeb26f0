// Package id mints the short prefixed identifiers used across the daemon.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Identifier classes. Keeping the prefixes in one place makes a grep
// through logs or API payloads unambiguous.
const (
	PrefixCue      = "cue"      // catalog entries
	PrefixClient   = "client"   // event stream clients
	PrefixInstance = "instance" // daemon identity advertised over mDNS
)

// New creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "cue-V1StGXR8_Z5jdHi6B-myT").
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func New(prefix string) (string, error) {
	// Use default NanoID (21 characters, URL-safe alphabet)
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustNew is like New but panics if ID generation fails.
// Use this only when you're certain the system entropy is available,
// or when failure should crash the program (e.g., during initialization).
func MustNew(prefix string) string {
	id, err := New(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
