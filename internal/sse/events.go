// Package sse implements Server-Sent Events for real-time cue and preference updates.
package sse

import (
	"time"

	"github.com/earconlabs/earcon/pkg/earcon"
)

// In earcon we only use SSE for server-to-client communication: clients
// mutate state through the REST API and observe the results here.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventCuePlayed represents a successfully played cue.
	EventCuePlayed EventType = "cue.played"
	// EventCueFailed represents a cue attempt that could not be played.
	// Failures are reported here and in the playback log, never to the
	// caller that triggered them.
	EventCueFailed EventType = "cue.failed"

	// EventPrefsChanged represents an audio preference update.
	EventPrefsChanged EventType = "prefs.changed"

	// EventCatalogReloaded represents a completed custom sound rescan.
	EventCatalogReloaded EventType = "catalog.reloaded"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	// EventConnected is the hello frame sent once per stream, carrying the
	// client ID so daemon-side log lines can be matched to a consumer.
	EventConnected EventType = "connected"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`
}

// CuePlayedEventData is the data payload for cue.played events.
type CuePlayedEventData struct {
	PlayedAt time.Time `json:"played_at"`
	Locator  string    `json:"locator"`
	Source   string    `json:"source"`
	Attempts int       `json:"attempts"`
}

// CueFailedEventData is the data payload for cue.failed events.
type CueFailedEventData struct {
	FailedAt time.Time `json:"failed_at"`
	Locator  string    `json:"locator"`
	Source   string    `json:"source"`
	Reason   string    `json:"reason"`
	Attempts int       `json:"attempts"`
}

// PrefsChangedEventData is the data payload for prefs.changed events.
// Carries the full effective preference set so clients render the new
// state without a follow-up fetch.
type PrefsChangedEventData struct {
	ChangedAt          time.Time `json:"changed_at"`
	Enabled            bool      `json:"audio_effects_enabled"`
	LoggingEnabled     bool      `json:"audio_logging_enabled"`
	LogThreshold       int       `json:"audio_log_threshold"`
	LogCooldownSeconds int       `json:"audio_log_cooldown"`
}

// CatalogReloadedEventData is the data payload for catalog.reloaded events.
type CatalogReloadedEventData struct {
	ReloadedAt time.Time `json:"reloaded_at"`
	Sounds     int       `json:"sounds"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// ConnectedEventData is the data payload for connected events.
type ConnectedEventData struct {
	ClientID string `json:"client_id"`
}

// NewCueEvent creates a cue.played or cue.failed event from a playback outcome.
func NewCueEvent(out earcon.Outcome, source string) Event {
	now := time.Now()
	if out.OK {
		return Event{
			Type: EventCuePlayed,
			Data: CuePlayedEventData{
				PlayedAt: now,
				Locator:  out.Locator.String(),
				Source:   source,
				Attempts: out.Attempts,
			},
			Timestamp: now,
		}
	}
	return Event{
		Type: EventCueFailed,
		Data: CueFailedEventData{
			FailedAt: now,
			Locator:  out.Locator.String(),
			Source:   source,
			Reason:   string(out.Reason),
			Attempts: out.Attempts,
		},
		Timestamp: now,
	}
}

// NewPrefsChangedEvent creates a prefs.changed event.
func NewPrefsChangedEvent(values earcon.Values) Event {
	now := time.Now()
	return Event{
		Type: EventPrefsChanged,
		Data: PrefsChangedEventData{
			ChangedAt:          now,
			Enabled:            values.Enabled,
			LoggingEnabled:     values.LoggingEnabled,
			LogThreshold:       values.LogThreshold,
			LogCooldownSeconds: values.LogCooldown,
		},
		Timestamp: now,
	}
}

// NewCatalogReloadedEvent creates a catalog.reloaded event.
func NewCatalogReloadedEvent(sounds int) Event {
	now := time.Now()
	return Event{
		Type: EventCatalogReloaded,
		Data: CatalogReloadedEventData{
			ReloadedAt: now,
			Sounds:     sounds,
		},
		Timestamp: now,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewConnectedEvent creates the per-stream hello event.
func NewConnectedEvent(clientID string) Event {
	return Event{
		Type:      EventConnected,
		Data:      ConnectedEventData{ClientID: clientID},
		Timestamp: time.Now(),
	}
}
