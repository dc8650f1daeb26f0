package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/earconlabs/earcon/internal/prefs"
	"github.com/earconlabs/earcon/internal/sse"
	"github.com/earconlabs/earcon/pkg/earcon"
)

func (s *Server) registerPreferenceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPreferences",
		Method:      http.MethodGet,
		Path:        "/api/v1/preferences",
		Summary:     "Get preferences",
		Description: "Returns the stored preference values and the effective snapshot the player applies",
		Tags:        []string{"Preferences"},
	}, s.handleGetPreferences)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePreferences",
		Method:      http.MethodPatch,
		Path:        "/api/v1/preferences",
		Summary:     "Update preferences",
		Description: "Applies a partial preference update; omitted keys are left untouched",
		Tags:        []string{"Preferences"},
	}, s.handleUpdatePreferences)
}

// === DTOs ===

// PreferenceValues mirrors the four stored preference keys. Zero numeric
// values mean "not configured"; the effective snapshot shows what the
// player actually applies.
type PreferenceValues struct {
	Enabled        bool `json:"audio_effects_enabled" doc:"Master switch for audio cues"`
	LoggingEnabled bool `json:"audio_logging_enabled" doc:"Whether suppressed and failed cues are logged"`
	LogThreshold   int  `json:"audio_log_threshold" doc:"Suppressed attempts tolerated before a throttled log line"`
	LogCooldown    int  `json:"audio_log_cooldown" doc:"Seconds between throttled log lines"`
}

// EffectiveSnapshot is the defaulted view of the preferences currently
// driving the player.
type EffectiveSnapshot struct {
	Enabled        bool   `json:"enabled" doc:"Whether cues play"`
	LoggingEnabled bool   `json:"logging_enabled" doc:"Whether diagnostics are logged"`
	LogThreshold   int    `json:"log_threshold" doc:"Effective log threshold"`
	LogCooldown    string `json:"log_cooldown" doc:"Effective log cooldown as a duration string"`
}

// PreferencesResponse contains preference data in API responses.
type PreferencesResponse struct {
	Values    PreferenceValues  `json:"values" doc:"Raw stored values"`
	Effective EffectiveSnapshot `json:"effective" doc:"Snapshot the player currently applies"`
}

// PreferencesOutput wraps the preferences response for Huma.
type PreferencesOutput struct {
	Body PreferencesResponse
}

// UpdatePreferencesRequest is the request body for a partial preference
// update. Nil fields are left untouched.
type UpdatePreferencesRequest struct {
	Enabled        *bool `json:"audio_effects_enabled,omitempty" doc:"Master switch for audio cues"`
	LoggingEnabled *bool `json:"audio_logging_enabled,omitempty" doc:"Whether suppressed and failed cues are logged"`
	LogThreshold   *int  `json:"audio_log_threshold,omitempty" validate:"omitempty,gte=0,lte=10000" doc:"Suppressed attempts tolerated before a throttled log line"`
	LogCooldown    *int  `json:"audio_log_cooldown,omitempty" validate:"omitempty,gte=0,lte=86400" doc:"Seconds between throttled log lines"`
}

// UpdatePreferencesInput wraps the update request for Huma.
type UpdatePreferencesInput struct {
	Body UpdatePreferencesRequest
}

// === Handlers ===

func (s *Server) handleGetPreferences(ctx context.Context, _ *struct{}) (*PreferencesOutput, error) {
	values, err := s.services.Prefs.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load preferences", "error", err)
		return nil, err
	}

	return &PreferencesOutput{Body: preferencesResponse(values, s.services.Engine.Settings())}, nil
}

func (s *Server) handleUpdatePreferences(ctx context.Context, input *UpdatePreferencesInput) (*PreferencesOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	values, err := s.services.Prefs.Apply(ctx, prefs.Update{
		Enabled:        input.Body.Enabled,
		LoggingEnabled: input.Body.LoggingEnabled,
		LogThreshold:   input.Body.LogThreshold,
		LogCooldown:    input.Body.LogCooldown,
	})
	if err != nil {
		return nil, err
	}

	// The engine refreshes itself through the store's subscription; the
	// snapshot below may lag one beat behind the values just written.
	s.sseManager.Emit(sse.NewPrefsChangedEvent(values))

	s.logger.Info("Preferences updated",
		"enabled", values.Enabled,
		"logging", values.LoggingEnabled,
	)

	return &PreferencesOutput{Body: preferencesResponse(values, s.services.Engine.Settings())}, nil
}

func preferencesResponse(values earcon.Values, snap earcon.Snapshot) PreferencesResponse {
	return PreferencesResponse{
		Values: PreferenceValues{
			Enabled:        values.Enabled,
			LoggingEnabled: values.LoggingEnabled,
			LogThreshold:   values.LogThreshold,
			LogCooldown:    values.LogCooldown,
		},
		Effective: EffectiveSnapshot{
			Enabled:        snap.Enabled,
			LoggingEnabled: snap.LoggingEnabled,
			LogThreshold:   snap.LogThreshold,
			LogCooldown:    snap.LogCooldown.String(),
		},
	}
}
