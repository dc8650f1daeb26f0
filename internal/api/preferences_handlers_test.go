package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPreferences_Defaults(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/preferences")
	require.Equal(t, http.StatusOK, resp.Code)

	var body PreferencesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	// Fresh store: everything off, numeric values unset.
	assert.False(t, body.Values.Enabled)
	assert.False(t, body.Values.LoggingEnabled)
	assert.Equal(t, 0, body.Values.LogThreshold)
	assert.Equal(t, 0, body.Values.LogCooldown)

	// The effective snapshot substitutes documented defaults for the zeros.
	assert.False(t, body.Effective.Enabled)
	assert.Equal(t, 20, body.Effective.LogThreshold)
	assert.Equal(t, "2m0s", body.Effective.LogCooldown)
}

func TestUpdatePreferences(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Patch("/api/v1/preferences", map[string]any{
		"audio_effects_enabled": true,
		"audio_log_threshold":   5,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var body PreferencesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	assert.True(t, body.Values.Enabled)
	assert.Equal(t, 5, body.Values.LogThreshold)
	// Untouched keys keep their stored values.
	assert.False(t, body.Values.LoggingEnabled)
	assert.Equal(t, 0, body.Values.LogCooldown)

	// The write is persisted, not just echoed.
	resp = ts.api.Get("/api/v1/preferences")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.Values.Enabled)
	assert.Equal(t, 5, body.Values.LogThreshold)
}

func TestUpdatePreferences_PartialLeavesRest(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Patch("/api/v1/preferences", map[string]any{
		"audio_effects_enabled": true,
		"audio_logging_enabled": true,
		"audio_log_cooldown":    30,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	// Flip one key back; the others must survive.
	resp = ts.api.Patch("/api/v1/preferences", map[string]any{
		"audio_effects_enabled": false,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var body PreferencesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.False(t, body.Values.Enabled)
	assert.True(t, body.Values.LoggingEnabled)
	assert.Equal(t, 30, body.Values.LogCooldown)
}

func TestUpdatePreferences_RejectsNegative(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Patch("/api/v1/preferences", map[string]any{
		"audio_log_threshold": -1,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "VALIDATION", apiErr.Code)
}

func TestUpdatePreferences_EmptyPatch(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Patch("/api/v1/preferences", map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)

	var body PreferencesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.False(t, body.Values.Enabled)
}
