package api

import (
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earconlabs/earcon/internal/catalog"
	"github.com/earconlabs/earcon/internal/history"
	"github.com/earconlabs/earcon/internal/logger"
	"github.com/earconlabs/earcon/internal/prefs"
	"github.com/earconlabs/earcon/internal/search"
	"github.com/earconlabs/earcon/internal/sse"
	"github.com/earconlabs/earcon/internal/validation"
	"github.com/earconlabs/earcon/pkg/earcon"
)

// testServer wraps the API server with a humatest client over real stores
// in a temp directory.
type testServer struct {
	*Server
	api     humatest.TestAPI
	packDir string
	cleanup func()
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "earcon-api-test-*")
	require.NoError(t, err)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	prefsStore, err := prefs.New(filepath.Join(tmpDir, "prefs"), logger.Discard())
	require.NoError(t, err)

	historyStore, err := history.Open(filepath.Join(tmpDir, "history.db"), logger.Discard())
	require.NoError(t, err)

	searchIndex, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(tmpDir, "search"),
		Logger:   slogger,
	})
	require.NoError(t, err)

	packDir := filepath.Join(tmpDir, "packs")
	require.NoError(t, os.MkdirAll(packDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(packDir, "chime.wav"), []byte("RIFF"), 0o644))

	cat := catalog.New(catalog.Options{Dir: packDir, Logger: logger.Discard()})
	require.NoError(t, cat.Scan(context.Background()))
	require.NoError(t, searchIndex.IndexDocuments(search.Documents(cat.Entries())))

	engine := earcon.New(earcon.Options{
		Provider: prefsStore,
		PackDir:  packDir,
		Logger:   logger.Discard(),
	})

	sseManager := sse.NewManager(slogger)

	router := chi.NewRouter()
	humaConfig := huma.DefaultConfig("Earcon API Test", "test")
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		services: &Services{
			Prefs:   prefsStore,
			Engine:  engine,
			Catalog: cat,
			Search:  searchIndex,
			History: historyStore,
		},
		sseManager:  sseManager,
		sseHandler:  sse.NewHandler(sseManager, slogger),
		router:      router,
		api:         api,
		logger:      slogger,
		validator:   validation.New(),
		rateLimiter: NewRateLimiter(600, time.Minute, 120),
		version:     "test",
	}

	s.registerRoutes()

	testAPI := humatest.Wrap(t, api)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = engine.Close(ctx)
		s.rateLimiter.Stop()
		_ = searchIndex.Close()
		_ = historyStore.Close()
		_ = prefsStore.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &testServer{Server: s, api: testAPI, packDir: packDir, cleanup: cleanup}
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.Contains(t, body.Components, "prefs")
	assert.Contains(t, body.Components, "search")
	assert.Contains(t, body.Components, "catalog")
	assert.Contains(t, body.Components, "sse")
	assert.Equal(t, "healthy", body.Components["prefs"].Status)
	assert.Equal(t, "healthy", body.Components["search"].Status)
	assert.Equal(t, "1 clip cataloged", body.Components["catalog"].Message)
	assert.Equal(t, "no connected clients", body.Components["sse"].Message)
}

func TestHealthCheck_UnconfiguredComponents(t *testing.T) {
	// A server with nothing wired reports degraded, not a panic.
	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("Earcon API Test", "test"))
	RegisterErrorHandler()

	s := &Server{
		router:  router,
		api:     api,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		version: "test",
	}
	s.registerHealthRoutes()

	resp := humatest.Wrap(t, api).Get("/api/v1/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	// The preference store is the critical component; its absence rolls
	// the daemon up to unhealthy even though each check only degrades.
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "degraded", body.Components["prefs"].Status)
	assert.Equal(t, "degraded", body.Components["search"].Status)
	assert.Equal(t, "degraded", body.Components["catalog"].Status)
	assert.Equal(t, "degraded", body.Components["sse"].Status)
}

func TestStatusToCode(t *testing.T) {
	assert.Equal(t, "VALIDATION", statusToCode(400))
	assert.Equal(t, "VALIDATION", statusToCode(422))
	assert.Equal(t, "NOT_FOUND", statusToCode(404))
	assert.Equal(t, "CONFLICT", statusToCode(409))
	assert.Equal(t, "RATE_LIMITED", statusToCode(429))
	assert.Equal(t, "UNAVAILABLE", statusToCode(503))
	assert.Equal(t, "INTERNAL", statusToCode(500))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "192.168.1.10:54321",
			want:       "192.168.1.10",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "127.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.5"},
			want:       "10.0.0.5",
		},
		{
			name:       "x-forwarded-for chain takes first",
			remoteAddr: "127.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.5, 172.16.0.1"},
			want:       "10.0.0.5",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "127.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "10.0.0.9"},
			want:       "10.0.0.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := http.NewRequest(http.MethodGet, "/", nil)
			require.NoError(t, err)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}
