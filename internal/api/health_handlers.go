package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Health check",
		Description: "Returns daemon health with per-component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// Component and overall statuses, ordered from best to worst.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Version    string                     `json:"version" doc:"Daemon version"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"prefs":   s.checkPreferenceStore(ctx),
		"search":  s.checkSearchIndex(),
		"catalog": s.checkCatalog(),
		"sse":     s.checkEventStream(),
	}

	overall := statusHealthy
	for _, c := range components {
		overall = worse(overall, c.Status)
	}

	// The preference store is the daemon's backbone. Anything short of
	// healthy there rolls the whole daemon up to unhealthy.
	if components["prefs"].Status != statusHealthy {
		overall = statusUnhealthy
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Version:    s.version,
			Components: components,
		},
	}, nil
}

// worse returns the more severe of two statuses.
func worse(a, b string) string {
	if severity(b) > severity(a) {
		return b
	}
	return a
}

func severity(status string) int {
	switch status {
	case statusHealthy:
		return 0
	case statusDegraded:
		return 1
	default:
		return 2
	}
}

// checkPreferenceStore verifies the badger store answers a read. Absent
// keys are fine, a fresh store just yields zero values.
func (s *Server) checkPreferenceStore(ctx context.Context) ComponentHealth {
	if s.services == nil || s.services.Prefs == nil {
		return ComponentHealth{Status: statusDegraded, Message: "preference store not configured"}
	}

	start := time.Now()
	_, err := s.services.Prefs.Load(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "preference store read failed",
		}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkSearchIndex verifies the bleve index answers a count. The system
// sound tables are indexed at boot, so an empty index means the first
// build has not finished yet.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search index not configured"}
	}

	start := time.Now()
	docCount, err := s.services.Search.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "search index unreachable",
		}
	}
	if docCount == 0 {
		return ComponentHealth{
			Status:  statusDegraded,
			Latency: latency.String(),
			Message: "search index empty",
		}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkCatalog reports the pack inventory state. An empty pack is normal,
// so the catalog never degrades the daemon on its own.
func (s *Server) checkCatalog() ComponentHealth {
	if s.services == nil || s.services.Catalog == nil {
		return ComponentHealth{Status: statusDegraded, Message: "catalog not configured"}
	}

	return ComponentHealth{
		Status:  statusHealthy,
		Message: formatClipCount(s.services.Catalog.Len()),
	}
}

// checkEventStream reports the broadcast manager state. A running manager
// is healthy no matter how many clients are listening.
func (s *Server) checkEventStream() ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "SSE manager not configured"}
	}

	return ComponentHealth{
		Status:  statusHealthy,
		Message: formatClientCount(s.sseManager.ClientCount()),
	}
}

func formatClientCount(count int) string {
	switch count {
	case 0:
		return "no connected clients"
	case 1:
		return "1 connected client"
	default:
		return strconv.Itoa(count) + " connected clients"
	}
}

func formatClipCount(count int) string {
	if count == 1 {
		return "1 clip cataloged"
	}
	return strconv.Itoa(count) + " clips cataloged"
}
