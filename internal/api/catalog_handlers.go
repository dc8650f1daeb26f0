package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "rescanCatalog",
		Method:      http.MethodPost,
		Path:        "/api/v1/catalog/rescan",
		Summary:     "Rescan the sound pack",
		Description: "Rebuilds the catalog from the pack directory. The search index and event stream pick up the result through the reload hook.",
		Tags:        []string{"Catalog"},
	}, s.handleRescanCatalog)
}

// === DTOs ===

// RescanResponse summarizes a completed scan.
type RescanResponse struct {
	Clips     int       `json:"clips" doc:"Clips in the catalog after the scan"`
	ScannedAt time.Time `json:"scanned_at" doc:"When the scan finished"`
}

// RescanOutput wraps the rescan response for Huma.
type RescanOutput struct {
	Body RescanResponse
}

// === Handlers ===

func (s *Server) handleRescanCatalog(ctx context.Context, _ *struct{}) (*RescanOutput, error) {
	if err := s.services.Catalog.Scan(ctx); err != nil {
		s.logger.Error("Manual rescan failed", "error", err)
		return nil, err
	}

	return &RescanOutput{
		Body: RescanResponse{
			Clips:     s.services.Catalog.Len(),
			ScannedAt: s.services.Catalog.LastScan(),
		},
	}, nil
}
