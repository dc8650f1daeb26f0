package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/earconlabs/earcon/internal/history"
)

func (s *Server) registerHistoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/history",
		Summary:     "List playback history",
		Description: "Returns ledger records, newest first",
		Tags:        []string{"History"},
	}, s.handleListHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "historyStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/history/stats",
		Summary:     "Playback statistics",
		Description: "Returns totals, failure count, and the failure breakdown by reason",
		Tags:        []string{"History"},
	}, s.handleHistoryStats)
}

// === DTOs ===

// HistoryInput contains parameters for listing ledger records.
type HistoryInput struct {
	Limit    int  `query:"limit" validate:"omitempty,gte=1,lte=500" doc:"Max records (default 100)"`
	Offset   int  `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
	Failures bool `query:"failures" doc:"Only failed attempts"`
}

// HistoryRecordResponse is one playback attempt from the ledger.
type HistoryRecordResponse struct {
	ID     string    `json:"id" doc:"Record ID"`
	At     time.Time `json:"at" doc:"When the attempt happened"`
	Kind   string    `json:"kind" doc:"Cue kind: system or custom"`
	Set    string    `json:"set,omitempty" doc:"System set (system cues only)"`
	Name   string    `json:"name" doc:"Cue name"`
	Ext    string    `json:"ext,omitempty" doc:"Extension (custom clips only)"`
	OK     bool      `json:"ok" doc:"Whether the cue played"`
	Reason string    `json:"reason,omitempty" doc:"Failure reason: disabled, resolutionFailed, or platformError"`
	Source string    `json:"source,omitempty" doc:"Where the request came from: api, binding, or cli"`
}

// HistoryResponse contains a page of ledger records.
type HistoryResponse struct {
	Records []HistoryRecordResponse `json:"records" doc:"Ledger records, newest first"`
	Count   int                     `json:"count" doc:"Records in this page"`
}

// HistoryOutput wraps the history page for Huma.
type HistoryOutput struct {
	Body HistoryResponse
}

// HistoryStatsResponse summarizes the ledger.
type HistoryStatsResponse struct {
	Total    int64            `json:"total" doc:"Total playback attempts"`
	Failures int64            `json:"failures" doc:"Failed attempts"`
	ByReason map[string]int64 `json:"by_reason" doc:"Failure counts grouped by reason"`
}

// HistoryStatsOutput wraps the stats response for Huma.
type HistoryStatsOutput struct {
	Body HistoryStatsResponse
}

// === Handlers ===

func (s *Server) handleListHistory(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	records, err := s.services.History.List(ctx, history.ListParams{
		Limit:        input.Limit,
		Offset:       input.Offset,
		OnlyFailures: input.Failures,
	})
	if err != nil {
		s.logger.Error("Failed to list playback history", "error", err)
		return nil, err
	}

	resp := HistoryResponse{
		Records: make([]HistoryRecordResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, HistoryRecordResponse{
			ID:     rec.ID,
			At:     rec.At,
			Kind:   rec.Kind,
			Set:    rec.Set,
			Name:   rec.Name,
			Ext:    rec.Ext,
			OK:     rec.OK,
			Reason: rec.Reason,
			Source: rec.Source,
		})
	}
	resp.Count = len(resp.Records)

	return &HistoryOutput{Body: resp}, nil
}

func (s *Server) handleHistoryStats(ctx context.Context, _ *struct{}) (*HistoryStatsOutput, error) {
	stats, err := s.services.History.Stats(ctx)
	if err != nil {
		s.logger.Error("Failed to compute playback stats", "error", err)
		return nil, err
	}

	return &HistoryStatsOutput{
		Body: HistoryStatsResponse{
			Total:    stats.Total,
			Failures: stats.Failures,
			ByReason: stats.ByReason,
		},
	}, nil
}
