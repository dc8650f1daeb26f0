package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/earconlabs/earcon/internal/catalog"
	"github.com/earconlabs/earcon/internal/search"
	"github.com/earconlabs/earcon/pkg/earcon"
)

func (s *Server) registerSoundRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSounds",
		Method:      http.MethodGet,
		Path:        "/api/v1/sounds",
		Summary:     "List sounds",
		Description: "Returns the built-in system sound tables and the cataloged sound pack clips",
		Tags:        []string{"Sounds"},
	}, s.handleListSounds)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchSounds",
		Method:      http.MethodGet,
		Path:        "/api/v1/sounds/search",
		Summary:     "Search sounds",
		Description: "Full-text search across system sounds and pack clips with fuzzy and prefix matching",
		Tags:        []string{"Sounds"},
	}, s.handleSearchSounds)
}

// === DTOs ===

// SystemSetResponse is one OS sound set and its members.
type SystemSetResponse struct {
	Set    string   `json:"set" doc:"System set name"`
	Sounds []string `json:"sounds" doc:"Sound names in this set"`
}

// ClipResponse is one cataloged sound pack clip.
type ClipResponse struct {
	ID         string   `json:"id" doc:"Catalog entry ID"`
	Name       string   `json:"name" doc:"Cue name (file name without extension)"`
	Slug       string   `json:"slug" doc:"URL-safe slug"`
	Ext        string   `json:"ext" doc:"File extension"`
	Locator    string   `json:"locator" doc:"Canonical playback locator"`
	Pack       string   `json:"pack,omitempty" doc:"Pack name from the manifest"`
	Size       int64    `json:"size" doc:"File size in bytes"`
	DurationMs int64    `json:"duration_ms,omitempty" doc:"Clip length in milliseconds, 0 when unprobed"`
	Overlong   bool     `json:"overlong,omitempty" doc:"Longer than the player will render"`
	Aliases    []string `json:"aliases,omitempty" doc:"Alternate names from the manifest"`
}

// PackResponse carries pack manifest metadata.
type PackResponse struct {
	Name        string `json:"name,omitempty" doc:"Pack name"`
	Description string `json:"description,omitempty" doc:"Pack description"`
}

// ListSoundsResponse contains the full sound inventory.
type ListSoundsResponse struct {
	System    []SystemSetResponse `json:"system" doc:"Built-in system sound tables"`
	Custom    []ClipResponse      `json:"custom" doc:"Clips discovered in the sound pack"`
	Pack      *PackResponse       `json:"pack,omitempty" doc:"Pack manifest metadata"`
	ScannedAt *time.Time          `json:"scanned_at,omitempty" doc:"When the pack was last scanned"`
}

// ListSoundsOutput wraps the sound inventory for Huma.
type ListSoundsOutput struct {
	Body ListSoundsResponse
}

// SearchSoundsInput contains parameters for searching the inventory.
type SearchSoundsInput struct {
	Query       string  `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Kinds       string  `query:"kinds" validate:"omitempty,max=50" doc:"Comma-separated kinds (system,custom). Omit for all."`
	Sets        string  `query:"sets" validate:"omitempty,max=100" doc:"Comma-separated system sets to filter by"`
	Exts        string  `query:"exts" validate:"omitempty,max=50" doc:"Comma-separated extensions to filter by"`
	MinDuration float64 `query:"min_duration" validate:"omitempty,gte=0" doc:"Minimum clip length in seconds"`
	MaxDuration float64 `query:"max_duration" validate:"omitempty,gte=0" doc:"Maximum clip length in seconds"`
	Limit       int     `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset      int     `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset (default 0)"`
	Sort        string  `query:"sort" validate:"omitempty,oneof=relevance name recent duration" doc:"Sort order (default relevance)"`
	Order       string  `query:"order" validate:"omitempty,oneof=asc desc" doc:"Sort direction"`
	Facets      bool    `query:"facets" doc:"Include facet counts in the response"`
}

// SoundHitResult contains a single search result.
type SoundHitResult struct {
	ID         string            `json:"id" doc:"Document ID"`
	Kind       string            `json:"kind" doc:"Kind: system or custom"`
	Score      float64           `json:"score" doc:"Search relevance score"`
	Name       string            `json:"name" doc:"Cue name"`
	Slug       string            `json:"slug,omitempty" doc:"URL-safe slug"`
	Set        string            `json:"set,omitempty" doc:"System set (system sounds only)"`
	Pack       string            `json:"pack,omitempty" doc:"Pack name (custom clips only)"`
	Ext        string            `json:"ext,omitempty" doc:"File extension (custom clips only)"`
	Locator    string            `json:"locator" doc:"Canonical playback locator"`
	Duration   float64           `json:"duration,omitempty" doc:"Clip length in seconds"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SoundFacets contains facet counts for filtering.
type SoundFacets struct {
	Extensions []FacetCount `json:"extensions,omitempty" doc:"Extension facets"`
	Sets       []FacetCount `json:"sets,omitempty" doc:"System set facets"`
	Kinds      []FacetCount `json:"kinds,omitempty" doc:"Kind facets"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value" doc:"Facet value"`
	Count int    `json:"count" doc:"Number of matches"`
}

// SearchSoundsResponse contains search results.
type SearchSoundsResponse struct {
	Query  string           `json:"query" doc:"Original search query"`
	Total  int64            `json:"total" doc:"Total matches"`
	TookMs int64            `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SoundHitResult `json:"hits" doc:"Search results"`
	Facets *SoundFacets     `json:"facets,omitempty" doc:"Facet counts for filtering"`
}

// SearchSoundsOutput wraps the search response for Huma.
type SearchSoundsOutput struct {
	Body SearchSoundsResponse
}

// === Handlers ===

func (s *Server) handleListSounds(_ context.Context, _ *struct{}) (*ListSoundsOutput, error) {
	system := make([]SystemSetResponse, 0, len(earcon.SystemSets()))
	for _, set := range earcon.SystemSets() {
		system = append(system, SystemSetResponse{
			Set:    set.String(),
			Sounds: earcon.SoundsIn(set),
		})
	}

	entries := s.services.Catalog.Entries()
	custom := make([]ClipResponse, 0, len(entries))
	for _, e := range entries {
		custom = append(custom, clipResponse(e))
	}

	resp := ListSoundsResponse{
		System: system,
		Custom: custom,
	}

	if manifest := s.services.Catalog.Manifest(); manifest.Name != "" || manifest.Description != "" {
		resp.Pack = &PackResponse{
			Name:        manifest.Name,
			Description: manifest.Description,
		}
	}
	if scanned := s.services.Catalog.LastScan(); !scanned.IsZero() {
		resp.ScannedAt = &scanned
	}

	return &ListSoundsOutput{Body: resp}, nil
}

func (s *Server) handleSearchSounds(ctx context.Context, input *SearchSoundsInput) (*SearchSoundsOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset
	params.MinDuration = input.MinDuration
	params.MaxDuration = input.MaxDuration
	params.IncludeFacets = input.Facets
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if input.Order != "" {
		params.SortOrder = input.Order
	}

	// Comma-separated filters to slices.
	for k := range strings.SplitSeq(input.Kinds, ",") {
		switch strings.TrimSpace(k) {
		case string(search.KindSystem):
			params.Kinds = append(params.Kinds, string(search.KindSystem))
		case string(search.KindCustom):
			params.Kinds = append(params.Kinds, string(search.KindCustom))
		}
	}
	for set := range strings.SplitSeq(input.Sets, ",") {
		if set = strings.TrimSpace(set); set != "" {
			params.Sets = append(params.Sets, set)
		}
	}
	for ext := range strings.SplitSeq(input.Exts, ",") {
		if ext = strings.TrimSpace(ext); ext != "" {
			params.Exts = append(params.Exts, strings.ToLower(ext))
		}
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		s.logger.Error("Sound search failed", "error", err, "query", input.Query)
		return nil, err
	}

	s.logger.Debug("Sound search completed",
		"query", input.Query,
		"total", result.Total,
		"took_ms", result.TookMs,
	)

	resp := SearchSoundsResponse{
		Query:  input.Query,
		Total:  int64(result.Total), //nolint:gosec // Safe: inventory counts stay small
		TookMs: result.TookMs,
		Hits:   make([]SoundHitResult, 0, len(result.Hits)),
	}

	for i := range result.Hits {
		hit := &result.Hits[i]
		resp.Hits = append(resp.Hits, SoundHitResult{
			ID:         hit.ID,
			Kind:       string(hit.Kind),
			Score:      hit.Score,
			Name:       hit.Name,
			Slug:       hit.Slug,
			Set:        hit.Set,
			Pack:       hit.Pack,
			Ext:        hit.Ext,
			Locator:    hit.Locator,
			Duration:   hit.Duration,
			Highlights: hit.Highlights,
		})
	}

	if input.Facets {
		resp.Facets = &SoundFacets{
			Extensions: facetCounts(result.Facets.Extensions),
			Sets:       facetCounts(result.Facets.Sets),
			Kinds:      facetCounts(result.Facets.Kinds),
		}
	}

	return &SearchSoundsOutput{Body: resp}, nil
}

func clipResponse(e catalog.Entry) ClipResponse {
	return ClipResponse{
		ID:         e.ID,
		Name:       e.Name,
		Slug:       e.Slug,
		Ext:        string(e.Ext),
		Locator:    e.Locator().String(),
		Pack:       e.Pack,
		Size:       e.Size,
		DurationMs: e.Duration.Milliseconds(),
		Overlong:   e.Overlong,
		Aliases:    e.Aliases,
	}
}

func facetCounts(in []search.FacetCount) []FacetCount {
	out := make([]FacetCount, 0, len(in))
	for _, f := range in {
		out = append(out, FacetCount{Value: f.Value, Count: f.Count})
	}
	return out
}
