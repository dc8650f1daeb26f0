package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/earconlabs/earcon/internal/errors"
	"github.com/earconlabs/earcon/pkg/earcon"
)

// playSource tags ledger records created through this endpoint.
const playSource = "api"

func (s *Server) registerPlayRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "playCue",
		Method:        http.MethodPost,
		Path:          "/api/v1/play",
		Summary:       "Play a cue",
		Description:   "Queues a cue for playback and returns immediately. Playback outcomes surface on the event stream and in the history ledger, never in this response.",
		Tags:          []string{"Playback"},
		DefaultStatus: http.StatusAccepted,
	}, s.handlePlay)
}

// === DTOs ===

// PlayRequest names the cue to play.
type PlayRequest struct {
	Kind string `json:"kind" validate:"required,oneof=system custom" doc:"Cue kind: system or custom"`
	Set  string `json:"set,omitempty" validate:"omitempty,max=32,soundname" doc:"System set (Modern, Nano, New, UI); required for system cues"`
	Name string `json:"name" validate:"required,min=1,max=128,soundname" doc:"Cue name"`
	Ext  string `json:"ext,omitempty" validate:"omitempty,max=8" doc:"Custom clip extension (wav, mp3, aif, aiff, caf, m4a); defaults to wav"`
}

// PlayInput wraps the play request for Huma.
type PlayInput struct {
	Body PlayRequest
}

// PlayAcceptedResponse acknowledges a queued cue.
type PlayAcceptedResponse struct {
	Accepted bool   `json:"accepted" doc:"Always true; the cue was queued"`
	Locator  string `json:"locator" doc:"Canonical locator for the queued cue"`
}

// PlayOutput wraps the play response for Huma.
type PlayOutput struct {
	Body PlayAcceptedResponse
}

// === Handlers ===

func (s *Server) handlePlay(ctx context.Context, input *PlayInput) (*PlayOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	loc, err := buildLocator(input.Body)
	if err != nil {
		return nil, err
	}

	// Fire and forget. A cue that fails to resolve or render is not this
	// request's problem: the attempt is accepted, the outcome lands in the
	// ledger and on the event stream.
	s.services.Engine.Play(loc)

	s.logger.Debug("Cue queued", "locator", loc.String(), "source", playSource)

	return &PlayOutput{Body: PlayAcceptedResponse{Accepted: true, Locator: loc.String()}}, nil
}

// buildLocator turns the request into a locator, rejecting malformed shapes.
// Whether the named sound exists is a resolution concern, not a validation
// one; unknown names are accepted here and fail in the player.
func buildLocator(req PlayRequest) (earcon.Locator, error) {
	var loc earcon.Locator

	switch req.Kind {
	case string(earcon.KindSystem):
		set, err := earcon.ParseSystemSet(req.Set)
		if err != nil {
			return earcon.Locator{}, domainerrors.Validationf("unknown system set %q", req.Set)
		}
		loc = earcon.System(set, req.Name)

	case string(earcon.KindCustom):
		ext := earcon.ExtWAV
		if req.Ext != "" {
			parsed, err := earcon.ParseExtension(req.Ext)
			if err != nil {
				return earcon.Locator{}, domainerrors.Validationf("unsupported extension %q", req.Ext)
			}
			ext = parsed
		}
		loc = earcon.Custom(req.Name, ext)

	default:
		return earcon.Locator{}, domainerrors.Validationf("unknown cue kind %q", req.Kind)
	}

	if err := loc.Validate(); err != nil {
		return earcon.Locator{}, domainerrors.Validation(err.Error())
	}
	return loc, nil
}
