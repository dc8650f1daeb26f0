package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/earconlabs/earcon/internal/errors"
	"github.com/earconlabs/earcon/internal/validation"
)

type playRequest struct {
	Kind string `json:"kind" validate:"required,oneof=system custom"`
	Set  string `json:"set" validate:"omitempty,oneof=Modern Nano New UI"`
	Name string `json:"name" validate:"required,min=1,max=128,soundname"`
	Ext  string `json:"ext" validate:"omitempty,oneof=wav mp3 aif aiff caf m4a"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := playRequest{
		Kind: "system",
		Set:  "UI",
		Name: "Ping",
	}

	err := v.Validate(req)
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name        string
		req         playRequest
		wantErrCode int
		wantErrMsg  string
	}{
		{
			name: "missing required field",
			req: playRequest{
				Kind: "system",
				Set:  "UI",
				Name: "", // Missing
			},
			wantErrCode: http.StatusBadRequest,
			wantErrMsg:  "name",
		},
		{
			name: "kind outside enum",
			req: playRequest{
				Kind: "builtin",
				Name: "Ping",
			},
			wantErrCode: http.StatusBadRequest,
			wantErrMsg:  "kind",
		},
		{
			name: "unknown extension",
			req: playRequest{
				Kind: "custom",
				Name: "chime",
				Ext:  "ogg",
			},
			wantErrCode: http.StatusBadRequest,
			wantErrMsg:  "ext",
		},
		{
			name: "name too long",
			req: playRequest{
				Kind: "custom",
				Name: string(make([]byte, 129)),
				Ext:  "wav",
			},
			wantErrCode: http.StatusBadRequest,
			wantErrMsg:  "name",
		},
		{
			name: "name with path separator",
			req: playRequest{
				Kind: "custom",
				Name: "clips/chime",
				Ext:  "wav",
			},
			wantErrCode: http.StatusBadRequest,
			wantErrMsg:  "name",
		},
		{
			name: "name with traversal",
			req: playRequest{
				Kind: "custom",
				Name: "..secret",
				Ext:  "wav",
			},
			wantErrCode: http.StatusBadRequest,
			wantErrMsg:  "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			assert.Error(t, err)

			var domainErr *domainerrors.Error
			if assert.True(t, errors.As(err, &domainErr)) {
				assert.Equal(t, tt.wantErrCode, domainErr.HTTPStatus())

				details, ok := domainErr.Details.(map[string]string)
				if assert.True(t, ok, "details should carry field errors") {
					assert.Contains(t, details, tt.wantErrMsg)
				}
			}
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	req := playRequest{
		Kind: "",
		Name: "Ping",
	}

	err := v.Validate(req)
	assert.Error(t, err)

	var domainErr *domainerrors.Error
	assert.True(t, errors.As(err, &domainErr))

	// Should use JSON tag name "kind", not struct field name "Kind"
	details, ok := domainErr.Details.(map[string]string)
	assert.True(t, ok)
	assert.Contains(t, details, "kind")
	assert.NotContains(t, details, "Kind")
}
