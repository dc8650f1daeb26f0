package earcon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtension(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Extension
		wantErr bool
	}{
		{name: "plain", input: "wav", want: ExtWAV},
		{name: "leading dot", input: ".mp3", want: ExtMP3},
		{name: "upper case", input: "AIFF", want: ExtAIFF},
		{name: "mixed case with dot", input: ".CaF", want: ExtCAF},
		{name: "m4a", input: "m4a", want: ExtM4A},
		{name: "unsupported", input: "ogg", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExtension(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSystemSet(t *testing.T) {
	tests := []struct {
		input   string
		want    SystemSet
		wantErr bool
	}{
		{input: "Modern", want: SetModern},
		{input: "nano", want: SetNano},
		{input: "NEW", want: SetNew},
		{input: "ui", want: SetUI},
		{input: "Classic", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSystemSet(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		loc     Locator
		wantErr bool
	}{
		{name: "system ok", loc: System(SetUI, "Ping")},
		{name: "custom ok", loc: Custom("chime", ExtWAV)},
		{name: "empty name", loc: System(SetUI, ""), wantErr: true},
		{name: "bad set", loc: Locator{Kind: KindSystem, Set: "Retro", Name: "Ping"}, wantErr: true},
		{name: "bad extension", loc: Locator{Kind: KindCustom, Name: "chime", Ext: "ogg"}, wantErr: true},
		{name: "bad kind", loc: Locator{Kind: "stream", Name: "x"}, wantErr: true},
		{name: "path traversal", loc: Custom("../etc/passwd", ExtWAV), wantErr: true},
		{name: "embedded slash", loc: Custom("a/b", ExtWAV), wantErr: true},
		{name: "embedded backslash", loc: Custom(`a\b`, ExtWAV), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.loc.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocator)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocator_String(t *testing.T) {
	assert.Equal(t, "system:UI/Ping", System(SetUI, "Ping").String())
	assert.Equal(t, "system:Modern/Chime", System(SetModern, "Chime").String())
	assert.Equal(t, "custom:alarm.mp3", Custom("alarm", ExtMP3).String())
}

func TestExtensions_Complete(t *testing.T) {
	exts := Extensions()
	require.Len(t, exts, 6)
	for _, e := range exts {
		assert.True(t, e.Valid(), "extension %q", e)
	}
	assert.False(t, Extension("flac").Valid())
}
