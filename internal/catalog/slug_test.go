package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chime", "chime"},
		{"Loud Ding!", "loud-ding"},
		{"Café Bell", "cafe-bell"},
		{"Alarm_01", "alarm-01"},
		{"  spaced  out  ", "spaced-out"},
		{"ALLCAPS", "allcaps"},
		{"Sci-Fi/Alert", "sci-fi-alert"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, slugify(tt.in))
		})
	}
}
