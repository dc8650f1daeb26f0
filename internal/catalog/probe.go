package catalog

import (
	"context"
	"time"

	"github.com/simonhull/audiometa"
)

// defaultProbeTimeout bounds a single metadata parse. Clips are small;
// anything slower than this is a stuck NFS mount, not an audio file.
const defaultProbeTimeout = 5 * time.Second

// MetaProber reads clip lengths by parsing audio metadata. It satisfies
// earcon.Prober, so the same instance backs both the catalog inventory and
// the player's length check.
type MetaProber struct {
	Timeout time.Duration // 0 uses defaultProbeTimeout
}

// Duration returns the playable length of the file at path. Formats the
// parser doesn't understand come back as errors; callers treat that as
// "length unknown", not as a broken file.
func (p MetaProber) Duration(path string) (time.Duration, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return file.Audio.Duration, nil
}
