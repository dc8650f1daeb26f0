package earcon

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

// mixerRate is the sample rate of the shared speaker mixer. Clips recorded
// at other rates are resampled on the fly.
const mixerRate = beep.SampleRate(44100)

// speakerBackend decodes wav and mp3 in process and plays through the
// shared beep mixer. The device is opened once, on first use; overlapping
// cues simply mix.
type speakerBackend struct {
	once sync.Once
	err  error
}

func (b *speakerBackend) name() string { return "speaker" }

func (b *speakerBackend) init() error {
	b.once.Do(func() {
		b.err = speaker.Init(mixerRate, mixerRate.N(100*time.Millisecond))
	})
	return b.err
}

func (b *speakerBackend) play(res Resource) error {
	if err := b.init(); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}

	f, err := os.Open(res.Path)
	if err != nil {
		return err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch res.Ext {
	case ExtWAV:
		streamer, format, err = wav.Decode(f)
	case ExtMP3:
		streamer, format, err = mp3.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("speaker: no decoder for %q", res.Ext)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", filepath.Base(res.Path), err)
	}

	var stream beep.Streamer = streamer
	if format.SampleRate != mixerRate {
		stream = beep.Resample(4, format.SampleRate, mixerRate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		// The mixer has pulled the last sample; only now is the file
		// safe to close.
		streamer.Close()
		close(done)
	})))
	<-done
	return nil
}
