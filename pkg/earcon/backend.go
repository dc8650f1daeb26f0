package earcon

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// ErrNoPlayer is returned when no playback path exists on the host: the
// speaker device failed to open and no command line player was found.
var ErrNoPlayer = errors.New("earcon: no audio player available")

// backend plays one resolved clip to completion.
type backend interface {
	name() string
	play(res Resource) error
}

// execBackend shells out to the platform audio player. It handles the
// formats the in-process decoder cannot (aif, aiff, caf, m4a) and doubles
// as the fallback when the speaker device is unavailable.
type execBackend struct {
	player string
	build  func(file string) *exec.Cmd
}

func (b *execBackend) name() string { return b.player }

func (b *execBackend) play(res Resource) error {
	cmd := b.build(res.Path)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", b.player, err)
	}
	return nil
}

// detectExecBackend searches for a command line audio player.
// Priority on Linux and the BSDs: paplay > ffplay > aplay > play (sox).
func detectExecBackend() (*execBackend, error) {
	switch runtime.GOOS {
	case "darwin":
		if path, err := exec.LookPath("afplay"); err == nil {
			return &execBackend{
				player: "afplay",
				build: func(file string) *exec.Cmd {
					return exec.Command(path, file)
				},
			}, nil
		}

	case "windows":
		if path, err := exec.LookPath("powershell"); err == nil {
			return &execBackend{
				player: "powershell",
				build: func(file string) *exec.Cmd {
					script := fmt.Sprintf("(New-Object System.Media.SoundPlayer '%s').PlaySync()", file)
					return exec.Command(path, "-NoProfile", "-NonInteractive", "-Command", script)
				},
			}, nil
		}

	default:
		// PulseAudio/PipeWire (decodes anything libsndfile knows)
		if path, err := exec.LookPath("paplay"); err == nil {
			return &execBackend{
				player: "paplay",
				build: func(file string) *exec.Cmd {
					return exec.Command(path, file)
				},
			}, nil
		}

		// FFplay (heavyweight but decodes everything)
		if path, err := exec.LookPath("ffplay"); err == nil {
			return &execBackend{
				player: "ffplay",
				build: func(file string) *exec.Cmd {
					return exec.Command(path, "-nodisp", "-autoexit", "-loglevel", "quiet", file)
				},
			}, nil
		}

		// ALSA (wav only, better than silence)
		if path, err := exec.LookPath("aplay"); err == nil {
			return &execBackend{
				player: "aplay",
				build: func(file string) *exec.Cmd {
					return exec.Command(path, "-q", file)
				},
			}, nil
		}

		// SoX
		if path, err := exec.LookPath("play"); err == nil {
			return &execBackend{
				player: "sox",
				build: func(file string) *exec.Cmd {
					return exec.Command(path, "-q", file)
				},
			}, nil
		}
	}

	return nil, ErrNoPlayer
}
