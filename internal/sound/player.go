package sound

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Player starts and stops a single sound.
// Starting a new sound while another one is playing replaces it.
type Player interface {
	Play(ref string, loop bool) error
	Stop() error
}

var (
	// ErrUnsupportedOS indicates there is no known audio command for the current OS.
	ErrUnsupportedOS = errors.New("unsupported operating system")
	// ErrUnsupportedFormat is returned for sound references that are not WAV files.
	ErrUnsupportedFormat = errors.New("only .wav sounds are supported")
	// ErrSoundNotFound is returned when the sound file does not exist.
	ErrSoundNotFound = errors.New("sound file not found")
)

// loopRestartDelay is the pause between two iterations of a looped sound.
const loopRestartDelay = 200 * time.Millisecond

// ValidateRef checks that ref points at an existing WAV file.
func ValidateRef(ref string) error {
	if !strings.EqualFold(filepath.Ext(ref), ".wav") {
		return fmt.Errorf("%q: %w", ref, ErrUnsupportedFormat)
	}

	info, err := os.Stat(ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%q: %w", ref, ErrSoundNotFound)
		}

		return fmt.Errorf("stat sound %q: %w", ref, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%q is a directory: %w", ref, ErrSoundNotFound)
	}

	return nil
}

// CommandFunc builds the command that plays ref once.
type CommandFunc func(ctx context.Context, ref string) (*exec.Cmd, error)

// ExecPlayer plays sounds by running an external command per iteration.
type ExecPlayer struct {
	// command builds the playback command for one iteration.
	command CommandFunc
	// mu protects cancel and done.
	mu sync.Mutex
	// cancel stops the active playback loop, nil when idle.
	cancel context.CancelFunc
	// done is closed when the active playback loop exits.
	done chan struct{}
}

// NewExecPlayer returns a player that uses the platform audio command.
func NewExecPlayer() *ExecPlayer {
	return NewExecPlayerWithCommand(PlatformCommand)
}

// NewExecPlayerWithCommand returns a player that uses a custom command builder.
func NewExecPlayerWithCommand(command CommandFunc) *ExecPlayer {
	return &ExecPlayer{command: command}
}

// Play stops any active sound and starts ref, repeating it while loop is set.
// The first iteration is started synchronously so that missing tools or files
// are reported to the caller.
func (p *ExecPlayer) Play(ref string, loop bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())

	cmd, err := p.command(ctx, ref)
	if err != nil {
		cancel()
		return err
	}

	if err = cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start sound %q: %w", ref, err)
	}

	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, cmd, ref, loop, done)

	return nil
}

// Stop silences the active sound, if any.
func (p *ExecPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	return nil
}

// stopLocked cancels the playback loop and waits for it to exit.
func (p *ExecPlayer) stopLocked() {
	if p.cancel == nil {
		return
	}

	p.cancel()
	<-p.done

	p.cancel = nil
	p.done = nil
}

// run waits for the current iteration and restarts it until ctx is canceled.
func (p *ExecPlayer) run(ctx context.Context, cmd *exec.Cmd, ref string, loop bool, done chan struct{}) {
	defer close(done)

	for {
		_ = cmd.Wait() //nolint:errcheck // Killed or failed iterations are simply restarted.

		if !loop {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(loopRestartDelay):
		}

		next, err := p.command(ctx, ref)
		if err != nil {
			return
		}

		if err = next.Start(); err != nil {
			return
		}

		cmd = next
	}
}

// PlatformCommand returns the stock audio command for the current OS:
// - Linux:   `aplay -q <file>`
// - macOS:   `afplay <file>`
// - Windows: PowerShell Media.SoundPlayer.
func PlatformCommand(ctx context.Context, ref string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "linux":
		return exec.CommandContext(ctx, "aplay", "-q", ref), nil
	case "darwin":
		return exec.CommandContext(ctx, "afplay", ref), nil
	case "windows":
		script := fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync()", strings.ReplaceAll(ref, "'", "''"))
		return exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", script), nil
	default:
		return nil, fmt.Errorf("play sound on %s: %w", runtime.GOOS, ErrUnsupportedOS)
	}
}
