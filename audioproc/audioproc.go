// Package audioproc spawns and manages the ffplay subprocess that plays a
// video file's audio track during playback, since the playback engine's own
// decoder path only produces video frames. Grounded on
// other_examples/SarahRoseLives-HackTVLive's FFplay.Start/Stop and the
// original implementation's renderVideoFromFile invocation
// ("ffplay -nodisp -autoexit -vn -nostats -loglevel quiet -sync video").
package audioproc

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/sakuraviz/sakura/sakuraerr"
)

// killGrace is how long Kill waits for a graceful exit before escalating to
// a hard kill, matching the shutdown protocol's grace period.
const killGrace = 50 * time.Millisecond

// Process wraps a running ffplay subprocess.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// Spawn starts ffplay against path with video disabled, playing only the
// audio track. It runs alongside the video pipeline with nothing tying the
// two together: no shared clock and no PTS synchronization.
func Spawn(path string) (*Process, error) {
	if _, err := exec.LookPath("ffplay"); err != nil {
		return nil, fmt.Errorf("%w: ffplay not found in PATH", sakuraerr.ErrAudioFailed)
	}

	//nolint:gosec // path is a caller-supplied local file path or a fetch-package temp file, not untrusted input.
	cmd := exec.Command("ffplay",
		"-nodisp",
		"-autoexit",
		"-vn",
		"-nostats",
		"-loglevel", "quiet",
		"-sync", "video",
		path,
	)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting ffplay: %w", sakuraerr.ErrAudioFailed, err)
	}

	p := &Process{cmd: cmd, done: make(chan struct{})}

	go func() {
		defer close(p.done)
		//nolint:errcheck // exit status is not actionable here; Kill/EOF is the normal path.
		p.cmd.Wait()
	}()

	return p, nil
}

// Kill terminates the ffplay process, allowing it up to killGrace to exit on
// its own (it should already be near done via -autoexit) before sending
// SIGKILL.
func (p *Process) Kill() error {
	if p == nil || p.cmd.Process == nil {
		return nil
	}

	select {
	case <-p.done:
		return nil
	default:
	}

	_ = p.cmd.Process.Signal(os.Interrupt)

	select {
	case <-p.done:
		return nil
	case <-time.After(killGrace):
	}

	if err := p.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("%w: killing ffplay: %w", sakuraerr.ErrAudioFailed, err)
	}

	<-p.done

	return nil
}
