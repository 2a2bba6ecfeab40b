// Package decoder wraps an ffmpeg subprocess as the video source for the
// playback engine's reader thread, generalized from the teacher's
// cmd/ansi_video_renderer/stream.go rawvideo pipe (there fixed to RGBA) to a
// BGR pipe paired with an ffprobe metadata query for fps/size/frame count.
package decoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/sakuraerr"
)

// Source is a decoded frame stream. Implementations are not safe for
// concurrent use: only the playback engine's single reader thread calls
// NextFrame.
type Source interface {
	NextFrame() (*frame.Frame, error)
	FPS() float64
	Size() (w, h int)
	FrameCount() int
	Close() error
}

// ffmpegSource decodes path via an ffmpeg subprocess piping fixed-size BGR24
// frames to stdout.
type ffmpegSource struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc

	w, h       int
	fps        float64
	frameCount int
}

// Open starts ffprobe to gather stream metadata, then starts ffmpeg to
// stream raw BGR24 frames from path.
func Open(ctx context.Context, path string) (Source, error) {
	w, h, fps, frameCount, err := probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sakuraerr.ErrOpenFailed, err)
	}

	ctx, cancel := context.WithCancel(ctx)

	if _, lookErr := exec.LookPath("ffmpeg"); lookErr != nil {
		cancel()

		return nil, fmt.Errorf("%w: ffmpeg not found in PATH", sakuraerr.ErrOpenFailed)
	}

	//nolint:gosec // path is a caller-supplied local file path or a fetch-package temp file, not untrusted input.
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-loglevel", "quiet",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()

		return nil, fmt.Errorf("%w: creating stdout pipe: %w", sakuraerr.ErrOpenFailed, err)
	}

	if err := cmd.Start(); err != nil {
		cancel()

		return nil, fmt.Errorf("%w: starting ffmpeg: %w", sakuraerr.ErrOpenFailed, err)
	}

	return &ffmpegSource{
		cmd: cmd, stdout: stdout, cancel: cancel,
		w: w, h: h, fps: fps, frameCount: frameCount,
	}, nil
}

// NextFrame reads exactly one BGR24 frame off the pipe, mirroring the
// teacher's frameStream.readFrame fixed-size io.ReadFull.
func (s *ffmpegSource) NextFrame() (*frame.Frame, error) {
	f := frame.New(s.w, s.h)

	_, err := io.ReadFull(s.stdout, f.Pix)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}

		return nil, fmt.Errorf("%w: %w", sakuraerr.ErrDecodeFailed, err)
	}

	return f, nil
}

func (s *ffmpegSource) FPS() float64        { return s.fps }
func (s *ffmpegSource) Size() (int, int)    { return s.w, s.h }
func (s *ffmpegSource) FrameCount() int     { return s.frameCount }

// Close cancels the ffmpeg process and waits for it to exit.
func (s *ffmpegSource) Close() error {
	s.cancel()

	//nolint:errcheck // wait error is expected after context cancellation.
	s.cmd.Wait()

	return nil
}

type probeStream struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	NbFrames   string `json:"nb_frames"`
	CodecType  string `json:"codec_type"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

// probe shells out to ffprobe for the first video stream's dimensions, frame
// rate, and frame count.
func probe(ctx context.Context, path string) (w, h int, fps float64, frameCount int, err error) {
	if _, lookErr := exec.LookPath("ffprobe"); lookErr != nil {
		return 0, 0, 0, 0, fmt.Errorf("ffprobe not found in PATH")
	}

	//nolint:gosec // path is a caller-supplied local file path or a fetch-package temp file, not untrusted input.
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "v:0",
		path,
	)

	out, runErr := cmd.Output()
	if runErr != nil {
		return 0, 0, 0, 0, fmt.Errorf("running ffprobe: %w", runErr)
	}

	var parsed probeOutput

	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	if len(parsed.Streams) == 0 {
		return 0, 0, 0, 0, fmt.Errorf("no video stream found")
	}

	s := parsed.Streams[0]

	fps = parseFrameRate(s.RFrameRate)
	frameCount, _ = strconv.Atoi(s.NbFrames)

	return s.Width, s.Height, fps, frameCount, nil
}

// parseFrameRate parses ffprobe's "num/den" rational frame rate string.
func parseFrameRate(s string) float64 {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		v, _ := strconv.ParseFloat(s, 64)

		return v
	}

	num, errN := strconv.ParseFloat(parts[0], 64)
	den, errD := strconv.ParseFloat(parts[1], 64)

	if errN != nil || errD != nil || den == 0 {
		return 0
	}

	return num / den
}
