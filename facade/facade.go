// Package facade exposes the module's five entry points
// (RenderStillURL, RenderStillMat, RenderAnimatedURL, RenderVideoURL,
// RenderVideoFile), each filling in [option.RenderOptions] defaults,
// downloading remote URLs to a private temporary file when needed, picking
// the still renderer or the playback engine, and guaranteeing cleanup of
// any temporary file regardless of outcome.
package facade

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/sakuraviz/sakura/decoder"
	"github.com/sakuraviz/sakura/fetch"
	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/playback"
	"github.com/sakuraviz/sakura/render"
	"github.com/sakuraviz/sakura/sakuraerr"
	"github.com/sakuraviz/sakura/sixelenc"
	"github.com/sakuraviz/sakura/sizer"
	"github.com/sakuraviz/sakura/termio"
)

// RenderStillMat renders an already-decoded frame with the given options
// and terminal probe, joining the resulting lines with "\n". This is the
// lower-level entry point for callers that already hold a decoded frame;
// the grid composer does not call it and renders its cells itself.
func RenderStillMat(f *frame.Frame, opts option.RenderOptions, term termio.Size) (string, error) {
	opts = opts.FillDefaults()

	preprocessed := preprocess(f, opts)

	res, err := sizer.Resolve(sizer.Request{
		SrcW: preprocessed.W, SrcH: preprocessed.H,
		TargetW: opts.Width, TargetH: opts.Height,
		TermCols: term.Cols, TermRows: term.Rows,
		TermPxW: term.PxW, TermPxH: term.PxH,
		Mode:                opts.Mode,
		AspectRatio:         opts.AspectRatio,
		TerminalAspectRatio: opts.TerminalAspectRatio,
	})
	if err != nil {
		return "", err
	}

	resized := resize(preprocessed, res)

	if opts.Mode == option.ModeSixel {
		payload, err := sixelenc.Encode(resized, opts.PaletteSize, opts.SixelQuality)
		if err != nil {
			return "", err
		}

		return string(payload), nil
	}

	lines := renderLines(resized, opts)

	return joinLines(lines), nil
}

// RenderStillURL downloads url, decodes it as a still image, and renders it
// via RenderStillMat.
func RenderStillURL(ctx context.Context, url string, opts option.RenderOptions, term termio.Size) (string, error) {
	path, cleanup, err := fetch.ToTempFile(ctx, url)
	if err != nil {
		return "", err
	}

	defer cleanup()

	f, err := decodeImageFile(path)
	if err != nil {
		return "", err
	}

	return RenderStillMat(f, opts, term)
}

// RenderAnimatedURL downloads url and plays it through the same playback
// pipeline as RenderVideoURL, per this module's resolution of the source's
// GIF-handling ambiguity in favor of pipeline uniformity.
func RenderAnimatedURL(ctx context.Context, url string, opts option.RenderOptions, term termio.Size, out io.Writer) (playback.Stats, error) {
	path, cleanup, err := fetch.ToTempFile(ctx, url)
	if err != nil {
		return playback.Stats{}, err
	}

	defer cleanup()

	return renderVideoFile(ctx, path, opts, term, out, false)
}

// RenderVideoURL downloads url to a private temporary file and plays it,
// guaranteeing the file is removed regardless of outcome.
func RenderVideoURL(ctx context.Context, url string, opts option.RenderOptions, term termio.Size, out io.Writer) (playback.Stats, error) {
	path, cleanup, err := fetch.ToTempFile(ctx, url)
	if err != nil {
		return playback.Stats{}, err
	}

	defer cleanup()

	return renderVideoFile(ctx, path, opts, term, out, true)
}

// RenderVideoFile plays a local video file, spawning ffplay alongside for
// audio.
func RenderVideoFile(ctx context.Context, path string, opts option.RenderOptions, term termio.Size, out io.Writer) (playback.Stats, error) {
	return renderVideoFile(ctx, path, opts, term, out, true)
}

func renderVideoFile(ctx context.Context, path string, opts option.RenderOptions, term termio.Size, out io.Writer, withAudio bool) (playback.Stats, error) {
	opts = opts.FillDefaults()

	src, err := decoder.Open(ctx, path)
	if err != nil {
		return playback.Stats{}, err
	}

	defer src.Close()

	srcW, srcH := src.Size()

	res, err := sizer.Resolve(sizer.Request{
		SrcW: srcW, SrcH: srcH,
		TargetW: opts.Width, TargetH: opts.Height,
		TermCols: term.Cols, TermRows: term.Rows,
		TermPxW: term.PxW, TermPxH: term.PxH,
		Mode:                opts.Mode,
		Fit:                 opts.Fit,
		Video:               true,
		AspectRatio:         opts.AspectRatio,
		TerminalAspectRatio: opts.TerminalAspectRatio,
		FastResize:          opts.FastResize,
		HighFPS:             src.FPS() > 30,
	})
	if err != nil {
		return playback.Stats{}, err
	}

	job := &playback.Job{
		Source:     src,
		Options:    opts,
		Output:     out,
		TargetSize: res,
	}

	job.Encode = buildJobEncoder(job, opts)

	if withAudio {
		job.AudioPath = path
	}

	if err := termio.HideCursor(out); err != nil {
		return playback.Stats{}, fmt.Errorf("%w: %w", sakuraerr.ErrIOFailed, err)
	}

	runErr := job.Run(ctx)

	return job.Stats, runErr
}

// buildJobEncoder returns an Encoder that reads job's live palette size on
// every call, so the adaptive controller's changes take effect on newly
// read frames without the closure capturing a stale value.
func buildJobEncoder(job *playback.Job, opts option.RenderOptions) playback.Encoder {
	if opts.Mode == option.ModeSixel {
		return func(f *frame.Frame) ([]byte, error) {
			return sixelenc.Encode(f, job.CurrentPaletteSize(), opts.SixelQuality)
		}
	}

	return func(f *frame.Frame) ([]byte, error) {
		lines := renderLines(f, opts)

		return []byte(joinLines(lines)), nil
	}
}

func renderLines(f *frame.Frame, opts option.RenderOptions) []string {
	switch opts.Mode {
	case option.ModeAsciiColor:
		return render.AsciiColor(f)
	case option.ModeAsciiGray:
		return render.AsciiGray(f, opts.Style, opts.Dither)
	default:
		return render.HalfBlock(f)
	}
}

func joinLines(lines []string) string {
	out := ""

	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}

		out += l
	}

	return out
}

// preprocess applies the contrast/brightness adjustment shared by every
// still renderer, per section 4.2: out = contrast*1.2*in + brightness,
// applied only when either value departs from its neutral default.
func preprocess(f *frame.Frame, opts option.RenderOptions) *frame.Frame {
	if opts.Contrast == 1.0 && opts.Brightness == 0 {
		return f
	}

	out := frame.New(f.W, f.H)

	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			b, g, r := f.At(x, y)
			out.Set(x, y,
				adjust(b, opts.Contrast, opts.Brightness),
				adjust(g, opts.Contrast, opts.Brightness),
				adjust(r, opts.Contrast, opts.Brightness),
			)
		}
	}

	return out
}

func adjust(v byte, contrast, brightness float64) byte {
	f := contrast*1.2*float64(v) + brightness
	if f < 0 {
		f = 0
	}

	if f > 255 {
		f = 255
	}

	return byte(f)
}

func resize(f *frame.Frame, res sizer.Result) *frame.Frame {
	dst := frame.New(res.W, res.H)
	res.Interpolator.Scale(dst.Image(), dst.Image().Bounds(), f.Image(), f.Image().Bounds(), draw.Over, nil)

	return dst
}

func decodeImageFile(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sakuraerr.ErrOpenFailed, err)
	}

	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sakuraerr.ErrDecodeFailed, err)
	}

	b := img.Bounds()
	f := frame.New(b.Dx(), b.Dy())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			f.Set(x-b.Min.X, y-b.Min.Y, byte(bl>>8), byte(g>>8), byte(r>>8))
		}
	}

	return f, nil
}
