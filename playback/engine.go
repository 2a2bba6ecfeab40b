package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/sakuraviz/sakura/audioproc"
	"github.com/sakuraviz/sakura/decoder"
	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/sakuraerr"
	"github.com/sakuraviz/sakura/sizer"
	"github.com/sakuraviz/sakura/termio"
)

// Encoder formats a resized frame into a terminal payload. Implementations
// wrap one of the render package's formatters (joined with "\n") or
// sixelenc.Encode.
type Encoder func(f *frame.Frame) ([]byte, error)

// Job configures and runs one playback session.
type Job struct {
	Source  decoder.Source
	Encode  Encoder
	Options option.RenderOptions
	Output  io.Writer

	// AudioPath, when non-empty, is spawned via audioproc alongside the
	// video pipeline. Best-effort: there is no PTS extraction or feedback
	// loop tying it to the video pacing.
	AudioPath string

	// TargetSize is the sizer's resolved output size for every frame in
	// this job; StaticPalette forbids revisiting it mid-stream.
	TargetSize sizer.Result

	// Logger receives warn-and-continue diagnostics (an audio subprocess
	// launch failure, a per-frame encode failure). Defaults to slog.Default().
	Logger *slog.Logger

	Stats Stats

	state stateBox

	paletteSize atomic.Int64
	scaleState  atomic.Uint64
}

// underrunTimeout bounds how long the writer waits on an empty queue before
// re-checking whether producers are still alive.
const underrunTimeout = 50 * time.Millisecond

// staleK is the writer's staleness threshold: frames more than K ticks
// behind target_index are dropped.
const staleK = 2

// spinWindow is how close to the wakeup deadline the writer switches from
// sleeping to spinning, trading CPU for scheduling precision.
const spinWindow = 500 * time.Microsecond

// State returns the job's current lifecycle state.
func (j *Job) State() State { return j.state.get() }

func (j *Job) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}

	return slog.Default()
}

// Run drives the reader, encoder workers, and reorder publisher
// concurrently via an [errgroup.Group], then runs the pacing writer on the
// calling goroutine until end-of-stream, an unrecoverable error, or ctx
// cancellation. It always executes the shutdown protocol (drain, join,
// kill audio, restore cursor) before returning; the counters stay in
// j.Stats for the caller to report.
func (j *Job) Run(ctx context.Context) error {
	j.state.set(Starting)
	j.initAdaptiveState()

	var audio *audioproc.Process

	if j.AudioPath != "" {
		var err error

		audio, err = audioproc.Spawn(j.AudioPath)
		if err != nil {
			// AudioFailed is warn-and-continue: video still plays, muted.
			j.logger().Warn("audio playback disabled", "error", err)

			audio = nil
		}
	}

	sourceFPS := j.Source.FPS()
	targetFPS := j.Options.TargetFPS

	renderFPS := sourceFPS
	if targetFPS > 0 && targetFPS < sourceFPS {
		renderFPS = targetFPS
	}

	if renderFPS <= 0 {
		renderFPS = sourceFPS
	}

	if renderFPS <= 0 {
		renderFPS = 30
	}

	queueSize := j.Options.QueueSize
	if queueSize < 1 {
		queueSize = 16
	}

	rawQueue := make(chan *frame.Frame, queueSize)
	encodedQueue := make(chan EncodedFrame, queueSize)
	doorbell := make(chan struct{}, 1)
	buf := newReorderBuffer()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gctx := errgroup.WithContext(runCtx)

	j.state.set(Prebuffering)

	g.Go(func() error {
		defer close(rawQueue)

		return j.readLoop(gctx, rawQueue, sourceFPS, targetFPS)
	})

	workers := max(1, runtime.NumCPU()/2)
	workerDone := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			defer func() { workerDone <- struct{}{} }()

			return j.encodeLoop(gctx, rawQueue, buf, doorbell)
		})
	}

	g.Go(func() error {
		defer close(doorbell)

		for i := 0; i < workers; i++ {
			<-workerDone
		}

		return nil
	})

	pubDone := make(chan struct{})

	g.Go(func() error {
		defer close(pubDone)

		return publish(gctx, buf, doorbell, encodedQueue)
	})

	adaptiveCtx, cancelAdaptive := context.WithCancel(gctx)
	defer cancelAdaptive()

	if j.Options.AdaptiveScale && !j.Options.StaticPalette {
		g.Go(func() error {
			return j.runAdaptive(adaptiveCtx)
		})
	}

	j.waitPrebuffer(gctx, encodedQueue, queueSize, pubDone)
	j.state.set(Playing)

	writeErr := j.writeLoop(gctx, encodedQueue, renderFPS)

	cancelAdaptive()

	if writeErr != nil {
		// The writer no longer drains encodedQueue: stop the producers.
		cancelRun()
	}

	waitErr := g.Wait()

	j.state.set(Draining)
	buf.reset()
	j.state.set(Finished)

	runErr := firstNonNil(waitErr, writeErr)
	if writeErr != nil && !errors.Is(writeErr, sakuraerr.ErrCancelRequested) {
		runErr = firstNonNil(writeErr, waitErr)
	}

	if runErr != nil {
		j.state.set(Failed)
	}

	return j.shutdown(audio, runErr)
}

// waitPrebuffer blocks the Prebuffering -> Playing transition until
// encodedQueue holds at least max(16, PrebufferFrames) buffered frames (the
// queue's own capacity is the ceiling, so a PrebufferFrames larger than
// queueSize never deadlocks), the pipeline finishes producing (pubDone
// closes), or ctx is cancelled.
func (j *Job) waitPrebuffer(ctx context.Context, encodedQueue <-chan EncodedFrame, queueSize int, pubDone <-chan struct{}) {
	threshold := max(16, j.Options.PrebufferFrames)
	if threshold > queueSize {
		threshold = queueSize
	}

	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for len(encodedQueue) < threshold {
		select {
		case <-pubDone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func firstNonNil(errs ...error) error {
	for _, e := range errs {
		if e != nil && !errors.Is(e, io.EOF) {
			return e
		}
	}

	return nil
}

// shutdown implements the shutdown protocol's tail: kill audio, restore the
// cursor, and surface the final error (if any). Steps 1-3 (stop signal,
// drain, join) are handled by ctx cancellation and errgroup.Wait in Run.
func (j *Job) shutdown(audio *audioproc.Process, err error) error {
	if audio != nil {
		_ = audio.Kill()
	}

	_ = termio.ShowCursor(j.Output)

	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}

	return nil
}

// readLoop pulls raw frames from the decoder, downsamples to targetFPS with
// an accumulator, resizes to the job's target size, assigns a monotonically
// increasing index, and pushes onto rawQueue.
func (j *Job) readLoop(ctx context.Context, rawQueue chan<- *frame.Frame, sourceFPS, targetFPS float64) error {
	var acc float64

	ratio := 1.0
	if targetFPS > 0 && sourceFPS > 0 {
		ratio = targetFPS / sourceFPS
	}

	var index uint64

	var dropped, total uint64

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", sakuraerr.ErrCancelRequested, ctx.Err())
		default:
		}

		f, err := j.Source.NextFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("%w: %w", sakuraerr.ErrDecodeFailed, err)
		}

		j.Stats.Read.Add(1)
		total++

		acc += ratio
		if acc < 1 {
			continue
		}

		acc -= 1

		target := j.TargetSize
		if j.Options.AdaptiveScale {
			target = scaleTarget(target, j.CurrentScale())
		}

		resized := resizeFrame(f, target)
		resized.Index = index
		index++

		select {
		case rawQueue <- resized:
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", sakuraerr.ErrCancelRequested, ctx.Err())
		default:
			// raw_queue full: apply the reader-side drop policy rather than
			// blocking indefinitely against a stalled encoder pool.
			if dropped*100 < total*30 {
				dropped++

				continue
			}

			select {
			case rawQueue <- resized:
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", sakuraerr.ErrCancelRequested, ctx.Err())
			}
		}
	}
}

// scaleTarget shrinks target by factor, used by the adaptive controller to
// reduce resolution under sustained drops without revisiting the sizer's
// baseline aspect computation.
func scaleTarget(target sizer.Result, factor float64) sizer.Result {
	if factor <= 0 || factor == 1 {
		return target
	}

	target.W = maxInt(1, int(float64(target.W)*factor))
	target.H = maxInt(1, int(float64(target.H)*factor))

	return target
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

// resizeFrame scales src into a new frame.Frame of the given target size
// using golang.org/x/image/draw through frame's image.Image adapter. A target
// with no Interpolator is scaled with draw.NearestNeighbor.
func resizeFrame(src *frame.Frame, target sizer.Result) *frame.Frame {
	dst := frame.New(target.W, target.H)

	interp := target.Interpolator
	if interp == nil {
		interp = draw.NearestNeighbor
	}

	interp.Scale(dst.Image(), dst.Image().Bounds(), src.Image(), src.Image().Bounds(), draw.Over, nil)

	return dst
}

// encodeLoop pops raw frames and runs the configured Encoder, inserting
// results into buf and ringing the doorbell so the publisher can flush any
// newly-contiguous prefix.
func (j *Job) encodeLoop(ctx context.Context, rawQueue <-chan *frame.Frame, buf *reorderBuffer, doorbell chan<- struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", sakuraerr.ErrCancelRequested, ctx.Err())
		case f, ok := <-rawQueue:
			if !ok {
				return nil
			}

			payload, err := j.Encode(f)
			if err != nil {
				// EncodeFailed is local: drop this frame, keep playing.
				j.logger().Warn("frame encode failed", "index", f.Index, "error", err)
				j.Stats.Dropped.Add(1)
				buf.skip(f.Index)
			} else {
				buf.insert(EncodedFrame{Payload: payload, Index: f.Index, W: f.W, H: f.H})
			}

			select {
			case doorbell <- struct{}{}:
			default:
			}
		}
	}
}

// publish is the reorder buffer's dedicated owner: it wakes on the doorbell
// and flushes every newly-contiguous prefix into encodedQueue, blocking
// when that queue is full (standing in for the design's condition-variable
// wait). Once every encoder worker has exited (signaled by doorbell being
// closed), it drains whatever remains and closes encodedQueue itself.
func publish(ctx context.Context, buf *reorderBuffer, doorbell <-chan struct{}, encodedQueue chan<- EncodedFrame) error {
	defer close(encodedQueue)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", sakuraerr.ErrCancelRequested, ctx.Err())
		case _, ok := <-doorbell:
			for _, ef := range buf.drainReady() {
				select {
				case encodedQueue <- ef:
				case <-ctx.Done():
					return fmt.Errorf("%w: %w", sakuraerr.ErrCancelRequested, ctx.Err())
				}
			}

			if !ok {
				return nil
			}
		}
	}
}
