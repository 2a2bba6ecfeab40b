package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/sakuraviz/sakura/sakuraerr"
	"github.com/sakuraviz/sakura/termio"
)

// writeLoop implements the writer side of section 4.4.1 and the
// pacing/dropping algorithm of section 4.4.2: it paces emission against a
// wall-clock schedule derived from renderFPS, drops frames that have fallen
// more than staleK ticks behind, and clears the screen before any frame
// smaller than the previous one.
func (j *Job) writeLoop(ctx context.Context, encodedQueue <-chan EncodedFrame, renderFPS float64) error {
	if renderFPS <= 0 {
		renderFPS = 30
	}

	frameDuration := time.Duration(float64(time.Second) / renderFPS)
	start := time.Now()

	var pending []EncodedFrame

	var prevW, prevH int

	closed := false

	for {
		if !closed {
			pending, closed = drainAvailable(encodedQueue, pending)
		}

		if len(pending) == 0 {
			if closed {
				return nil
			}

			select {
			case ef, ok := <-encodedQueue:
				if !ok {
					closed = true

					continue
				}

				pending = append(pending, ef)
			case <-time.After(underrunTimeout):
				continue
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", sakuraerr.ErrCancelRequested, ctx.Err())
			}
		}

		targetIndex := uint64(time.Since(start) / frameDuration)

		for len(pending) > 2 && pending[0].Index+staleK < targetIndex {
			pending = pending[1:]
			j.Stats.Dropped.Add(1)
		}

		ef := pending[0]
		pending = pending[1:]

		if err := j.emit(ef, &prevW, &prevH); err != nil {
			return err
		}

		j.Stats.Rendered.Add(1)

		nextWake := start.Add(time.Duration(ef.Index+1) * frameDuration)
		sleepUntil(ctx, nextWake)
	}
}

// drainAvailable pulls every already-buffered item off encodedQueue without
// blocking, reporting whether the channel was found closed.
func drainAvailable(encodedQueue <-chan EncodedFrame, pending []EncodedFrame) ([]EncodedFrame, bool) {
	for {
		select {
		case ef, ok := <-encodedQueue:
			if !ok {
				return pending, true
			}

			pending = append(pending, ef)
		default:
			return pending, false
		}
	}
}

// emit writes ef to the job's output, clearing the screen first if it is
// smaller than the previously emitted frame.
func (j *Job) emit(ef EncodedFrame, prevW, prevH *int) error {
	shrinking := ef.W < *prevW || ef.H < *prevH

	if err := termio.WriteFramePrefix(j.Output, shrinking); err != nil {
		return err
	}

	if _, err := j.Output.Write(ef.Payload); err != nil {
		return err
	}

	*prevW, *prevH = ef.W, ef.H

	if f, ok := j.Output.(flusher); ok {
		return f.Flush()
	}

	return nil
}

// flusher is implemented by buffered writers (e.g. *bufio.Writer) that a
// caller may pass as Job.Output; other writers are used as-is, with no
// flush step.
type flusher interface {
	Flush() error
}

// sleepUntil blocks until deadline, waking early to spin through the final
// spinWindow for improved scheduling precision, or returning immediately on
// ctx cancellation.
func sleepUntil(ctx context.Context, deadline time.Time) {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}

		if remaining <= spinWindow {
			for time.Now().Before(deadline) {
				if ctx.Err() != nil {
					return
				}
			}

			return
		}

		select {
		case <-time.After(remaining - spinWindow):
		case <-ctx.Done():
			return
		}
	}
}
