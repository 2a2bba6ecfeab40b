package playback_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/playback"
	"github.com/sakuraviz/sakura/sizer"
)

// fakeSource yields n solid-color frames of size w x h at fps, then io.EOF.
type fakeSource struct {
	w, h, n int
	fps     float64
	emitted int
}

func (f *fakeSource) NextFrame() (*frame.Frame, error) {
	if f.emitted >= f.n {
		return nil, io.EOF
	}

	f.emitted++

	return frame.New(f.w, f.h), nil
}

func (f *fakeSource) FPS() float64     { return f.fps }
func (f *fakeSource) Size() (int, int) { return f.w, f.h }
func (f *fakeSource) FrameCount() int  { return f.n }
func (f *fakeSource) Close() error     { return nil }

func lineEncoder(f *frame.Frame) ([]byte, error) {
	return []byte("x"), nil
}

func TestJobRunEmitsAllFramesNoDrops(t *testing.T) {
	t.Parallel()

	src := &fakeSource{w: 4, h: 4, n: 10, fps: 100}
	var out bytes.Buffer

	job := &playback.Job{
		Source:  src,
		Encode:  lineEncoder,
		Options: option.RenderOptions{QueueSize: 16, PaletteSize: 256}.FillDefaults(),
		Output:  &out,
		TargetSize: sizer.Result{W: 4, H: 4},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := job.Run(ctx)
	require.NoError(t, err)

	_, rendered, dropped := job.Stats.Snapshot()
	assert.Equal(t, uint64(10), rendered)
	assert.Zero(t, dropped)
	assert.Equal(t, playback.Finished, job.State())
}

func TestJobRunPropagatesDecodeFailure(t *testing.T) {
	t.Parallel()

	job := &playback.Job{
		Source:     &failingSource{},
		Encode:     lineEncoder,
		Options:    option.RenderOptions{}.FillDefaults(),
		Output:     &bytes.Buffer{},
		TargetSize: sizer.Result{W: 2, H: 2},
	}

	err := job.Run(context.Background())
	require.Error(t, err)
}

// frameMarkerPattern extracts the frame index an encoder embedded in its
// payload via fmt.Sprintf("F%d;", index), letting a test recover the order
// (or presence) of frames actually written to a job's Output.
var frameMarkerPattern = regexp.MustCompile(`F(\d+);`)

// TestJobRunPreservesOrderUnderOutOfOrderEncoding forces encode workers to
// finish out of submission order (later indices sleep less) and asserts the
// writer still receives frames in strictly increasing source-index order,
// exercising spec.md §8 property 1 via the reorder buffer's contiguous-flush
// invariant rather than by construction.
func TestJobRunPreservesOrderUnderOutOfOrderEncoding(t *testing.T) {
	t.Parallel()

	const n = 16

	src := &fakeSource{w: 2, h: 2, n: n, fps: 8}
	var out bytes.Buffer

	reverseDelayEncoder := func(f *frame.Frame) ([]byte, error) {
		time.Sleep(time.Duration(n-int(f.Index)) * time.Millisecond)

		return []byte(fmt.Sprintf("F%d;", f.Index)), nil
	}

	job := &playback.Job{
		Source:     src,
		Encode:     reverseDelayEncoder,
		Options:    option.RenderOptions{QueueSize: n, PrebufferFrames: n}.FillDefaults(),
		Output:     &out,
		TargetSize: sizer.Result{W: 2, H: 2},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, job.Run(ctx))

	matches := frameMarkerPattern.FindAllStringSubmatch(out.String(), -1)
	require.Len(t, matches, n, "pacing at 8fps against sub-20ms encode delays must not drop any frame")

	prev := -1

	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.Greater(t, idx, prev, "frame indices must strictly increase at the writer")
		prev = idx
	}
}

// TestJobRunDropsStaleFrames drives the writer's staleness policy
// (section 4.4.2): an output far slower than the pacing target lets frames
// pile up in the writer's pending list while they fall staleK ticks behind,
// and the writer must drop them (counted in Stats.Dropped) rather than emit
// them late.
func TestJobRunDropsStaleFrames(t *testing.T) {
	t.Parallel()

	const n = 24

	src := &fakeSource{w: 2, h: 2, n: n, fps: 1000}

	// Every Write sleeps, so emitting one frame (prefix plus payload) takes
	// several milliseconds against the 1000fps/1ms-per-frame pacing target,
	// while the fast encoder keeps more than two frames pending.
	out := &slowWriter{delay: 3 * time.Millisecond}

	markerEncoder := func(f *frame.Frame) ([]byte, error) {
		return []byte(fmt.Sprintf("F%d;", f.Index)), nil
	}

	job := &playback.Job{
		Source:     src,
		Encode:     markerEncoder,
		Options:    option.RenderOptions{QueueSize: n, PrebufferFrames: 1}.FillDefaults(),
		Output:     out,
		TargetSize: sizer.Result{W: 2, H: 2},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, job.Run(ctx))

	_, rendered, dropped := job.Stats.Snapshot()
	assert.Positive(t, dropped, "writer must drop frames that fall staleK ticks behind target pacing")
	assert.Less(t, rendered, uint64(n))
	assert.Equal(t, uint64(n), rendered+dropped, "every encoded frame is either rendered or dropped")
}

// slowWriter delays every Write by delay, standing in for a terminal that
// cannot keep up with the pacing target.
type slowWriter struct {
	bytes.Buffer
	delay time.Duration
}

func (w *slowWriter) Write(p []byte) (int, error) {
	time.Sleep(w.delay)

	return w.Buffer.Write(p)
}

// TestJobRunGatesPlayingOnPrebufferThreshold exercises waitPrebuffer
// (section 4.4.4): with frame 0 held back, the reorder buffer's contiguous-
// prefix requirement keeps encodedQueue empty no matter how many later
// frames finish encoding, so the job must sit in Prebuffering rather than
// transitioning to Playing until frame 0 is released.
func TestJobRunGatesPlayingOnPrebufferThreshold(t *testing.T) {
	t.Parallel()

	const n = 20

	src := &fakeSource{w: 2, h: 2, n: n, fps: 50}

	release := make(chan struct{})

	gatingEncoder := func(f *frame.Frame) ([]byte, error) {
		if f.Index == 0 {
			<-release
		}

		return []byte("x"), nil
	}

	job := &playback.Job{
		Source:     src,
		Encode:     gatingEncoder,
		Options:    option.RenderOptions{QueueSize: n, PrebufferFrames: 4}.FillDefaults(),
		Output:     &bytes.Buffer{},
		TargetSize: sizer.Result{W: 2, H: 2},
	}

	done := make(chan error, 1)

	go func() { done <- job.Run(context.Background()) }()

	assert.Eventually(t, func() bool {
		return job.State() == playback.Prebuffering
	}, time.Second, time.Millisecond, "job must sit in Prebuffering until frame 0 unblocks the reorder buffer")

	// Give the other workers a chance to encode ahead of the held-back frame
	// 0; encodedQueue must remain empty since drainReady cannot flush past a
	// missing index, so the job must still be Prebuffering.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, playback.Prebuffering, job.State())

	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("job.Run did not finish after releasing frame 0")
	}

	assert.Equal(t, playback.Finished, job.State())
}

type failingSource struct{}

func (f *failingSource) NextFrame() (*frame.Frame, error) { return nil, assertErr }
func (f *failingSource) FPS() float64                     { return 30 }
func (f *failingSource) Size() (int, int)                 { return 2, 2 }
func (f *failingSource) FrameCount() int                  { return 0 }
func (f *failingSource) Close() error                     { return nil }

var assertErr = errOpenPipe{}

type errOpenPipe struct{}

func (errOpenPipe) Error() string { return "pipe closed" }
