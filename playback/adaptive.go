package playback

import (
	"context"
	"math"
	"time"
)

// adaptiveWindow is the sliding-window length over which the drop ratio is
// sampled, per section 4.4.3.
const adaptiveWindow = time.Second

// dropThreshold triggers a downgrade step when the window's drop ratio
// exceeds it.
const dropThreshold = 0.10

// CurrentPaletteSize returns the palette size newly-read frames should
// encode against. Encoder closures built by the facade read this on every
// call instead of capturing a fixed value, so adaptive changes take effect
// without revisiting frames already in flight.
func (j *Job) CurrentPaletteSize() int {
	return int(j.paletteSize.Load())
}

// CurrentScale returns the scale factor newly-read frames should resize
// against, relative to the sizer's baseline TargetSize.
func (j *Job) CurrentScale() float64 {
	bits := j.scaleState.Load()

	return math.Float64frombits(bits)
}

func (j *Job) initAdaptiveState() {
	j.paletteSize.Store(int64(j.Options.PaletteSize))
	j.scaleState.Store(math.Float64bits(1.0))
}

// runAdaptive implements section 4.4.3: over ~1s windows, if the drop ratio
// exceeds dropThreshold, step paletteSize and scale down (never below their
// configured minimums); after a run of zero-drop windows, step back up
// toward the configured maxima. It only runs when Options.AdaptiveScale is
// set and Options.StaticPalette is not; StaticPalette's default of true keeps
// this off for deterministic testing, per the module's design notes.
func (j *Job) runAdaptive(ctx context.Context) error {
	ticker := time.NewTicker(adaptiveWindow)
	defer ticker.Stop()

	var lastRendered, lastDropped uint64

	cleanStreak := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		_, rendered, dropped := j.Stats.Snapshot()

		windowRendered := rendered - lastRendered
		windowDropped := dropped - lastDropped
		lastRendered, lastDropped = rendered, dropped

		windowTotal := windowRendered + windowDropped
		if windowTotal == 0 {
			continue
		}

		ratio := float64(windowDropped) / float64(windowTotal)

		if ratio > dropThreshold {
			cleanStreak = 0
			j.stepDown()

			continue
		}

		if windowDropped > 0 {
			cleanStreak = 0

			continue
		}

		cleanStreak++
		if cleanStreak >= 3 {
			j.stepUp()
		}
	}
}

func (j *Job) stepDown() {
	newPalette := int(j.paletteSize.Load()) - 16
	if newPalette < j.Options.MinPaletteSize {
		newPalette = j.Options.MinPaletteSize
	}

	j.paletteSize.Store(int64(newPalette))

	newScale := j.CurrentScale() - j.Options.ScaleStep
	if newScale < j.Options.MinScaleFactor {
		newScale = j.Options.MinScaleFactor
	}

	j.scaleState.Store(math.Float64bits(newScale))
}

func (j *Job) stepUp() {
	newPalette := int(j.paletteSize.Load()) + 16
	if newPalette > j.Options.MaxPaletteSize {
		newPalette = j.Options.MaxPaletteSize
	}

	j.paletteSize.Store(int64(newPalette))

	newScale := j.CurrentScale() + j.Options.ScaleStep
	if newScale > j.Options.MaxScaleFactor {
		newScale = j.Options.MaxScaleFactor
	}

	j.scaleState.Store(math.Float64bits(newScale))
}
