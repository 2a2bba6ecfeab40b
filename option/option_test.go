package option_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakuraviz/sakura/option"
)

func TestFillDefaults(t *testing.T) {
	t.Parallel()

	o := option.RenderOptions{}.FillDefaults()

	assert.Equal(t, option.ModeHalfBlock, o.Mode)
	assert.Equal(t, option.StyleSimple, o.Style)
	assert.Equal(t, option.FitCover, o.Fit)
	assert.Equal(t, option.SixelQualityHigh, o.SixelQuality)
	assert.Equal(t, 256, o.PaletteSize)
	assert.InDelta(t, 1.0, o.TerminalAspectRatio, 0)
	assert.InDelta(t, 1.0, o.Contrast, 0)
	assert.Equal(t, 16, o.QueueSize)
	assert.Equal(t, 4, o.PrebufferFrames)
	assert.Equal(t, 64, o.MinPaletteSize)
	assert.Equal(t, 256, o.MaxPaletteSize)
	assert.InDelta(t, 0.80, o.MinScaleFactor, 0)
	assert.InDelta(t, 1.00, o.MaxScaleFactor, 0)
	assert.InDelta(t, 0.05, o.ScaleStep, 0)
}

func TestFillDefaultsPreservesExplicitValues(t *testing.T) {
	t.Parallel()

	o := option.RenderOptions{
		Mode:        option.ModeSixel,
		Style:       option.StyleBlocks,
		Fit:         option.FitStretch,
		PaletteSize: 32,
	}.FillDefaults()

	assert.Equal(t, option.ModeSixel, o.Mode)
	assert.Equal(t, option.StyleBlocks, o.Style)
	assert.Equal(t, option.FitStretch, o.Fit)
	assert.Equal(t, 32, o.PaletteSize)
}

func TestFillDefaultsClampsPaletteSize(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input, want int
	}{
		"negative clamps to 1":  {input: -5, want: 1},
		"over max clamps to 256": {input: 999, want: 256},
		"in range unchanged":    {input: 128, want: 128},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			o := option.RenderOptions{PaletteSize: tc.input}.FillDefaults()
			assert.Equal(t, tc.want, o.PaletteSize)
		})
	}
}

func TestStyleCharSet(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		style option.Style
		want  string
	}{
		"simple":  {style: option.StyleSimple, want: " .:-=+*#%@"},
		"blocks":  {style: option.StyleBlocks, want: " ░▒▓█"},
		"unknown": {style: option.Style("bogus"), want: " .:-=+*#%@"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.style.CharSet())
		})
	}
}
