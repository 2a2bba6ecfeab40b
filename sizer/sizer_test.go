package sizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/sakuraerr"
	"github.com/sakuraviz/sakura/sizer"
)

func TestResolveHalfBlockDoublesHeight(t *testing.T) {
	t.Parallel()

	res, err := sizer.Resolve(sizer.Request{
		SrcW: 10, SrcH: 10,
		TargetW: 10, TargetH: 2,
		Mode:                option.ModeHalfBlock,
		AspectRatio:         false,
		TerminalAspectRatio: 1.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, res.W)
	assert.Equal(t, 4, res.H)
}

func TestResolveFallsBackToTerminalCells(t *testing.T) {
	t.Parallel()

	res, err := sizer.Resolve(sizer.Request{
		SrcW: 4, SrcH: 4,
		TermCols: 40, TermRows: 12,
		Mode: option.ModeAsciiColor,
	})
	require.NoError(t, err)

	assert.Equal(t, 40, res.W)
	assert.Equal(t, 12, res.H)
}

func TestResolveFallsBackToDefaultsWhenProbeUnavailable(t *testing.T) {
	t.Parallel()

	res, err := sizer.Resolve(sizer.Request{
		SrcW: 4, SrcH: 4,
		Mode: option.ModeSixel,
	})
	require.NoError(t, err)

	assert.Equal(t, sizer.FallbackPixels.W, res.W)
	assert.Equal(t, sizer.FallbackPixels.H, res.H)
}

func TestResolveAspectShrinksLargerDimension(t *testing.T) {
	t.Parallel()

	res, err := sizer.Resolve(sizer.Request{
		SrcW: 200, SrcH: 100,
		TargetW: 50, TargetH: 50,
		Mode:                option.ModeAsciiColor,
		AspectRatio:         true,
		TerminalAspectRatio: 1.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 50, res.W)
	assert.Equal(t, 25, res.H)
}

func TestResolveVideoStretchIgnoresAspect(t *testing.T) {
	t.Parallel()

	res, err := sizer.Resolve(sizer.Request{
		SrcW: 200, SrcH: 100,
		TargetW: 50, TargetH: 50,
		Mode:                option.ModeHalfBlock,
		Fit:                 option.FitStretch,
		Video:               true,
		AspectRatio:         true,
		TerminalAspectRatio: 1.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 50, res.W)
	assert.Equal(t, 100, res.H)
}

func TestResolveInterpolatorChoice(t *testing.T) {
	t.Parallel()

	still, err := sizer.Resolve(sizer.Request{SrcW: 4, SrcH: 4, TargetW: 4, TargetH: 4, Mode: option.ModeAsciiColor})
	require.NoError(t, err)
	assert.Equal(t, draw.CatmullRom, still.Interpolator)

	video, err := sizer.Resolve(sizer.Request{
		SrcW: 4, SrcH: 4, TargetW: 4, TargetH: 4,
		Mode: option.ModeHalfBlock, Video: true, FastResize: true, Fit: option.FitCover,
	})
	require.NoError(t, err)
	assert.Equal(t, draw.NearestNeighbor, video.Interpolator)
}

func TestResolveRejectsNonPositiveSourceSize(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		srcW, srcH int
	}{
		"zero width":      {srcW: 0, srcH: 10},
		"zero height":     {srcW: 10, srcH: 0},
		"negative width":  {srcW: -1, srcH: 10},
		"negative height": {srcW: 10, srcH: -1},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := sizer.Resolve(sizer.Request{
				SrcW: tc.srcW, SrcH: tc.srcH,
				TargetW: 10, TargetH: 10,
				Mode: option.ModeAsciiColor,
			})
			require.ErrorIs(t, err, sakuraerr.ErrResizeFailed)
		})
	}
}

func TestPixelHeight(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, sizer.PixelHeight(option.ModeAsciiColor, 10))
	assert.Equal(t, 20, sizer.PixelHeight(option.ModeHalfBlock, 10))
}
