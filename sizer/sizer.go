// Package sizer computes target pixel dimensions and an interpolation
// choice for a source frame, given a requested size, the active
// [option.Mode], and (for video) an [option.Fit] mode. It is pure: it never
// touches the terminal or the network; callers supply already-probed
// terminal dimensions as fallback inputs.
package sizer

import (
	"fmt"

	"golang.org/x/image/draw"

	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/sakuraerr"
)

// FallbackChars and FallbackPixels are used by [Resolve] in place of a
// terminal probe when the caller has none to offer (e.g. non-interactive
// output, probe failure).
var (
	FallbackChars  = struct{ Cols, Rows int }{Cols: 80, Rows: 24}
	FallbackPixels = struct{ W, H int }{W: 1920, H: 1080}
)

// Request bundles the sizer inputs for one still or per-frame resize.
type Request struct {
	SrcW, SrcH int

	// TargetW and TargetH are the caller's requested pixel dimensions; 0
	// means "derive from the terminal probe below".
	TargetW, TargetH int

	// TermCols, TermRows, TermPxW, TermPxH are the terminal probe results,
	// used only when TargetW/TargetH are 0. Pass FallbackChars/FallbackPixels
	// values when no probe is available.
	TermCols, TermRows int
	TermPxW, TermPxH   int

	Mode                option.Mode
	Fit                 option.Fit
	AspectRatio         bool
	TerminalAspectRatio float64

	// Video marks a per-frame video resize, activating [option.Fit]
	// handling in step 4 of the algorithm instead of the still Contain-only
	// behavior.
	Video bool

	// FastResize and HighFPS steer interpolation selection toward a cheaper
	// filter for real-time video decoding.
	FastResize bool
	HighFPS    bool
}

// Result is the sizer's output: the resolved pixel size to resize into
// (before HalfBlock's height-doubling is applied, see [Result.PixelHeight])
// and the interpolator to scale with.
type Result struct {
	W, H         int
	Interpolator draw.Interpolator
}

// PixelHeight returns the actual pixel-row count for mode m at height h,
// doubling for [option.ModeHalfBlock] since one text row carries two pixel
// rows.
func PixelHeight(mode option.Mode, h int) int {
	if mode == option.ModeHalfBlock {
		return h * 2
	}

	return h
}

// Resolve computes the target size and interpolator for req. It reports
// [sakuraerr.ErrResizeFailed] when req carries non-positive source
// dimensions, since there is no sensible aspect ratio to derive from those.
func Resolve(req Request) (Result, error) {
	if req.SrcW < 1 || req.SrcH < 1 {
		return Result{}, fmt.Errorf("%w: source size %dx%d", sakuraerr.ErrResizeFailed, req.SrcW, req.SrcH)
	}

	tw, th := req.TargetW, req.TargetH

	// Step 1: fall back to a terminal probe (character cells for
	// cell-addressed modes, raw pixels for Sixel) when unset.
	if tw == 0 || th == 0 {
		tw, th = resolveFallback(req)
	}

	if req.AspectRatio {
		tw, th = fitAspect(req, tw, th)
	}

	// Step 3: HalfBlock's pixel matrix has doubled height.
	h := PixelHeight(req.Mode, th)

	// Step 4: video fit handling, applied after the aspect-preserving
	// Contain computation above.
	if req.Video {
		switch req.Fit {
		case option.FitStretch:
			boxW, boxH := resolveFallback(req)
			tw, h = boxW, PixelHeight(req.Mode, boxH)
		case option.FitCover:
			tw, h = coverFit(req, tw, h)
		case option.FitContain, "":
			// Already computed above.
		}
	}

	tw = clampMin1(tw)
	h = clampMin1(h)

	return Result{W: tw, H: h, Interpolator: chooseInterpolator(req)}, nil
}

func resolveFallback(req Request) (tw, th int) {
	tw, th = req.TargetW, req.TargetH

	if req.Mode == option.ModeSixel {
		if tw == 0 {
			tw = req.TermPxW
		}

		if th == 0 {
			th = req.TermPxH
		}

		if tw == 0 {
			tw = FallbackPixels.W
		}

		if th == 0 {
			th = FallbackPixels.H
		}

		return tw, th
	}

	if tw == 0 {
		tw = req.TermCols
	}

	if th == 0 {
		th = req.TermRows
	}

	if tw == 0 {
		tw = FallbackChars.Cols
	}

	if th == 0 {
		th = FallbackChars.Rows
	}

	return tw, th
}

// fitAspect implements step 2: compute source aspect (cell-corrected for
// cell-addressed modes), then shrink the larger requested dimension to fit.
func fitAspect(req Request, tw, th int) (rtw, rth int) {
	a := float64(req.SrcW) / float64(req.SrcH)

	switch req.Mode {
	case option.ModeHalfBlock, option.ModeAsciiColor, option.ModeSixel:
		if req.TerminalAspectRatio != 0 {
			a /= req.TerminalAspectRatio
		}
	case option.ModeAsciiGray:
		// Uncorrected: the ramp already reads as taller-than-wide glyphs.
	}

	candidateH := clampMin1(int(float64(tw) / a))
	if candidateH <= th {
		return tw, candidateH
	}

	candidateW := clampMin1(int(float64(th) * a))

	return candidateW, th
}

// coverFit grows the smaller computed dimension back out to the requested
// TargetW/TargetH bound, recomputing the other from source aspect, per step
// 4's Cover case. A target dimension left at 0 is bounded by the contained
// size computed before it, not by the terminal probe, so with no requested
// size Cover leaves the Contain result unchanged.
func coverFit(req Request, tw, th int) (rtw, rth int) {
	boundW, boundH := req.TargetW, PixelHeight(req.Mode, req.TargetH)
	if boundW == 0 {
		boundW = tw
	}

	if boundH == 0 {
		boundH = th
	}

	a := float64(req.SrcW) / float64(req.SrcH)
	if req.TerminalAspectRatio != 0 {
		a /= req.TerminalAspectRatio
	}

	if tw < boundW {
		tw = boundW
		th = clampMin1(int(float64(tw) / a))
	}

	if th < boundH {
		th = boundH
		tw = clampMin1(int(float64(th) * a))
	}

	return tw, th
}

// chooseInterpolator implements step 5's interpolation hint.
func chooseInterpolator(req Request) draw.Interpolator {
	if !req.Video {
		return draw.CatmullRom
	}

	if req.Fit == option.FitContain {
		return draw.CatmullRom
	}

	if req.FastResize || req.HighFPS {
		return draw.NearestNeighbor
	}

	return draw.CatmullRom
}

func clampMin1(v int) int {
	if v < 1 {
		return 1
	}

	return v
}
