// Package sixelenc adapts a [frame.Frame] to a SIXEL byte stream using
// [github.com/mattn/go-sixel] for encoding and
// [github.com/ericpauley/go-quantize/quantize]'s median-cut quantizer to
// build the fixed-size palette the protocol requires, grounded on
// other_examples' diamondburned-tcell-sixel pipeline (quantize-then-encode)
// and llehouerou-waves' albumart SIXEL adapter (bare go-sixel.Encoder use).
package sixelenc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/mattn/go-sixel"
	xdraw "golang.org/x/image/draw"

	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/sakuraerr"
)

// ErrEmptyFrame is returned for zero-width or zero-height input.
var ErrEmptyFrame = errors.New("sixelenc: empty frame")

// maxPixels caps the pixel count sampled for palette quantization, mirroring
// the original implementation's MAX_PIXELS downscale-before-quantize guard.
const maxPixels = 65536

// Encode renders f as a SIXEL byte stream quantized to at most paletteSize
// colors (clamped to [1,256]), honoring quality for the dither decision. A
// library-internal encode failure is reported via [sakuraerr.ErrEncodeFailed]
// rather than swallowed, so the caller counts it as a dropped frame instead
// of a rendered one.
func Encode(f *frame.Frame, paletteSize int, quality option.SixelQuality) ([]byte, error) {
	if f == nil || f.W <= 0 || f.H <= 0 {
		return nil, ErrEmptyFrame
	}

	if paletteSize < 1 {
		paletteSize = 1
	}

	if paletteSize > 256 {
		paletteSize = 256
	}

	full := f.Image()
	sample := quantizeSample(full)

	quantizer := quantize.MedianCutQuantizer{}
	palette := quantizer.Quantize(make(color.Palette, 0, paletteSize), sample)

	src := image.Image(full)

	paletted := image.NewPaletted(src.Bounds(), palette)

	if quality == option.SixelQualityHigh {
		draw.FloydSteinberg.Draw(paletted, paletted.Bounds(), src, image.Point{})
	} else {
		draw.Draw(paletted, paletted.Bounds(), src, image.Point{}, draw.Src)
	}

	var buf bytes.Buffer

	enc := sixel.NewEncoder(&buf)
	enc.Dither = quality == option.SixelQualityHigh

	if err := enc.Encode(paletted); err != nil {
		return nil, fmt.Errorf("%w: %w", sakuraerr.ErrEncodeFailed, err)
	}

	return buf.Bytes(), nil
}

// quantizeSample returns a possibly-downscaled copy of img used only to
// choose a palette, mirroring the original implementation's MAX_PIXELS guard
// against spending quadratic median-cut time on huge frames. The full
// resolution image is still used for the final paletted draw.
func quantizeSample(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w*h <= maxPixels {
		return img
	}

	scale := math.Sqrt(float64(maxPixels) / float64(w*h))

	sw := int(float64(w) * scale)
	if sw < 1 {
		sw = 1
	}

	sh := int(float64(h) * scale)
	if sh < 1 {
		sh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, sw, sh))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)

	return dst
}
