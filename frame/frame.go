// Package frame defines the BGR pixel buffer that flows through the decode,
// resize, and render stages of the playback pipeline, along with an
// [image.Image] adapter so [golang.org/x/image/draw] scalers can operate on
// it directly without an intermediate RGBA copy.
package frame

import (
	"image"
	"image/color"
)

// Frame is a BGR, 8-bit-per-channel pixel buffer with a source index for
// reordering after parallel encoding. Index is monotonically increasing
// within one decode job.
type Frame struct {
	Pix    []byte
	Stride int
	W, H   int
	Index  uint64
}

// New allocates a zeroed Frame of the given size. A width or height below 1
// is raised to 1, so the result is never empty.
func New(w, h int) *Frame {
	if w < 1 {
		w = 1
	}

	if h < 1 {
		h = 1
	}

	return &Frame{
		Pix:    make([]byte, w*h*3),
		Stride: w * 3,
		W:      w,
		H:      h,
	}
}

// At returns the BGR triple at (x, y). Out-of-bounds coordinates return the
// zero value.
func (f *Frame) At(x, y int) (b, g, r byte) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return 0, 0, 0
	}

	i := y*f.Stride + x*3

	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set writes the BGR triple at (x, y). Out-of-bounds coordinates are a no-op.
func (f *Frame) Set(x, y int, b, g, r byte) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return
	}

	i := y*f.Stride + x*3
	f.Pix[i] = b
	f.Pix[i+1] = g
	f.Pix[i+2] = r
}

// Image returns an [image.Image] (and [draw.Image] via [Frame.Set] through
// [Image.Set]) view of f, letting golang.org/x/image/draw scale it without
// copying into Go's native RGBA layout.
func (f *Frame) Image() *Image {
	return &Image{f}
}

// Image adapts a [Frame] to [image.Image] and [draw.Image].
type Image struct {
	*Frame
}

// ColorModel implements [image.Image].
func (i *Image) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements [image.Image].
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.W, i.H)
}

// At implements [image.Image], converting the stored BGR pixel to
// [color.RGBA].
func (i *Image) At(x, y int) color.Color {
	b, g, r := i.Frame.At(x, y)

	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Set implements [draw.Image], converting an arbitrary color back to BGR.
func (i *Image) Set(x, y int, c color.Color) {
	r, g, b, _ := c.RGBA()
	i.Frame.Set(x, y, byte(b>>8), byte(g>>8), byte(r>>8))
}

// ToGray returns a new single-channel buffer holding the ITU-R BT.601
// luma of f, matching OpenCV's default BGR2GRAY weights.
func (f *Frame) ToGray() *Gray {
	g := &Gray{Pix: make([]byte, f.W*f.H), Stride: f.W, W: f.W, H: f.H}

	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			b, gc, r := f.At(x, y)
			// OpenCV's BGR2GRAY: Y = 0.299 R + 0.587 G + 0.114 B.
			lum := (299*int(r) + 587*int(gc) + 114*int(b)) / 1000
			if lum > 255 {
				lum = 255
			}

			g.Pix[y*g.Stride+x] = byte(lum)
		}
	}

	return g
}

// Gray is a single-channel 8-bit intensity buffer.
type Gray struct {
	Pix    []byte
	Stride int
	W, H   int
}

// At returns the intensity at (x, y), or 0 out of bounds.
func (g *Gray) At(x, y int) byte {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return 0
	}

	return g.Pix[y*g.Stride+x]
}
