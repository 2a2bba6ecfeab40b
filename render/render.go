// Package render formats a [frame.Frame] into terminal escape-sequence text
// using one of the still-render modes: half-block true-color, per-pixel
// ASCII color, or a grayscale character ramp with optional Floyd-Steinberg
// dithering. Each formatter returns one string per output row, mirroring the
// teacher's line-oriented [strings.Builder] approach in
// cmd/ansi_video_renderer/renderer.go, generalized from a single fixed mode
// to the full still-render family.
package render

import (
	"strconv"
	"strings"

	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/option"
)

const (
	resetSeq = "\x1b[0m"
	halfChar = "▀"
)

// HalfBlock formats f as one line per pair of pixel rows: the top pixel
// becomes the foreground color and the bottom pixel the background color of
// a "▀" character. When f.H is odd, the last row's bottom pixel duplicates
// the top.
func HalfBlock(f *frame.Frame) []string {
	rows := (f.H + 1) / 2
	lines := make([]string, rows)

	var b strings.Builder

	for row := 0; row < rows; row++ {
		b.Reset()

		topY := row * 2
		botY := topY + 1

		for x := 0; x < f.W; x++ {
			tb, tg, tr := f.At(x, topY)

			bb, bg, br := tb, tg, tr
			if botY < f.H {
				bb, bg, br = f.At(x, botY)
			}

			b.WriteString("\x1b[48;2;")
			writeTriple(&b, br, bg, bb)
			b.WriteString("m\x1b[38;2;")
			writeTriple(&b, tr, tg, tb)
			b.WriteString("m")
			b.WriteString(halfChar)
			b.WriteString(resetSeq)
		}

		lines[row] = b.String()
	}

	return lines
}

// AsciiColor formats f as one line per pixel row, one colored space per
// pixel.
func AsciiColor(f *frame.Frame) []string {
	lines := make([]string, f.H)

	var b strings.Builder

	for y := 0; y < f.H; y++ {
		b.Reset()

		for x := 0; x < f.W; x++ {
			pb, pg, pr := f.At(x, y)

			b.WriteString("\x1b[48;2;")
			writeTriple(&b, pr, pg, pb)
			b.WriteString("m ")
			b.WriteString(resetSeq)
		}

		lines[y] = b.String()
	}

	return lines
}

// AsciiGray converts f to grayscale and formats it against style's character
// ramp, applying dither if requested.
func AsciiGray(f *frame.Frame, style option.Style, dither option.Dither) []string {
	gray := f.ToGray()
	ramp := style.CharSet()

	if dither == option.DitherFloydSteinberg {
		return floydSteinberg(gray, ramp)
	}

	lines := make([]string, gray.H)

	var b strings.Builder

	n := len(ramp)

	for y := 0; y < gray.H; y++ {
		b.Reset()

		for x := 0; x < gray.W; x++ {
			idx := int(gray.At(x, y)) * (n - 1) / 255
			b.WriteRune([]rune(ramp)[idx])
		}

		lines[y] = b.String()
	}

	return lines
}

// floydSteinberg implements the error-diffusion dithering variant of
// AsciiGray: normalize to [0,1], diffuse residual error to the right
// (7/16), bottom-left (3/16), bottom (5/16), and bottom-right (1/16)
// neighbors, clamping indices at edges.
func floydSteinberg(gray *frame.Gray, ramp string) []string {
	runes := []rune(ramp)
	n := len(runes)

	levels := n - 1
	if levels < 1 {
		levels = 1
	}

	errBuf := make([][]float64, gray.H)
	for y := range errBuf {
		errBuf[y] = make([]float64, gray.W)
	}

	lines := make([]string, gray.H)

	var b strings.Builder

	for y := 0; y < gray.H; y++ {
		b.Reset()

		for x := 0; x < gray.W; x++ {
			v := float64(gray.At(x, y))/255.0 + errBuf[y][x]
			if v < 0 {
				v = 0
			}

			if v > 1 {
				v = 1
			}

			levelF := v * float64(levels)
			level := int(levelF + 0.5)

			if level > levels {
				level = levels
			}

			residual := v - float64(level)/float64(levels)

			diffuse(errBuf, x+1, y, gray.W, gray.H, residual*7.0/16.0)
			diffuse(errBuf, x-1, y+1, gray.W, gray.H, residual*3.0/16.0)
			diffuse(errBuf, x, y+1, gray.W, gray.H, residual*5.0/16.0)
			diffuse(errBuf, x+1, y+1, gray.W, gray.H, residual*1.0/16.0)

			b.WriteRune(runes[level])
		}

		lines[y] = b.String()
	}

	return lines
}

func diffuse(errBuf [][]float64, x, y, w, h int, amount float64) {
	if x < 0 || x >= w || y < 0 || y >= h {
		return
	}

	errBuf[y][x] += amount
}

func writeTriple(b *strings.Builder, x, y, z byte) {
	b.WriteString(strconv.Itoa(int(x)))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(int(y)))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(int(z)))
}
