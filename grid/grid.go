// Package grid composes several still-rendered images into a single
// character-grid layout: N URLs arranged into C columns, each cell
// rendered independently at the cell's terminal size and then interleaved
// row-by-row into one block of text.
package grid

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/image/draw"

	"github.com/sakuraviz/sakura/fetch"
	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/render"
	"github.com/sakuraviz/sakura/sakuraerr"
	"github.com/sakuraviz/sakura/sizer"
)

// Decode turns a downloaded file into a frame.Frame; cmd/sakura supplies an
// implementation backed by an image codec so this package stays decoupled
// from any particular decoder.
type Decode func(path string) (*frame.Frame, error)

// Compose downloads each of urls, decodes and still-renders it into the
// terminal cell computed for a C-column, N-image layout, and concatenates
// the results row-by-row. Cells shorter than the tallest cell in their row
// are padded with cell-width spaces.
func Compose(ctx context.Context, urls []string, cols int, opts option.RenderOptions, termCols, termRows int, decode Decode) (string, error) {
	if len(urls) == 0 {
		return "", nil
	}

	if cols < 1 {
		cols = 1
	}

	rows := (len(urls) + cols - 1) / cols

	cellCols := termCols / cols
	cellRows := termRows / rows

	if cellCols < 1 {
		cellCols = 1
	}

	if cellRows < 1 {
		cellRows = 1
	}

	cells := make([][]string, len(urls))

	for i, url := range urls {
		lines, err := renderCell(ctx, url, opts, cellCols, cellRows, decode)
		if err != nil {
			return "", fmt.Errorf("grid: cell %d: %w", i, err)
		}

		cells[i] = lines
	}

	return interleave(cells, cols, cellCols), nil
}

func renderCell(ctx context.Context, url string, opts option.RenderOptions, cellCols, cellRows int, decode Decode) ([]string, error) {
	path, cleanup, err := fetch.ToTempFile(ctx, url)
	if err != nil {
		return nil, err
	}

	defer cleanup()

	f, err := decode(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sakuraerr.ErrDecodeFailed, err)
	}

	res, err := sizer.Resolve(sizer.Request{
		SrcW: f.W, SrcH: f.H,
		TargetW: cellCols, TargetH: cellRows,
		Mode:                opts.Mode,
		AspectRatio:         opts.AspectRatio,
		TerminalAspectRatio: opts.TerminalAspectRatio,
	})
	if err != nil {
		return nil, err
	}

	resized := frame.New(res.W, res.H)
	res.Interpolator.Scale(resized.Image(), resized.Image().Bounds(), f.Image(), f.Image().Bounds(), draw.Over, nil)

	return renderStill(resized, opts), nil
}

func renderStill(f *frame.Frame, opts option.RenderOptions) []string {
	switch opts.Mode {
	case option.ModeAsciiColor:
		return render.AsciiColor(f)
	case option.ModeAsciiGray:
		return render.AsciiGray(f, opts.Style, opts.Dither)
	default:
		return render.HalfBlock(f)
	}
}

// interleave concatenates cells row-by-row: for each grid row, the cells in
// that row are laid side by side line-by-line; a cell with fewer lines than
// the tallest cell in its row gets cellCols spaces for each missing line.
// Lines that are present are not padded.
func interleave(cells [][]string, cols, cellCols int) string {
	rows := (len(cells) + cols - 1) / cols

	var b strings.Builder

	pad := strings.Repeat(" ", cellCols)

	for r := 0; r < rows; r++ {
		lineCount := 0

		for c := 0; c < cols; c++ {
			idx := r*cols + c
			if idx >= len(cells) {
				continue
			}

			if len(cells[idx]) > lineCount {
				lineCount = len(cells[idx])
			}
		}

		for l := 0; l < lineCount; l++ {
			for c := 0; c < cols; c++ {
				idx := r*cols + c
				if idx >= len(cells) {
					continue
				}

				if l < len(cells[idx]) {
					b.WriteString(cells[idx][l])
				} else {
					b.WriteString(pad)
				}
			}

			b.WriteByte('\n')
		}
	}

	return b.String()
}
