package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/sakuraerr"
)

// decodeImageFile decodes a downloaded still image into a frame.Frame for
// the grid composer, which stays decoupled from any particular image codec.
func decodeImageFile(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sakuraerr.ErrOpenFailed, err)
	}

	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sakuraerr.ErrDecodeFailed, err)
	}

	b := img.Bounds()
	f := frame.New(b.Dx(), b.Dy())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			f.Set(x-b.Min.X, y-b.Min.Y, byte(bl>>8), byte(g>>8), byte(r>>8))
		}
	}

	return f, nil
}
