package facade_test

import (
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakuraviz/sakura/facade"
	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/termio"
)

func solidRedPNGHandler(w http.ResponseWriter, r *http.Request) {
	f := frame.New(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			f.Set(x, y, 0, 0, 255)
		}
	}

	w.Header().Set("Content-Type", "image/png")

	img := f.Image()
	_ = png.Encode(w, img)
}

func TestRenderStillMatHalfBlock(t *testing.T) {
	t.Parallel()

	f := frame.New(2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			f.Set(x, y, 0, 0, 0)
		}
	}

	term := termio.Size{Cols: 80, Rows: 24, PxW: 640, PxH: 384}

	out, err := facade.RenderStillMat(f, option.RenderOptions{Mode: option.ModeHalfBlock}, term)
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[48;2;0;0;0m")
}

func TestRenderStillMatAsciiGray(t *testing.T) {
	t.Parallel()

	f := frame.New(2, 2)

	term := termio.Size{Cols: 80, Rows: 24, PxW: 640, PxH: 384}

	out, err := facade.RenderStillMat(f, option.RenderOptions{Mode: option.ModeAsciiGray}, term)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderStillURLDownloadsAndRenders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(solidRedPNGHandler))
	defer srv.Close()

	term := termio.Size{Cols: 40, Rows: 20, PxW: 320, PxH: 320}

	out, err := facade.RenderStillURL(context.Background(), srv.URL,
		option.RenderOptions{Mode: option.ModeAsciiColor}, term)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderVideoFileRequiresFFmpeg(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("ffmpeg"); err == nil {
		t.Skip("ffmpeg installed; decode-path behavior covered by decoder package tests")
	}

	term := termio.Size{Cols: 40, Rows: 20, PxW: 320, PxH: 320}

	_, err := facade.RenderVideoFile(context.Background(), "/nonexistent.mp4",
		option.RenderOptions{}, term, nil)
	require.Error(t, err)
}
