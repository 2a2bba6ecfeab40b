package grid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/grid"
	"github.com/sakuraviz/sakura/option"
)

func TestComposeEmptyURLs(t *testing.T) {
	t.Parallel()

	out, err := grid.Compose(context.Background(), nil, 2, option.RenderOptions{}, 80, 24, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestComposeLaysOutTwoByOne(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake-image-bytes"))
	}))
	defer srv.Close()

	decode := func(path string) (*frame.Frame, error) {
		return frame.New(4, 4), nil
	}

	out, err := grid.Compose(context.Background(), []string{srv.URL, srv.URL}, 2,
		option.RenderOptions{Mode: option.ModeAsciiColor}.FillDefaults(), 20, 4, decode)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
