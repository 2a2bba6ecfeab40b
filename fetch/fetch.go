// Package fetch downloads a remote URL to a private temporary file so the
// facade can hand a local path to [decoder.Open] and [audioproc.Spawn],
// which both operate on files rather than streams.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sakuraviz/sakura/sakuraerr"
)

// ToTempFile downloads url into a fresh file under os.TempDir, writing to a
// "*"-suffixed temp name and renaming into place once the body is fully
// written so a caller never observes a partially-written path. It returns
// the final path and a cleanup func that removes it; cleanup is always
// safe to call, including after a failed download (in which case it is a
// no-op).
func ToTempFile(ctx context.Context, url string) (path string, cleanup func(), err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", func() {}, fmt.Errorf("%w: building request: %w", sakuraerr.ErrDownloadFailed, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", func() {}, fmt.Errorf("%w: %w", sakuraerr.ErrDownloadFailed, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", func() {}, fmt.Errorf("%w: status %d", sakuraerr.ErrDownloadFailed, resp.StatusCode)
	}

	finalPath := filepath.Join(os.TempDir(), fmt.Sprintf("sakura_video_%d", time.Now().Unix()))

	tmp, err := os.CreateTemp(os.TempDir(), filepath.Base(finalPath)+"_*")
	if err != nil {
		return "", func() {}, fmt.Errorf("%w: creating temp file: %w", sakuraerr.ErrDownloadFailed, err)
	}

	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return "", func() {}, fmt.Errorf("%w: writing body: %w", sakuraerr.ErrDownloadFailed, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return "", func() {}, fmt.Errorf("%w: closing temp file: %w", sakuraerr.ErrDownloadFailed, err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)

		return "", func() {}, fmt.Errorf("%w: finalizing download: %w", sakuraerr.ErrDownloadFailed, err)
	}

	return finalPath, func() { os.Remove(finalPath) }, nil
}
