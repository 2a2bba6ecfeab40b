// Package sakuraerr defines the sentinel errors shared across the decode,
// render, and playback stages, wrapped at each call site with
// [fmt.Errorf]'s %w verb the way the teacher's magicschema package wraps
// ErrReadInput/ErrWriteOutput.
package sakuraerr

import "errors"

var (
	// ErrDownloadFailed is returned when fetching a remote URL fails or
	// returns a non-2xx status.
	ErrDownloadFailed = errors.New("sakura: download failed")

	// ErrOpenFailed is returned when the decoder cannot open a source.
	ErrOpenFailed = errors.New("sakura: open failed")

	// ErrDecodeFailed is returned when reading a frame from the decoder
	// fails for a reason other than a clean end-of-stream.
	ErrDecodeFailed = errors.New("sakura: decode failed")

	// ErrEncodeFailed is returned when a still or frame encoder cannot
	// produce output.
	ErrEncodeFailed = errors.New("sakura: encode failed")

	// ErrResizeFailed is returned when the sizer receives an invalid
	// request (non-positive source dimensions).
	ErrResizeFailed = errors.New("sakura: resize failed")

	// ErrAudioFailed is returned when the audio subprocess cannot be
	// spawned.
	ErrAudioFailed = errors.New("sakura: audio process failed")

	// ErrIOFailed wraps a failure writing to the terminal.
	ErrIOFailed = errors.New("sakura: io failed")

	// ErrCancelRequested is returned when a playback job is stopped by an
	// external cancellation rather than reaching end-of-stream.
	ErrCancelRequested = errors.New("sakura: cancel requested")
)
