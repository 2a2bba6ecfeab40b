// Package termio probes the controlling terminal for character and pixel
// dimensions and provides the cursor/screen control sequences the playback
// writer needs. Character-size probing is grounded on the teacher's
// cmd/ansi_video_renderer/main.go ([golang.org/x/term.GetSize]); pixel-size
// probing is grounded on llehouerou-waves' cellsize_unix.go
// ([golang.org/x/sys/unix.IoctlGetWinsize] with TIOCGWINSZ).
package termio

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Size holds a terminal probe result in both character cells and pixels.
type Size struct {
	Cols, Rows int
	PxW, PxH   int
}

// Probe queries the terminal attached to fd for its current size. On any
// failure, or when a dimension comes back zero, it substitutes the module's
// documented fallbacks: 80x24 character cells, 1920x1080 pixels.
func Probe(fd int) Size {
	s := Size{Cols: 80, Rows: 24, PxW: 1920, PxH: 1080}

	if cols, rows, err := term.GetSize(fd); err == nil && cols > 0 && rows > 0 {
		s.Cols, s.Rows = cols, rows
	}

	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err == nil && ws.Xpixel > 0 && ws.Ypixel > 0 {
		s.PxW, s.PxH = int(ws.Xpixel), int(ws.Ypixel)
	}

	return s
}

// CellSize derives the pixel dimensions of a single character cell from s,
// falling back to an 8x16 cell when the pixel probe was unavailable.
func (s Size) CellSize() (w, h int) {
	if s.Cols == 0 || s.Rows == 0 || s.PxW == 0 || s.PxH == 0 {
		return 8, 16
	}

	w = s.PxW / s.Cols
	if w < 1 {
		w = 8
	}

	h = s.PxH / s.Rows
	if h < 1 {
		h = 16
	}

	return w, h
}

// ProbeStdout probes os.Stdout, the terminal fd the playback writer targets.
func ProbeStdout() Size {
	return Probe(int(os.Stdout.Fd()))
}

const (
	cursorHome = "\x1b[H"
	cursorHide = "\x1b[?25l"
	cursorShow = "\x1b[?25h"
	screenClear = "\x1b[2J"
)

// HideCursor writes the sequence that hides the terminal cursor.
func HideCursor(w io.Writer) error {
	_, err := io.WriteString(w, cursorHide)

	return err
}

// ShowCursor writes the sequence that restores the terminal cursor,
// unconditionally run as part of the playback engine's shutdown protocol.
func ShowCursor(w io.Writer) error {
	_, err := io.WriteString(w, cursorShow)

	return err
}

// CursorHome writes the sequence that moves the cursor to the top-left,
// used by the writer before every emitted frame.
func CursorHome(w io.Writer) error {
	_, err := io.WriteString(w, cursorHome)

	return err
}

// ClearScreen writes a full-screen clear, used by the writer when an
// incoming frame is smaller than the previous one to avoid leftover pixels.
func ClearScreen(w io.Writer) error {
	_, err := io.WriteString(w, screenClear)

	return err
}

// WriteFramePrefix emits ClearScreen (only if shrinking) followed by
// CursorHome, per spec section 4.4.1's writer contract.
func WriteFramePrefix(w io.Writer, shrinking bool) error {
	if shrinking {
		if err := ClearScreen(w); err != nil {
			return fmt.Errorf("termio: clear screen: %w", err)
		}
	}

	if err := CursorHome(w); err != nil {
		return fmt.Errorf("termio: cursor home: %w", err)
	}

	return nil
}
