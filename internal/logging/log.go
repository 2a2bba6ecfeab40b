package logging

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// Level names a logging severity by string, independent of [slog.Level]'s
// integer representation, so it round-trips cleanly through CLI flags.
type Level string

const (
	// LevelError logs only errors.
	LevelError Level = "error"
	// LevelWarn logs warnings and errors.
	LevelWarn Level = "warn"
	// LevelInfo logs informational messages, warnings, and errors.
	LevelInfo Level = "info"
	// LevelDebug logs everything, including debug messages.
	LevelDebug Level = "debug"
)

// Format represents the log output format.
type Format string

const (
	// FormatJSON outputs logs as JSON objects.
	FormatJSON Format = "json"
	// FormatLogfmt outputs logs in logfmt format.
	FormatLogfmt Format = "logfmt"
	// FormatText outputs logs in slog's default human-readable text format.
	FormatText Format = "text"
)

var (
	// ErrInvalidArgument indicates an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownLogLevel indicates an unrecognized log level string.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrUnknownLogFormat indicates an unrecognized log format string.
	ErrUnknownLogFormat = errors.New("unknown log format")
)

// NewHandlerFromStrings creates a [slog.Handler] from level and format
// strings, parsing and validating both before constructing the handler.
func NewHandlerFromStrings(w io.Writer, levelStr, formatStr string) (slog.Handler, error) {
	lvl, err := ParseLevel(levelStr)
	if err != nil {
		return nil, errors.Join(ErrInvalidArgument, err)
	}

	format, err := ParseFormat(formatStr)
	if err != nil {
		return nil, errors.Join(ErrInvalidArgument, err)
	}

	return NewHandler(w, lvl, format), nil
}

// NewHandler creates a [slog.Handler] with the specified level and format.
func NewHandler(w io.Writer, level Level, format Format) slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     level.slogLevel(),
	}

	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	}

	return slog.LevelInfo
}

// ParseLevel parses a log level string and returns the corresponding
// [Level].
func ParseLevel(level string) (Level, error) {
	lvl := Level(strings.ToLower(level))
	if slices.Contains(allLevels, lvl) {
		return lvl, nil
	}

	return "", ErrUnknownLogLevel
}

// ParseFormat parses a log format string and returns the corresponding
// [Format].
func ParseFormat(format string) (Format, error) {
	f := Format(strings.ToLower(format))
	if slices.Contains(allFormats, f) {
		return f, nil
	}

	return "", ErrUnknownLogFormat
}

var allLevels = []Level{LevelError, LevelWarn, LevelInfo, LevelDebug}

var allFormats = []Format{FormatJSON, FormatLogfmt, FormatText}

// GetAllLevelStrings returns every recognized level string, for flag help
// text and shell completion.
func GetAllLevelStrings() []string {
	out := make([]string, len(allLevels))
	for i, l := range allLevels {
		out[i] = string(l)
	}

	return out
}

// GetAllFormatStrings returns every recognized format string, for flag help
// text and shell completion.
func GetAllFormatStrings() []string {
	out := make([]string, len(allFormats))
	for i, f := range allFormats {
		out[i] = string(f)
	}

	return out
}
