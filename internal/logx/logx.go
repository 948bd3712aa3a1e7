// Package logx builds the process logger. JSON is the production format;
// "text" gives colored, human-readable output for local development.
package logx

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// Err is the attribute helper for errors, so both formats render them alike.
var Err = tint.Err //nolint:gochecknoglobals

// New returns a logger writing to w in the given format. Unknown formats
// fall back to JSON.
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	if strings.EqualFold(format, FormatText) {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
