package logging

import (
	"io"
	"log/slog"
	"strings"

	hclog "github.com/hashicorp/go-hclog"
)

// New returns a structured JSON logger writing to w at the named level.
func New(w io.Writer, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h)
}

// NewPluginLogger returns the go-plugin host logger. It shares w with the
// slog logger so plugin output never lands on a terminal the caller owns.
func NewPluginLogger(w io.Writer, name, level string) hclog.Logger {
	if w == nil {
		w = io.Discard
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      HCLogLevel(level),
		Output:     w,
		JSONFormat: true,
	})
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HCLogLevel maps a configured level onto the go-plugin logger levels.
func HCLogLevel(level string) hclog.Level {
	switch ParseLevel(level) {
	case slog.LevelDebug:
		return hclog.Debug
	case slog.LevelWarn:
		return hclog.Warn
	case slog.LevelError:
		return hclog.Error
	default:
		return hclog.Info
	}
}
