// Package logging sends structured logs to a file. The terminal belongs to
// the UI, so nothing is written to stdout or stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel maps a level name to a slog.Level. Unknown names are warn.
func ParseLevel(name string) slog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l
	}
	return slog.LevelWarn
}

// Setup opens path for appending, installs a JSON logger as the slog
// default and returns the file so the caller can close it on exit.
func Setup(path, level string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	slog.SetDefault(New(f, level))
	return f, nil
}

func New(w io.Writer, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true,
	})
	return slog.New(h).With("app", "traetodo")
}
