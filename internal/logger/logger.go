// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Writes to a debug log file so the TUI's alternate screen stays clean.

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	logFile *os.File
	mu      sync.Mutex
)

// Options controls where and how logs are written
type Options struct {
	// Dir holds debug.log. Empty disables file output.
	Dir string
	// Stderr sends logs to stderr instead of the file.
	Stderr bool
}

// Init configures the default slog logger.
// LOG_LEVEL: debug, info, warn, error (default: info)
// LOG_FORMAT: text, json (default: text)
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	var w io.Writer = io.Discard
	switch {
	case opts.Stderr:
		w = os.Stderr
	case opts.Dir != "":
		if err := os.MkdirAll(opts.Dir, 0700); err != nil {
			return err
		}
		f, err := os.OpenFile(filepath.Join(opts.Dir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		logFile = f
		w = f
	}

	slog.SetDefault(slog.New(newHandler(w, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))))
	return nil
}

// Close closes the log file and resets the default logger to discard output
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func closeLocked() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
