package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New builds a logger writing format ("text" or "json") records at level and above to w.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init sets up the global logger on stderr, tee'd to logFile when it is not empty, and
// returns the file so the caller can close it.
func Init(level slog.Level, format, logFile string) (*os.File, error) {
	var w io.Writer = os.Stderr
	var file *os.File
	if logFile != "" {
		var err error
		file, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, file)
	}

	slog.SetDefault(New(w, level, format))
	return file, nil
}
