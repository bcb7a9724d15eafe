package observability

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/larkvale/docdeck/internal/config"
)

// The terminal UI owns stdout, so the structured logger writes JSON lines to
// a file. When the file cannot be opened the logger discards output rather
// than corrupting the screen.
var logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Setup points the package logger at the configured log file.
func Setup(cfg config.LogConfig) error {
	if cfg.Path == "" {
		return nil
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewJSONHandler(f, nil))
	return nil
}

// Logger returns the process-wide structured logger.
func Logger() *slog.Logger {
	return logger
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return logger.With(kv...)
}
