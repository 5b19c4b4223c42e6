// Package logging configures the process-wide slog logger used by the
// crawl engine and CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config controls log destination, format, and verbosity.
type Config struct {
	Level    slog.Level
	FilePath string // empty means console only
	MaxSize  int64  // MB, per log file before rotation
	Backups  int
	JSON     bool
}

// DefaultConfig returns console text logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:   slog.LevelInfo,
		MaxSize: 50,
		Backups: 3,
	}
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
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

// NewLogger creates a logger with the given configuration.
func NewLogger(config Config) (*slog.Logger, error) {
	var writer io.Writer = os.Stderr

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
			return nil, err
		}
		fileWriter, err := NewRotatingFileWriter(config.FilePath, config.MaxSize*1024*1024, config.Backups)
		if err != nil {
			return nil, err
		}
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}

	opts := &slog.HandlerOptions{Level: config.Level}
	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler), nil
}

// SetDefault creates a logger and installs it as the slog default.
func SetDefault(config Config) error {
	logger, err := NewLogger(config)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
