// internal/logging/logging.go
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"github.com/unclebandit/customer-publisher/internal/config"
)

// New builds the process logger. Records go to stderr in the configured format and,
// when a log file is configured, also to that file as JSON. The returned closer
// releases the file.
func New(cfg config.LogConfig, service string) (*slog.Logger, io.Closer, error) {
	return newLogger(cfg, service, os.Stderr)
}

func newLogger(cfg config.LogConfig, service string, console io.Writer) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{consoleHandler(cfg.Format, console, opts)}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(file, opts))
		closer = file
	}

	var h slog.Handler
	if len(handlers) == 1 {
		h = handlers[0]
	} else {
		h = slogmulti.Fanout(handlers...)
	}

	return slog.New(h).With("service", service), closer, nil
}

func consoleHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
