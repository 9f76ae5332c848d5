// Package logging provides structured logging configuration using log/slog.
//
// Console output goes to stdout in text or JSON. When a log file is
// configured, every entry is also written to it as JSON. Loggers derived
// from a request context carry chi's request ID.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	slogmulti "github.com/samber/slog-multi"
)

// Setup configures the global slog logger.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// If file is non-empty, entries are fanned out to it as JSON as well.
// The returned cleanup closes the file and is always safe to call.
func Setup(level, format, file string) (cleanup func() error) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	console := newHandler(os.Stdout, format, opts)

	if file == "" {
		slog.SetDefault(slog.New(console))
		return func() error { return nil }
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.SetDefault(slog.New(console))
		slog.Error("failed to open log file, using stdout only", "error", err, "file", file)
		return func() error { return nil }
	}

	slog.SetDefault(New(console, f, opts))
	return f.Close
}

// New returns a logger that writes to console and, as JSON, to file.
func New(console slog.Handler, file io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return slog.New(slogmulti.Fanout(console, slog.NewJSONHandler(file, opts)))
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
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

// FromContext returns the default logger, tagged with the request ID
// when ctx carries one from chi's RequestID middleware.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a request-scoped logger with additional structured fields.
//
// Usage:
//
//	logger := logging.WithFields(ctx,
//	    "import_id", importID,
//	    "file", fileName,
//	)
//	logger.Info("import started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
