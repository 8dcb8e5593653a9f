// Package log provides structured logging with correlation IDs.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/helixml/textclassifier/internal/config"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for logging.
const (
	CorrelationIDKey ContextKey = "correlation_id"
	RequestIDKey     ContextKey = "request_id"
)

// Logger wraps slog.Logger with convenience methods.
type Logger struct {
	handler slog.Handler
	logger  *slog.Logger
}

// Option configures logger construction.
type Option func(*options)

type options struct {
	writer io.Writer
	color  *bool
}

// WithWriter sets the log destination. The default is standard output.
// The stdio MCP transport owns standard output, so it logs to standard error.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithColor forces ANSI colours on or off for the pretty format.
// Without it, colours are used only when the writer is a terminal.
func WithColor(enabled bool) Option {
	return func(o *options) { o.color = &enabled }
}

// NewLogger creates a new Logger based on configuration.
func NewLogger(cfg config.AppConfig, opts ...Option) *Logger {
	o := options{writer: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	color := isTerminal(o.writer)
	if o.color != nil {
		color = *o.color
	}

	return newLogger(o.writer, cfg.LogFormat(), ParseLevel(cfg.LogLevel()), color)
}

// NewLoggerWithWriter creates a Logger that writes to the specified writer.
// Pretty output written this way is never coloured.
func NewLoggerWithWriter(w io.Writer, format config.LogFormat, level string) *Logger {
	return newLogger(w, format, ParseLevel(level), false)
}

func newLogger(w io.Writer, format config.LogFormat, level slog.Level, color bool) *Logger {
	var handler slog.Handler
	switch format {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = newTerminalHandler(w, &slog.HandlerOptions{Level: level}, color)
	}

	return &Logger{
		handler: handler,
		logger:  slog.New(handler),
	}
}

// ParseLevel maps a level name to a slog level. Unknown names mean INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Handler returns the underlying slog.Handler.
func (l *Logger) Handler() slog.Handler {
	return l.handler
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// With returns a new Logger with additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		handler: l.handler,
		logger:  l.logger.With(args...),
	}
}

// Component returns a logger tagged with a component name.
func (l *Logger) Component(name string) *slog.Logger {
	return l.logger.With("component", name)
}

// WithContext returns a logger with context values (correlation ID, request ID).
func (l *Logger) WithContext(ctx context.Context) *Logger {
	attrs := make([]any, 0, 4)

	if corrID := CorrelationID(ctx); corrID != "" {
		attrs = append(attrs, "correlation_id", corrID)
	}
	if reqID := RequestID(ctx); reqID != "" {
		attrs = append(attrs, "request_id", reqID)
	}

	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// InfoContext logs at info level with context.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).logger.Info(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// ErrorContext logs at error level with context.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).logger.Error(msg, args...)
}

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestID extracts the request ID from context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// Configure builds a logger from configuration and installs it as the
// slog default.
func Configure(cfg config.AppConfig, opts ...Option) *Logger {
	l := NewLogger(cfg, opts...)
	slog.SetDefault(l.logger)
	return l
}
