// Package logger is the process-wide slog logger. Lines written with a
// context carry the request id the transport layer stored in it.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

type requestIDKey struct{}

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	InitializeWithWriter(level, format, os.Stdout)
}

// InitializeWithWriter is Initialize with an explicit destination.
func InitializeWithWriter(level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// parseLevel falls back to info for anything it does not recognize.
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

func Get() *slog.Logger {
	if defaultLogger == nil {
		Initialize("info", "text")
	}
	return defaultLogger
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

// The *Context variants tag the line with the request id found in ctx.

func DebugContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).ErrorContext(ctx, msg, args...)
}

// ContextWithRequestID stores the request id used to correlate log lines.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext returns the default logger annotated with the request id in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return Get().With("request_id", id)
	}
	return Get()
}

// trace writes msg at debug level, or failMsg at error level when err is set.
func trace(msg, failMsg string, err error, attrs []any, args []any) {
	attrs = append(attrs, args...)
	if err != nil {
		Get().Error(failMsg, append(attrs, "error", err)...)
		return
	}
	Get().Debug(msg, attrs...)
}

// EnterMethod logs method entry (process tracking)
func EnterMethod(methodName string, args ...any) {
	trace("→ Method entered", "", nil, []any{"method", methodName, "event", "enter"}, args)
}

// ExitMethod logs method exit (process tracking)
func ExitMethod(methodName string, args ...any) {
	trace("← Method exited", "", nil, []any{"method", methodName, "event", "exit"}, args)
}

func ExitMethodWithError(methodName string, err error, args ...any) {
	trace("← Method exited", "← Method exited with error", err, []any{"method", methodName, "event", "exit"}, args)
}

// DatabaseCall and DatabaseResult bracket one statement against PostgreSQL.
func DatabaseCall(operation, query string, args ...any) {
	trace("→ Database call", "", nil, []any{"operation", operation, "query", query}, args)
}

func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	trace("← Database call succeeded", "← Database call failed", err, []any{"operation", operation, "rows_affected", rowsAffected}, args)
}

// ExternalServiceCall and ExternalServiceResult bracket SendGrid and Firebase
// deliveries.
func ExternalServiceCall(service, operation string, args ...any) {
	trace("→ External service call", "", nil, []any{"service", service, "operation", operation}, args)
}

func ExternalServiceResult(service, operation string, err error, args ...any) {
	trace("← External service call succeeded", "← External service call failed", err, []any{"service", service, "operation", operation}, args)
}
