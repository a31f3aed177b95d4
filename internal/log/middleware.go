package log

import (
	"context"
	"log/slog"
	"net/http"

	"pelotero/internal/core"
)

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request-scoped logger, or the process default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default()}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPEnd logs the completion of an HTTP request at a level chosen by
// its status code.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogBookingCreated logs successful booking creation
func (sl *StructuredLogger) LogBookingCreated(ctx context.Context, b core.Booking) {
	fields := NewFields().
		WithBooking(b).
		WithOperation(OpCreate).
		WithComponent(ComponentBooking)

	sl.logger.InfoContext(ctx, "Booking created successfully", fields.ToSlice()...)
}

// LogMovementCreated logs successful movement creation
func (sl *StructuredLogger) LogMovementCreated(ctx context.Context, m core.Movement) {
	fields := NewFields().
		WithMovement(m).
		WithOperation(OpCreate).
		WithComponent(ComponentMovement)

	sl.logger.InfoContext(ctx, "Movement created successfully", fields.ToSlice()...)
}
