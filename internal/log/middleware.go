package log

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
	// RequestIDContextKey is the context key for the request id
	RequestIDContextKey ContextKey = "request_id"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestIDFromContext returns the request id set by RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// RequestIDMiddleware reuses an incoming X-Request-ID or generates a UUID,
// and attaches it to the response and the request logger.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := FromContext(r.Context()).With(FieldRequestID, requestID)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		ctx = context.WithValue(ctx, LoggerContextKey, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// FromRequest returns a StructuredLogger bound to the request's logger.
func FromRequest(r *http.Request) *StructuredLogger {
	return NewStructuredLogger(FromContext(r.Context()))
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogExpenseAdded logs a successful add
func (sl *StructuredLogger) LogExpenseAdded(ctx context.Context, date, category, amount string) {
	fields := NewFields().
		WithExpense(0, date, category, amount).
		WithOperation(OpAdd).
		WithComponent(ComponentForm)

	sl.logger.Logger.InfoContext(ctx, "Expense added", fields.ToSlice()...)
}

// LogExpenseDeleted logs a successful delete
func (sl *StructuredLogger) LogExpenseDeleted(ctx context.Context, id int64) {
	fields := NewFields().
		WithOperation(OpDelete).
		WithComponent(ComponentForm)
	fields[FieldExpenseID] = id

	sl.logger.Logger.InfoContext(ctx, "Expense deleted", fields.ToSlice()...)
}

// LogFormRejected logs an action refused by the form
func (sl *StructuredLogger) LogFormRejected(ctx context.Context, operation, kind string, err error) {
	fields := NewFields().
		WithError(err).
		WithOperation(operation).
		WithComponent(ComponentForm)
	fields[FieldErrorKind] = kind

	sl.logger.Logger.WarnContext(ctx, "Form action rejected", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
