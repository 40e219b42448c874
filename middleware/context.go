package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Context key type to avoid collisions
type contextKey string

// LoggerKey is the context key for the request-scoped logger
const LoggerKey contextKey = "logger"

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// WithLogger adds a request-scoped logger to the context
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetLoggerFromContext retrieves the request-scoped logger, or fallback when none is set
func GetLoggerFromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if val := ctx.Value(LoggerKey); val != nil {
		if logger, ok := val.(*zap.Logger); ok {
			return logger
		}
	}
	return fallback
}
