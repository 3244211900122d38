package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyStagedRef contextKey = "staged_ref"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithStagedRef tags the context with the staged document being processed
func WithStagedRef(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, ContextKeyStagedRef, ref)
}

// StagedRefFromContext extracts the staged document ref from context
func StagedRefFromContext(ctx context.Context) string {
	if ref, ok := ctx.Value(ContextKeyStagedRef).(string); ok {
		return ref
	}
	return ""
}

// LoggerFrom decorates logger with the request-scoped ids carried by ctx.
func LoggerFrom(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logger = logger.With("req_id", id)
	}
	if ref := StagedRefFromContext(ctx); ref != "" {
		logger = logger.With("staged_ref", ref)
	}
	return logger
}
