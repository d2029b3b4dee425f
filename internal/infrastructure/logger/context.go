package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	userIDKey
)

// FromContext returns the request-scoped logger, or a no-op logger
// when the context carries none.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRequestID attaches the request ID to the context and returns the
// context together with a logger that stamps it on every entry.
func WithRequestID(ctx context.Context, l *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	scoped := l.With(zap.String("request_id", requestID))
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return context.WithValue(ctx, loggerKey, scoped), scoped
}

// WithUserID attaches the authenticated user ID the same way
func WithUserID(ctx context.Context, l *zap.Logger, userID string) (context.Context, *zap.Logger) {
	scoped := l.With(zap.String("user_id", userID))
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, loggerKey, scoped), scoped
}

// GetRequestID returns the request ID carried by the context, if any
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
