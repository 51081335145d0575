package middleware

import (
	"context"

	"go.uber.org/zap"
)

// ContextKeyRequestID is the echo context key holding the request id.
const ContextKeyRequestID = "request_id"

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying rid.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey{}).(string)
	return rid
}

// Logger returns the global logger tagged with the request id from ctx.
func Logger(ctx context.Context) *zap.Logger {
	l := zap.L()
	if rid := RequestIDFrom(ctx); rid != "" {
		l = l.With(zap.String("request_id", rid))
	}
	return l
}
