package context

import (
	"context"
	"strings"
)

type ctxKey string

const ctxRequestID ctxKey = "request_id"

// WithRequestID stores a request id in the context for downstream
// logging and domain-event tracing.
func WithRequestID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestID reads the request id, returning "" when absent.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
