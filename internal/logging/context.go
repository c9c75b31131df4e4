package logging

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// WithRequestID stores id in ctx. An empty id is replaced by a new UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequestIDField is the log key of the request id.
const RequestIDField = "request_id"

func contextArgs(ctx context.Context, args []any) []any {
	id := RequestID(ctx)
	if id == "" {
		return args
	}
	return append([]any{RequestIDField, id}, args...)
}
