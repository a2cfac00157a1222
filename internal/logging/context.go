package logging

import "context"

type requestIDKey struct{}

// RequestIDAttr is the attribute name both backends use for the request id.
const RequestIDAttr = "request_id"

// WithRequestID returns a context whose log lines carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withContextArgs appends the request id carried by ctx, if any.
func withContextArgs(ctx context.Context, args []any) []any {
	if id := RequestID(ctx); id != "" {
		return append(args, RequestIDAttr, id)
	}
	return args
}
