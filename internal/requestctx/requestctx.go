// Package requestctx carries the per-request correlation ID through the
// context so middleware, handlers and log lines all report the same value.
package requestctx

import "context"

type contextKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// GetRequestID returns the stored ID, or "" outside a request scope.
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(contextKey{}).(string)
	return requestID
}
