// Package requestctx carries the authenticated caller of a request.
package requestctx

import "context"

// playerIDContextKey is the context key for the authenticated player.
type playerIDContextKey struct{}

// WithPlayerID stores the authenticated player account in context.
func WithPlayerID(ctx context.Context, playerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, playerIDContextKey{}, playerID)
}

// PlayerIDFromContext returns the authenticated player stored in context.
func PlayerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(playerIDContextKey{}).(string)
	return value
}
