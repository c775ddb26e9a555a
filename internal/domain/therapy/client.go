package therapy

import "context"

type clientKey struct{}

// AnonymousClient is used when no authenticated client is attached to the context.
const AnonymousClient = "anonymous"

// WithClient attaches the authenticated client id to ctx.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFrom returns the client id stored by WithClient, or AnonymousClient.
func ClientFrom(ctx context.Context) string {
	if c, ok := ctx.Value(clientKey{}).(string); ok && c != "" {
		return c
	}
	return AnonymousClient
}
