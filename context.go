package prepwise

import (
	"context"

	"github.com/MrEthical07/prepwise/identity"
)

type requestIDContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. It is recorded on
// audit events and used by the credential verifier's sign-in throttle.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return identity.WithClientIP(ctx, ip)
}

// WithRequestID attaches a request id that audit events carry in their metadata.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return identity.ClientIPFromContext(ctx)
}
