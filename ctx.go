package auth

import (
	"context"
)

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentity sets the Identity in the given context
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity stored with WithIdentity. A context
// without one yields Unauthenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Unauthenticated(), false
	}
	identity, ok := ctx.Value(identityCtxKey).(Identity)
	if !ok {
		return Unauthenticated(), false
	}
	return identity, true
}

// ClaimsFromContext returns the claims of an authenticated identity in ctx.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok || !identity.IsAuthenticated() {
		return nil, false
	}
	return identity.Claims, true
}
