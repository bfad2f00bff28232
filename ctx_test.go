package auth_test

import (
	"context"
	"testing"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromContext(t *testing.T) {
	identity := auth.Authenticated(claimsFor("42", true), "credential")
	ctx := auth.WithIdentity(context.Background(), identity)

	got, ok := auth.IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, identity, got)

	claims, ok := auth.ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "42", claims.UserID())
}

func TestIdentityFromContext_Missing(t *testing.T) {
	got, ok := auth.IdentityFromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, auth.StatusUnauthenticated, got.Status)

	//nolint:staticcheck
	got, ok = auth.IdentityFromContext(nil)
	assert.False(t, ok)
	assert.Equal(t, auth.StatusUnauthenticated, got.Status)

	_, ok = auth.ClaimsFromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsFromContext_Unauthenticated(t *testing.T) {
	ctx := auth.WithIdentity(context.Background(), auth.Unauthenticated())
	_, ok := auth.ClaimsFromContext(ctx)
	assert.False(t, ok)
}
