package auth_test

import (
	"encoding/json"
	"testing"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_Guards(t *testing.T) {
	artist := auth.Authenticated(claimsFor("42", true), "credential")
	member := auth.Authenticated(claimsFor("8", false), "credential")

	tests := []struct {
		name     string
		identity auth.Identity
		authed   bool
		artist   bool
		owns42   bool
	}{
		{name: "loading", identity: auth.Loading()},
		{name: "zero value", identity: auth.Identity{}},
		{name: "unauthenticated", identity: auth.Unauthenticated()},
		{name: "authenticated nil claims", identity: auth.Identity{Status: auth.StatusAuthenticated}},
		{name: "member", identity: member, authed: true},
		{name: "artist", identity: artist, authed: true, artist: true, owns42: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.authed, auth.IsAuthenticated(tt.identity))
			assert.Equal(t, tt.artist, auth.IsArtist(tt.identity))
			assert.Equal(t, tt.owns42, auth.IsOwner(tt.identity, "42"))
			assert.False(t, auth.IsOwner(tt.identity, ""))
		})
	}

	assert.True(t, auth.IsOwner(artist, "42"))
	assert.False(t, auth.IsOwner(artist, "7"), "subject 42 does not own 7")
	assert.True(t, artist.IsOwner("42"))
	assert.False(t, artist.IsOwner("7"))
}

func TestIdentity_AuthenticatedNilClaims(t *testing.T) {
	identity := auth.Authenticated(nil, "credential")
	assert.Equal(t, auth.StatusUnauthenticated, identity.Status)
	_, ok := identity.Credential()
	assert.False(t, ok)
}

func TestIdentity_IsResolved(t *testing.T) {
	assert.False(t, auth.Loading().IsResolved())
	assert.False(t, auth.Identity{}.IsResolved())
	assert.True(t, auth.Unauthenticated().IsResolved())
}

func TestCanEdit(t *testing.T) {
	artist := auth.Authenticated(claimsFor("42", true), "c")
	member := auth.Authenticated(claimsFor("42", false), "c")

	assert.True(t, auth.CanEdit(artist, ownedThing("42")))
	assert.False(t, auth.CanEdit(artist, ownedThing("7")))
	assert.False(t, auth.CanEdit(member, ownedThing("42")), "ownership without the artist role")
	assert.False(t, auth.CanEdit(artist, nil))
	assert.False(t, auth.CanEdit(auth.Unauthenticated(), ownedThing("")))
}

func TestIdentity_String(t *testing.T) {
	assert.Equal(t, "authenticated user=42", auth.Authenticated(claimsFor("42", true), "c").String())
	assert.Equal(t, "loading", auth.Identity{}.String())
	assert.Equal(t, "unauthenticated", auth.Unauthenticated().String())
}

func TestIdentity_MarshalJSONHidesCredential(t *testing.T) {
	identity := auth.Authenticated(claimsFor("42", true), "secret-credential")

	data, err := json.Marshal(identity)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-credential")

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "authenticated", out["status"])
	assert.Equal(t, "42", out["user_id"])
	assert.Equal(t, true, out["is_artist"])
	assert.Contains(t, out, "expires_at")

	data, err = json.Marshal(auth.Identity{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"loading","is_artist":false}`, string(data))
}
