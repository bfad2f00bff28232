package auth

import (
	"encoding/json"
	"time"
)

// IdentityStatus tags the variant held by an Identity.
type IdentityStatus string

const (
	// StatusLoading is the transient state before the startup resolution settles.
	StatusLoading IdentityStatus = "loading"
	// StatusUnauthenticated means no usable credential exists.
	StatusUnauthenticated IdentityStatus = "unauthenticated"
	// StatusAuthenticated means Claims holds a decoded, unexpired credential.
	StatusAuthenticated IdentityStatus = "authenticated"
)

// Identity is the application visible view of the session. Claims is set
// if and only if Status is StatusAuthenticated.
type Identity struct {
	Status     IdentityStatus
	Claims     *Claims
	credential string
}

// Loading returns the identity held before the first resolution.
func Loading() Identity {
	return Identity{Status: StatusLoading}
}

// Unauthenticated returns the signed out identity.
func Unauthenticated() Identity {
	return Identity{Status: StatusUnauthenticated}
}

// Authenticated returns an identity for claims decoded from credential.
func Authenticated(claims *Claims, credential string) Identity {
	if claims == nil {
		return Unauthenticated()
	}
	return Identity{
		Status:     StatusAuthenticated,
		Claims:     claims,
		credential: credential,
	}
}

// IsLoading reports the transient startup state.
func (i Identity) IsLoading() bool {
	return i.Status == StatusLoading || i.Status == ""
}

// IsResolved reports whether the startup resolution has settled.
func (i Identity) IsResolved() bool {
	return !i.IsLoading()
}

// IsAuthenticated reports an identity backed by valid claims.
func (i Identity) IsAuthenticated() bool {
	return i.Status == StatusAuthenticated && i.Claims != nil
}

// IsArtist reports the artist role. It is never true without authentication.
func (i Identity) IsArtist() bool {
	return i.IsAuthenticated() && i.Claims.IsArtist
}

// IsOwner reports whether the authenticated subject owns a resource.
func (i Identity) IsOwner(ownerID string) bool {
	if !i.IsAuthenticated() || ownerID == "" {
		return false
	}
	return i.Claims.UserID() == ownerID
}

// UserID returns the subject or an empty string.
func (i Identity) UserID() string {
	if !i.IsAuthenticated() {
		return ""
	}
	return i.Claims.UserID()
}

// Credential returns the bearer credential backing an authenticated identity.
func (i Identity) Credential() (string, bool) {
	if !i.IsAuthenticated() || i.credential == "" {
		return "", false
	}
	return i.credential, true
}

func (i Identity) String() string {
	if i.IsAuthenticated() {
		return string(i.Status) + " user=" + i.Claims.UserID()
	}
	if i.IsLoading() {
		return string(StatusLoading)
	}
	return string(i.Status)
}

type identitySnapshot struct {
	Status    IdentityStatus `json:"status"`
	UserID    string         `json:"user_id,omitempty"`
	IsArtist  bool           `json:"is_artist"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// MarshalJSON renders the identity without the credential.
func (i Identity) MarshalJSON() ([]byte, error) {
	snap := identitySnapshot{Status: i.Status}
	if i.IsLoading() {
		snap.Status = StatusLoading
	}
	if i.IsAuthenticated() {
		exp := i.Claims.ExpiresAt
		snap.UserID = i.Claims.UserID()
		snap.IsArtist = i.Claims.IsArtist
		snap.ExpiresAt = &exp
	}
	return json.Marshal(snap)
}
