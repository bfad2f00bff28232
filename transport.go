package auth

import (
	"net/http"
)

// IdentitySource provides the current identity snapshot.
type IdentitySource interface {
	Current() Identity
}

var _ IdentitySource = (*IdentityContext)(nil)

// BearerTransport attaches the session credential to outgoing requests. The
// header is only set while the identity is Authenticated, so an expired or
// signed out session never leaks a stale credential.
type BearerTransport struct {
	Source IdentitySource
	Base   http.RoundTripper
}

// NewBearerClient returns an http.Client authenticating with source.
func NewBearerClient(source IdentitySource, base *http.Client) *http.Client {
	client := &http.Client{}
	if base != nil {
		*client = *base
	}
	client.Transport = &BearerTransport{Source: source, Base: client.Transport}
	return client
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if t.Source == nil {
		return base.RoundTrip(req)
	}

	credential, ok := t.Source.Current().Credential()
	if !ok {
		return base.RoundTrip(req)
	}

	// RoundTrippers must not mutate the caller's request
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+credential)
	return base.RoundTrip(clone)
}
