package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DecoderFunc adapts a function into a ClaimsDecoder.
type DecoderFunc func(credential string) (*Claims, error)

// Decode satisfies the ClaimsDecoder interface.
func (f DecoderFunc) Decode(credential string) (*Claims, error) {
	if f == nil {
		return nil, newMalformedCredentialError("decoder is nil", nil)
	}
	return f(credential)
}

// JWTClaimsDecoder reads the payload of a JWT bearer credential locally.
// The signature is not verified: the client holds no key and the API
// re-validates every request it receives.
type JWTClaimsDecoder struct {
	parser *jwt.Parser
	now    func() time.Time
}

// DecoderOption customizes a JWTClaimsDecoder.
type DecoderOption func(*JWTClaimsDecoder)

// WithDecoderClock injects the clock used for expiry checks.
func WithDecoderClock(clock func() time.Time) DecoderOption {
	return func(d *JWTClaimsDecoder) {
		if clock != nil {
			d.now = clock
		}
	}
}

// NewJWTClaimsDecoder returns a decoder using wall clock time.
func NewJWTClaimsDecoder(opts ...DecoderOption) *JWTClaimsDecoder {
	d := &JWTClaimsDecoder{
		parser: jwt.NewParser(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

var _ ClaimsDecoder = (*JWTClaimsDecoder)(nil)

// Decode returns the claims of a well formed, unexpired credential.
// Malformed payloads fail with ErrMalformedCredential, an expiry at or
// before now fails with ErrExpiredCredential.
func (d *JWTClaimsDecoder) Decode(credential string) (*Claims, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, newMalformedCredentialError("credential is empty", nil)
	}

	payload := &credentialPayload{}
	if _, _, err := d.parser.ParseUnverified(credential, payload); err != nil {
		return nil, newMalformedCredentialError("payload is not a valid token", err)
	}

	subject := payload.subject()
	if subject == "" {
		return nil, newMalformedCredentialError("subject claim is missing", nil)
	}

	isArtist, ok := payload.artist()
	if !ok {
		return nil, newMalformedCredentialError("is_artist claim is not a boolean", nil)
	}

	if payload.ExpiresAt == nil {
		return nil, newMalformedCredentialError("exp claim is missing", nil)
	}

	claims := &Claims{
		Subject:   subject,
		IsArtist:  isArtist,
		ExpiresAt: payload.ExpiresAt.Time,
		TokenID:   payload.ID,
		TokenType: payload.TokenType,
	}
	if payload.IssuedAt != nil {
		claims.IssuedAt = payload.IssuedAt.Time
	}

	if claims.Expired(d.now()) {
		return nil, newExpiredCredentialError(subject.String())
	}

	return claims, nil
}
