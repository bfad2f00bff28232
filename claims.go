package auth

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SubjectID is the account identifier embedded in a credential. The API may
// encode it as a JSON string or a JSON integer; both normalize to the same
// decimal string.
type SubjectID string

// UnmarshalJSON accepts string and number encodings.
func (s *SubjectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = SubjectID(strings.TrimSpace(str))
		return nil
	}

	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&num); err != nil {
		return err
	}
	if i, err := num.Int64(); err == nil {
		*s = SubjectID(strconv.FormatInt(i, 10))
		return nil
	}
	if f, err := num.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*s = SubjectID(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*s = SubjectID(num.String())
	return nil
}

func (s SubjectID) String() string {
	return string(s)
}

// Claims is the identity decoded from a credential. It is never stored on
// its own, it is always derived from the credential again.
type Claims struct {
	Subject   SubjectID `json:"subject"`
	IsArtist  bool      `json:"is_artist"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	TokenID   string    `json:"token_id,omitempty"`
	TokenType string    `json:"token_type,omitempty"`
}

// UserID returns the subject as a string.
func (c *Claims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject.String()
}

// Expired reports whether the claims are no longer valid at now.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil {
		return true
	}
	return !c.ExpiresAt.After(now)
}

// TTL returns the remaining lifetime at now, zero once expired.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.Expired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// credentialPayload is the wire shape of the token payload. The user_id
// claim is what the gallery API issues, sub is accepted as a fallback.
type credentialPayload struct {
	jwt.RegisteredClaims
	UserID    *SubjectID      `json:"user_id,omitempty"`
	IsArtist  json.RawMessage `json:"is_artist,omitempty"`
	TokenType string          `json:"token_type,omitempty"`
}

func (p *credentialPayload) subject() SubjectID {
	if p.UserID != nil && *p.UserID != "" {
		return *p.UserID
	}
	return SubjectID(strings.TrimSpace(p.RegisteredClaims.Subject))
}

func (p *credentialPayload) artist() (bool, bool) {
	raw := bytes.TrimSpace(p.IsArtist)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, true
	}
	var flag bool
	if err := json.Unmarshal(raw, &flag); err != nil {
		return false, false
	}
	return flag, true
}
