package auth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// RegistrationProfile is the payload posted to the register endpoint.
type RegistrationProfile struct {
	Email                string `json:"email" form:"email"`
	Username             string `json:"username" form:"username"`
	Password             string `json:"password" form:"password"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
	FirstName            string `json:"first_name" form:"first_name"`
	LastName             string `json:"last_name" form:"last_name"`
	IsArtist             bool   `json:"is_artist" form:"is_artist"`
}

// Validate runs the checks that do not need the server. Errors are keyed
// by the wire field names.
func (p RegistrationProfile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&p.Username, validation.Required, validation.Length(1, 150)),
		validation.Field(&p.Password, validation.Required),
		validation.Field(
			&p.PasswordConfirmation,
			validation.Required,
			validation.By(ValidateStringEquals(p.Password)),
		),
		validation.Field(&p.FirstName, validation.Required, validation.Length(1, 150)),
		validation.Field(&p.LastName, validation.Required, validation.Length(1, 150)),
	)
}

// ValidateStringEquals builds a rule asserting the value equals str.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("passwords do not match")
		}
		return nil
	}
}

// RegistrationAck is the server acknowledgment of a registration. It does
// not imply an active session.
type RegistrationAck struct {
	ID       SubjectID      `json:"id,omitempty"`
	Username string         `json:"username,omitempty"`
	Email    string         `json:"email,omitempty"`
	Raw      map[string]any `json:"-"`
}

// LoginCredentials identifies an account by email or username.
type LoginCredentials struct {
	Identifier string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
}

// Validate checks both fields are present.
func (c LoginCredentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Identifier, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

// LoginResponse is the login payload. Only Token is trusted: any role or
// id the server echoes next to it is ignored in favor of the decoded claims.
type LoginResponse struct {
	Token string         `json:"token"`
	Raw   map[string]any `json:"-"`
}

// fieldErrors converts ozzo validation errors into wire keyed messages.
func fieldErrors(err error) map[string][]string {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		out := make(map[string][]string, len(verrs))
		for field, ferr := range verrs {
			if ferr == nil {
				continue
			}
			out[field] = append(out[field], ferr.Error())
		}
		return out
	}

	return map[string][]string{"non_field_errors": {strings.TrimSpace(err.Error())}}
}
