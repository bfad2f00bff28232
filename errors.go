package auth

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeRegistrationInvalid = "REGISTRATION_INVALID"
	TextCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	TextCodeNetworkError        = "NETWORK_ERROR"
	TextCodeCredentialMalformed = "CREDENTIAL_MALFORMED"
	TextCodeCredentialExpired   = "CREDENTIAL_EXPIRED"
	TextCodeCredentialStore     = "CREDENTIAL_STORE_ERROR"
	TextCodeLoginSuperseded     = "LOGIN_SUPERSEDED"
)

// ErrRegistrationInvalid is the base for registration field errors.
var ErrRegistrationInvalid = goerrors.New("registration data is invalid", goerrors.CategoryValidation).
	WithTextCode(TextCodeRegistrationInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials is returned when the remote endpoint rejects an email/password pair.
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrNetwork covers transport failures and unexpected responses from the remote API.
var ErrNetwork = goerrors.New("unable to reach the gallery API", goerrors.CategoryOperation).
	WithTextCode(TextCodeNetworkError).
	WithCode(http.StatusBadGateway)

// ErrMalformedCredential is returned when a credential payload can not be decoded.
var ErrMalformedCredential = goerrors.New("credential is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeCredentialMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrExpiredCredential is returned when a credential expiry is at or before now.
var ErrExpiredCredential = goerrors.New("credential is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeCredentialExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrCredentialStore wraps persistence failures of a CredentialStore.
var ErrCredentialStore = goerrors.New("credential store failure", goerrors.CategoryInternal).
	WithTextCode(TextCodeCredentialStore).
	WithCode(goerrors.CodeInternal)

// ErrLoginSuperseded is returned by a login whose result was overtaken by a
// newer login or logout before its credential was stored.
var ErrLoginSuperseded = goerrors.New("login was superseded by a newer session change", goerrors.CategoryOperation).
	WithTextCode(TextCodeLoginSuperseded).
	WithCode(http.StatusConflict)

// ValidationError carries field keyed messages for a rejected registration.
// Field keys use the wire names (email, password_confirmation, ...).
type ValidationError struct {
	Fields map[string][]string
	rich   *goerrors.Error
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrRegistrationInvalid.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the rich error so goerrors.As finds category and text code.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.rich
}

func newValidationError(fields map[string][]string) *ValidationError {
	rich := cloneRich(ErrRegistrationInvalid, nil)
	if len(fields) > 0 {
		rich.WithMetadata(map[string]any{"fields": fields})
	}
	return &ValidationError{Fields: fields, rich: rich}
}

func newInvalidCredentialsError(detail string) error {
	rich := cloneRich(ErrInvalidCredentials, nil)
	if detail != "" {
		rich.WithMetadata(map[string]any{"detail": detail})
	}
	return rich
}

func newNetworkError(operation string, status int, cause error) error {
	rich := cloneRich(ErrNetwork, cause)
	meta := map[string]any{"operation": operation}
	if status != 0 {
		meta["status"] = status
	}
	if cause != nil {
		meta["error"] = cause.Error()
	}
	return rich.WithMetadata(meta)
}

func newMalformedCredentialError(reason string, cause error) error {
	rich := cloneRich(ErrMalformedCredential, cause)
	if reason != "" {
		rich.WithMetadata(map[string]any{"reason": reason})
	}
	return rich
}

func newExpiredCredentialError(subject string) error {
	rich := cloneRich(ErrExpiredCredential, nil)
	return rich.WithMetadata(map[string]any{"subject": subject})
}

func newStoreError(operation string, cause error) error {
	rich := cloneRich(ErrCredentialStore, cause)
	return rich.WithMetadata(map[string]any{"operation": operation})
}

func newLoginSupersededError(userID string) error {
	rich := cloneRich(ErrLoginSuperseded, nil)
	return rich.WithMetadata(map[string]any{"user_id": userID})
}

// WrapStoreError lets CredentialStore backends outside this package report
// failures with the shared text code.
func WrapStoreError(operation string, cause error) error {
	if cause == nil {
		return nil
	}
	return newStoreError(operation, cause)
}

// WrapNetworkError reports a failed call to any gallery API endpoint with
// the shared network text code.
func WrapNetworkError(operation string, status int, cause error) error {
	return newNetworkError(operation, status, cause)
}

func cloneRich(base *goerrors.Error, cause error) *goerrors.Error {
	clone := base.Clone()
	if clone == nil {
		clone = goerrors.New(base.Message, base.Category).
			WithTextCode(base.TextCode).
			WithCode(base.Code)
	}
	if cause != nil {
		clone.Source = cause
	}
	return clone
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsValidationError reports a registration rejected for field level reasons.
func IsValidationError(err error) bool {
	return hasTextCode(err, TextCodeRegistrationInvalid)
}

// AsValidationError extracts the field messages of a registration failure.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) && verr != nil {
		return verr, true
	}
	return nil, false
}

// IsInvalidCredentials reports a rejected login.
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsNetworkError reports a transport level failure talking to the API.
func IsNetworkError(err error) bool {
	return hasTextCode(err, TextCodeNetworkError)
}

// IsMalformedCredential reports a credential that can not be decoded.
func IsMalformedCredential(err error) bool {
	return hasTextCode(err, TextCodeCredentialMalformed)
}

// IsExpiredCredential reports a credential past its expiry.
func IsExpiredCredential(err error) bool {
	return hasTextCode(err, TextCodeCredentialExpired)
}

// IsInvalidCredential reports any decode failure, malformed or expired.
func IsInvalidCredential(err error) bool {
	return IsMalformedCredential(err) || IsExpiredCredential(err)
}

// IsStoreError reports a CredentialStore failure.
func IsStoreError(err error) bool {
	return hasTextCode(err, TextCodeCredentialStore)
}

// IsLoginSuperseded reports whether a login lost to a newer transition.
func IsLoginSuperseded(err error) bool {
	return hasTextCode(err, TextCodeLoginSuperseded)
}

// ErrorPayload maps err to an HTTP status and a JSON body of the form
// {"error", "text_code", "fields"}. Errors without a rich code are 500.
func ErrorPayload(err error) (int, map[string]any) {
	status := http.StatusInternalServerError
	body := map[string]any{"error": http.StatusText(status)}
	if err == nil {
		return status, body
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		if richErr.Code > 0 {
			status = richErr.Code
		}
		body["error"] = richErr.Message
		if richErr.TextCode != "" {
			body["text_code"] = richErr.TextCode
		}
		if detail, ok := richErr.Metadata["detail"].(string); ok && detail != "" {
			body["detail"] = detail
		}
	}

	if verr, ok := AsValidationError(err); ok {
		body["error"] = verr.Error()
		body["fields"] = verr.Fields
	}

	return status, body
}
