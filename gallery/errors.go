package gallery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeBadRequest   = "GALLERY_BAD_REQUEST"
	TextCodeUnauthorized = "GALLERY_UNAUTHORIZED"
	TextCodeForbidden    = "GALLERY_FORBIDDEN"
	TextCodeNotFound     = "GALLERY_NOT_FOUND"
	TextCodeAPIError     = "GALLERY_API_ERROR"
	TextCodeInvalidInput = "GALLERY_INVALID_INPUT"
)

// ErrInvalidInput is returned before any request when a form fails local
// validation.
var ErrInvalidInput = goerrors.New("invalid input", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidInput).
	WithCode(goerrors.CodeBadRequest)

// newStatusError maps a non-2xx response to a rich error. The category is
// picked from the status, the message from the body when it carries one.
func newStatusError(method, path string, status int, body []byte) error {
	var (
		category goerrors.Category
		textCode string
	)

	switch status {
	case http.StatusBadRequest:
		category, textCode = goerrors.CategoryBadInput, TextCodeBadRequest
	case http.StatusUnauthorized:
		category, textCode = goerrors.CategoryAuth, TextCodeUnauthorized
	case http.StatusForbidden:
		category, textCode = goerrors.CategoryAuthz, TextCodeForbidden
	case http.StatusNotFound:
		category, textCode = goerrors.CategoryNotFound, TextCodeNotFound
	default:
		category, textCode = goerrors.CategoryInternal, TextCodeAPIError
	}

	meta := map[string]any{
		"method": method,
		"path":   path,
		"status": status,
	}
	if fields := bodyFields(body); len(fields) > 0 && status == http.StatusBadRequest {
		meta["fields"] = fields
	}

	return goerrors.New(bodyMessage(body, status), category).
		WithTextCode(textCode).
		WithCode(status).
		WithMetadata(meta)
}

func newInputError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, ErrInvalidInput.Message).
		WithTextCode(TextCodeInvalidInput).
		WithCode(goerrors.CodeBadRequest)
}

func bodyMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, msg := range []string{payload.Message, payload.Detail, payload.Error} {
			if msg != "" {
				return msg
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected response from the gallery API"
}

func bodyFields(body []byte) map[string]string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}

	fields := map[string]string{}
	for key, raw := range obj {
		switch v := raw.(type) {
		case string:
			fields[key] = v
		case []any:
			msgs := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					msgs = append(msgs, s)
				}
			}
			if len(msgs) > 0 {
				fields[key] = strings.Join(msgs, " ")
			}
		}
	}
	return fields
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsNotFound reports a 404 from the gallery API.
func IsNotFound(err error) bool {
	return hasTextCode(err, TextCodeNotFound)
}

// IsForbidden reports a 403 from the gallery API.
func IsForbidden(err error) bool {
	return hasTextCode(err, TextCodeForbidden)
}

// IsUnauthorized reports a 401 from the gallery API.
func IsUnauthorized(err error) bool {
	return hasTextCode(err, TextCodeUnauthorized)
}

// IsInvalidInput reports a form rejected before it was sent.
func IsInvalidInput(err error) bool {
	return hasTextCode(err, TextCodeInvalidInput)
}
