package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialStore persists the single bearer credential of a session.
// Implementations perform no validation: they only keep bytes.
type CredentialStore interface {
	// Save overwrites any stored credential.
	Save(ctx context.Context, credential string) error
	// Load returns the stored credential, found is false when nothing is stored.
	Load(ctx context.Context) (credential string, found bool, err error)
	// Clear removes the stored credential. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// ClaimsDecoder turns a bearer credential into claims without a network call.
type ClaimsDecoder interface {
	Decode(credential string) (*Claims, error)
}

// AuthAPI is the remote auth endpoint consumed by the SessionService.
type AuthAPI interface {
	Register(ctx context.Context, profile RegistrationProfile) (*RegistrationAck, error)
	Login(ctx context.Context, creds LoginCredentials) (*LoginResponse, error)
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetLoginPath() string
	GetRegisterPath() string
	GetRequestTimeout() time.Duration
	GetOrigin() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Print("[ERR] AUTH " + newline(formatLog(format, args...)))
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Print("[WRN] AUTH " + newline(formatLog(format, args...)))
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Print("[INF] AUTH " + newline(formatLog(format, args...)))
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Print("[DBG] AUTH " + newline(formatLog(format, args...)))
}

// formatLog accepts both printf style calls and a message followed by
// key/value pairs.
func formatLog(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	if strings.Contains(format, "%") {
		return fmt.Sprintf(format, args...)
	}

	var b strings.Builder
	b.WriteString(format)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return b.String()
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// NopLogger discards every message.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
