package guard

import (
	"context"
	"errors"
	"net/http"
	"time"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	TextCodeArtistRequired         = "ARTIST_REQUIRED"
	TextCodeOwnerRequired          = "OWNER_REQUIRED"
	TextCodeIdentityLoading        = "IDENTITY_LOADING"
)

var ErrAuthenticationRequired = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeAuthenticationRequired).
	WithCode(goerrors.CodeUnauthorized)

var ErrArtistRequired = goerrors.New("only artists can perform this action", goerrors.CategoryAuthz).
	WithTextCode(TextCodeArtistRequired).
	WithCode(goerrors.CodeForbidden)

var ErrOwnerRequired = goerrors.New("only the owner can perform this action", goerrors.CategoryAuthz).
	WithTextCode(TextCodeOwnerRequired).
	WithCode(goerrors.CodeForbidden)

// ErrIdentityLoading is returned when the identity did not resolve within
// the wait timeout.
var ErrIdentityLoading = goerrors.New("identity is still loading", goerrors.CategoryOperation).
	WithTextCode(TextCodeIdentityLoading).
	WithCode(http.StatusServiceUnavailable)

// Waiter is implemented by identity sources that can block until the
// startup identity is resolved.
type Waiter interface {
	Wait(ctx context.Context) (auth.Identity, error)
}

// Check decides whether identity may continue. A nil error lets the
// request through.
type Check func(c *fiber.Ctx, identity auth.Identity) error

// OwnerFunc resolves the owner id of the resource addressed by the request.
type OwnerFunc func(c *fiber.Ctx) (string, error)

type Config struct {
	// Source provides the identity. Required.
	Source auth.IdentitySource
	// Filter skips the guard when it returns true.
	Filter       func(*fiber.Ctx) bool
	ErrorHandler fiber.ErrorHandler
	// RedirectTo sends unauthenticated requests to a login route instead
	// of answering 401.
	RedirectTo string
	// WaitTimeout bounds how long a request waits for a Loading identity.
	WaitTimeout time.Duration
	ContextKey  string
	TemplateKey string
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Source == nil {
		panic("GUARD: middleware configuration: Source is required.")
	}

	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 5 * time.Second
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "identity"
	}

	if cfg.TemplateKey == "" {
		cfg.TemplateKey = "auth"
	}

	if cfg.ErrorHandler == nil {
		redirect := cfg.RedirectTo
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if redirect != "" && isUnauthenticated(err) {
				return c.Redirect(redirect, fiber.StatusSeeOther)
			}
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
			}
			status, body := auth.ErrorPayload(err)
			return c.Status(status).JSON(body)
		}
	}

	return cfg
}

// New returns a handler that waits for the identity to resolve, runs
// checks in order and exposes the identity to later handlers.
func New(config Config, checks ...Check) fiber.Handler {
	cfg := GetDefaultConfig(config)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		identity, err := resolve(c, cfg)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check(c, identity); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		c.Locals(cfg.ContextKey, identity)
		c.Locals(cfg.TemplateKey, auth.TemplateHelpers(identity))
		c.SetUserContext(auth.WithIdentity(c.UserContext(), identity))

		return c.Next()
	}
}

// RequireResolved only waits for the identity to leave Loading.
func RequireResolved(cfg Config) fiber.Handler {
	return New(cfg)
}

// RequireAuthenticated rejects requests without an authenticated identity.
func RequireAuthenticated(cfg Config) fiber.Handler {
	return New(cfg, Authenticated)
}

// RequireArtist rejects requests unless the identity is an artist.
func RequireArtist(cfg Config) fiber.Handler {
	return New(cfg, Authenticated, Artist)
}

// RequireOwner rejects requests unless the identity owns the resource
// returned by ownerFn.
func RequireOwner(cfg Config, ownerFn OwnerFunc) fiber.Handler {
	return New(cfg, Authenticated, Owner(ownerFn))
}

// Authenticated is the Check behind RequireAuthenticated.
func Authenticated(_ *fiber.Ctx, identity auth.Identity) error {
	if !auth.IsAuthenticated(identity) {
		return ErrAuthenticationRequired.Clone()
	}
	return nil
}

// Artist is the Check behind RequireArtist.
func Artist(_ *fiber.Ctx, identity auth.Identity) error {
	if !auth.IsArtist(identity) {
		return ErrArtistRequired.Clone()
	}
	return nil
}

// Owner builds the Check behind RequireOwner. Errors from ownerFn are
// passed to the error handler unchanged.
func Owner(ownerFn OwnerFunc) Check {
	return func(c *fiber.Ctx, identity auth.Identity) error {
		if ownerFn == nil {
			return ErrOwnerRequired.Clone()
		}
		ownerID, err := ownerFn(c)
		if err != nil {
			return err
		}
		if !auth.IsOwner(identity, ownerID) {
			return ErrOwnerRequired.Clone()
		}
		return nil
	}
}

// IdentityFrom returns the identity stored by a guard earlier in the chain.
func IdentityFrom(c *fiber.Ctx, contextKey ...string) auth.Identity {
	key := "identity"
	if len(contextKey) > 0 && contextKey[0] != "" {
		key = contextKey[0]
	}
	if identity, ok := c.Locals(key).(auth.Identity); ok {
		return identity
	}
	return auth.Unauthenticated()
}

func resolve(c *fiber.Ctx, cfg Config) (auth.Identity, error) {
	identity := cfg.Source.Current()
	if !identity.IsLoading() {
		return identity, nil
	}

	waiter, ok := cfg.Source.(Waiter)
	if !ok {
		return identity, ErrIdentityLoading.Clone()
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), cfg.WaitTimeout)
	defer cancel()

	if _, err := waiter.Wait(ctx); err != nil {
		return identity, ErrIdentityLoading.Clone()
	}

	// decisions use the snapshot taken after waiting
	identity = cfg.Source.Current()
	if identity.IsLoading() {
		return identity, ErrIdentityLoading.Clone()
	}
	return identity, nil
}

func isUnauthenticated(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeAuthenticationRequired
}
