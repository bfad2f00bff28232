package guard_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/gallery-collective/go-gallery-auth/middleware/guard"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	identity auth.Identity
}

func (s staticSource) Current() auth.Identity { return s.identity }

// loadingSource stays Loading until resolve is called.
type loadingSource struct {
	mu       sync.RWMutex
	identity auth.Identity
	ready    chan struct{}
	once     sync.Once
}

func newLoadingSource() *loadingSource {
	return &loadingSource{identity: auth.Loading(), ready: make(chan struct{})}
}

func (s *loadingSource) Current() auth.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *loadingSource) Wait(ctx context.Context) (auth.Identity, error) {
	select {
	case <-s.ready:
		return s.Current(), nil
	case <-ctx.Done():
		return s.Current(), ctx.Err()
	}
}

func (s *loadingSource) resolve(identity auth.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	s.once.Do(func() { close(s.ready) })
}

func member(id string) auth.Identity {
	return auth.Authenticated(&auth.Claims{
		Subject:   auth.SubjectID(id),
		ExpiresAt: time.Now().Add(time.Hour),
	}, "credential")
}

func artist(id string) auth.Identity {
	return auth.Authenticated(&auth.Claims{
		Subject:   auth.SubjectID(id),
		IsArtist:  true,
		ExpiresAt: time.Now().Add(time.Hour),
	}, "credential")
}

func okHandler(c *fiber.Ctx) error {
	identity := guard.IdentityFrom(c)
	return c.SendString("ok:" + identity.UserID())
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestRequireAuthenticated(t *testing.T) {
	tests := []struct {
		name       string
		identity   auth.Identity
		wantStatus int
		wantCode   string
	}{
		{name: "authenticated", identity: member("7"), wantStatus: http.StatusOK},
		{name: "unauthenticated", identity: auth.Unauthenticated(), wantStatus: http.StatusUnauthorized, wantCode: guard.TextCodeAuthenticationRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/me", guard.RequireAuthenticated(guard.Config{Source: staticSource{tt.identity}}), okHandler)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantCode != "" {
				body := decodeBody(t, resp)
				assert.Equal(t, tt.wantCode, body["text_code"])
			}
		})
	}
}

func TestRequireAuthenticated_Redirect(t *testing.T) {
	app := fiber.New()
	app.Get("/me", guard.RequireAuthenticated(guard.Config{
		Source:     staticSource{auth.Unauthenticated()},
		RedirectTo: "/login",
	}), okHandler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRequireArtist(t *testing.T) {
	tests := []struct {
		name       string
		identity   auth.Identity
		wantStatus int
	}{
		{name: "artist", identity: artist("7"), wantStatus: http.StatusOK},
		{name: "member", identity: member("7"), wantStatus: http.StatusForbidden},
		{name: "anonymous", identity: auth.Unauthenticated(), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/artworks", guard.RequireArtist(guard.Config{Source: staticSource{tt.identity}}), okHandler)

			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/artworks", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRequireOwner(t *testing.T) {
	owners := map[string]string{"1": "7", "2": "8"}
	ownerFn := func(c *fiber.Ctx) (string, error) {
		owner, ok := owners[c.Params("id")]
		if !ok {
			return "", fiber.ErrNotFound
		}
		return owner, nil
	}

	app := fiber.New()
	app.Put("/artworks/:id",
		guard.RequireArtist(guard.Config{Source: staticSource{artist("7")}}),
		guard.RequireOwner(guard.Config{Source: staticSource{artist("7")}}, ownerFn),
		okHandler,
	)

	resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/artworks/1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPut, "/artworks/2", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, guard.TextCodeOwnerRequired, decodeBody(t, resp)["text_code"])
}

func TestRequireOwner_OwnerFuncError(t *testing.T) {
	var handled error
	app := fiber.New()
	app.Delete("/artworks/:id", guard.RequireOwner(guard.Config{
		Source: staticSource{artist("7")},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			handled = err
			return c.SendStatus(http.StatusNotFound)
		},
	}, func(*fiber.Ctx) (string, error) {
		return "", errors.New("lookup failed")
	}), okHandler)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/artworks/9", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Error(t, handled)
	assert.Equal(t, "lookup failed", handled.Error())
}

func TestRequireResolved_WaitsForLoading(t *testing.T) {
	source := newLoadingSource()

	app := fiber.New()
	app.Get("/me", guard.RequireAuthenticated(guard.Config{Source: source, WaitTimeout: 2 * time.Second}), okHandler)

	go func() {
		time.Sleep(50 * time.Millisecond)
		source.resolve(member("42"))
	}()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil), 3000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok:42", string(raw))
}

func TestRequireResolved_LoadingTimeout(t *testing.T) {
	source := newLoadingSource()

	app := fiber.New()
	app.Get("/", guard.RequireResolved(guard.Config{Source: source, WaitTimeout: 20 * time.Millisecond}), okHandler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, guard.TextCodeIdentityLoading, decodeBody(t, resp)["text_code"])
}

func TestRequireResolved_SourceWithoutWait(t *testing.T) {
	app := fiber.New()
	app.Get("/", guard.RequireResolved(guard.Config{Source: staticSource{auth.Loading()}}), okHandler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGuard_ExposesIdentity(t *testing.T) {
	app := fiber.New()
	app.Get("/", guard.RequireResolved(guard.Config{Source: staticSource{artist("5")}}), func(c *fiber.Ctx) error {
		fromCtx, ok := auth.IdentityFromContext(c.UserContext())
		assert.True(t, ok)

		helpers, ok := c.Locals("auth").(map[string]any)
		assert.True(t, ok)

		return c.JSON(fiber.Map{
			"user_id":   fromCtx.UserID(),
			"is_artist": helpers["is_artist"],
		})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, "5", body["user_id"])
	assert.Equal(t, true, body["is_artist"])
}

func TestGuard_Filter(t *testing.T) {
	app := fiber.New()
	app.Get("/health", guard.RequireAuthenticated(guard.Config{
		Source: staticSource{auth.Unauthenticated()},
		Filter: func(c *fiber.Ctx) bool { return c.Path() == "/health" },
	}), okHandler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetDefaultConfig_RequiresSource(t *testing.T) {
	assert.Panics(t, func() { guard.GetDefaultConfig(guard.Config{}) })
}

func TestRequireOwner_FiberErrorStatus(t *testing.T) {
	app := fiber.New()
	app.Put("/artworks/:id", guard.RequireOwner(guard.Config{Source: staticSource{artist("7")}}, func(*fiber.Ctx) (string, error) {
		return "", fiber.ErrNotFound
	}), okHandler)

	resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/artworks/404", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
