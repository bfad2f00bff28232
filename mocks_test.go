package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// mintCredential signs claims with a throwaway key. The decoder never
// checks the signature.
func mintCredential(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("server-side-secret"))
	require.NoError(t, err)
	return signed
}

func credentialFor(t *testing.T, userID any, artist bool, exp time.Time) string {
	t.Helper()
	return mintCredential(t, jwt.MapClaims{
		"user_id":   userID,
		"is_artist": artist,
		"exp":       exp.Unix(),
		"iat":       exp.Add(-time.Hour).Unix(),
	})
}

// MockAuthAPI implements auth.AuthAPI
type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Register(ctx context.Context, profile auth.RegistrationProfile) (*auth.RegistrationAck, error) {
	args := m.Called(ctx, profile)
	ack, _ := args.Get(0).(*auth.RegistrationAck)
	return ack, args.Error(1)
}

func (m *MockAuthAPI) Login(ctx context.Context, creds auth.LoginCredentials) (*auth.LoginResponse, error) {
	args := m.Called(ctx, creds)
	resp, _ := args.Get(0).(*auth.LoginResponse)
	return resp, args.Error(1)
}

// spyStore wraps a MemoryStore and counts writes.
type spyStore struct {
	*auth.MemoryStore
	mu      sync.Mutex
	saves   int
	clears  int
	loadErr error
	saveErr error
	clrErr  error
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryStore: auth.NewMemoryStore()}
}

func (s *spyStore) Save(ctx context.Context, credential string) error {
	s.mu.Lock()
	s.saves++
	err := s.saveErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Save(ctx, credential)
}

func (s *spyStore) Load(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	err := s.loadErr
	s.mu.Unlock()
	if err != nil {
		return "", false, err
	}
	return s.MemoryStore.Load(ctx)
}

func (s *spyStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.clears++
	err := s.clrErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Clear(ctx)
}

func (s *spyStore) writes() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves, s.clears
}

func (s *spyStore) stored(t *testing.T) (string, bool) {
	t.Helper()
	credential, found, err := s.MemoryStore.Load(context.Background())
	require.NoError(t, err)
	return credential, found
}

// recordingSink keeps every activity event.
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
	err    error
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingSink) types() []auth.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

var errBoom = errors.New("boom")
