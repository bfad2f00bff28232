package auth

import (
	"context"
	"time"
)

// SessionService runs register/login/logout against the remote API and
// composes the CredentialStore with the ClaimsDecoder.
type SessionService struct {
	api          AuthAPI
	store        CredentialStore
	decoder      ClaimsDecoder
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

// ServiceOption customizes a SessionService.
type ServiceOption func(*SessionService)

// WithServiceLogger sets the logger.
func WithServiceLogger(logger Logger) ServiceOption {
	return func(s *SessionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceDecoder overrides the default JWT decoder.
func WithServiceDecoder(decoder ClaimsDecoder) ServiceOption {
	return func(s *SessionService) {
		if decoder != nil {
			s.decoder = decoder
		}
	}
}

// WithServiceActivitySink configures an ActivitySink for session events.
func WithServiceActivitySink(sink ActivitySink) ServiceOption {
	return func(s *SessionService) {
		s.activitySink = normalizeActivitySink(sink)
	}
}

// WithServiceClock injects the clock used for activity timestamps.
func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(s *SessionService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewSessionService returns a SessionService. The decoder defaults to
// NewJWTClaimsDecoder.
func NewSessionService(api AuthAPI, store CredentialStore, opts ...ServiceOption) *SessionService {
	s := &SessionService{
		api:          api,
		store:        store,
		decoder:      NewJWTClaimsDecoder(),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register submits a profile. It never touches the stored credential: a
// successful registration does not start a session.
func (s *SessionService) Register(ctx context.Context, profile RegistrationProfile) (*RegistrationAck, error) {
	if err := profile.Validate(); err != nil {
		verr := newValidationError(fieldErrors(err))
		s.logger.Info("Register rejected locally", "error", verr.Error())
		s.emit(ctx, ActivityEventRegisterFailure, "", map[string]any{
			"username": profile.Username,
			"stage":    "local",
		})
		return nil, verr
	}

	ack, err := s.api.Register(ctx, profile)
	if err != nil {
		s.logger.Error("Register remote error", "error", err)
		s.emit(ctx, ActivityEventRegisterFailure, "", map[string]any{
			"username": profile.Username,
			"stage":    "remote",
			"error":    err.Error(),
		})
		return nil, err
	}

	s.emit(ctx, ActivityEventRegisterSuccess, ack.ID.String(), map[string]any{
		"username": profile.Username,
	})
	return ack, nil
}

// LoginCommit guards the store write of a login. It receives the identity
// the login would produce and must either call save and return its error,
// or return an error without saving to abandon the login.
type LoginCommit func(identity Identity, save func() error) error

// Login exchanges credentials for a bearer credential, stores it and
// returns the claims decoded from it.
func (s *SessionService) Login(ctx context.Context, creds LoginCredentials) (*Claims, error) {
	return s.LoginWithCommit(ctx, creds, nil)
}

// LoginWithCommit is Login with the store write routed through commit. A
// nil commit saves directly.
func (s *SessionService) LoginWithCommit(ctx context.Context, creds LoginCredentials, commit LoginCommit) (*Claims, error) {
	if err := creds.Validate(); err != nil {
		s.emit(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": creds.Identifier,
			"error":      err.Error(),
		})
		return nil, newInvalidCredentialsError(err.Error())
	}

	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		s.logger.Error("Login remote error", "error", err)
		s.emit(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": creds.Identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	// decode before saving so an unusable credential never reaches the store
	// and a previously stored one stays in place
	claims, err := s.decoder.Decode(resp.Token)
	if err != nil {
		s.logger.Error("Login received an unusable credential", "error", err)
		s.emit(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": creds.Identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	save := func() error {
		return s.store.Save(ctx, resp.Token)
	}
	if commit == nil {
		err = save()
	} else {
		err = commit(Authenticated(claims, resp.Token), save)
	}

	if IsLoginSuperseded(err) {
		s.logger.Info("Login superseded before the credential was stored", "user_id", claims.UserID())
		s.emit(ctx, ActivityEventLoginFailure, claims.UserID(), map[string]any{
			"identifier": creds.Identifier,
			"error":      err.Error(),
		})
		return nil, err
	}
	if err != nil {
		s.logger.Error("Login failed to save credential", "error", err)
		return nil, WrapStoreError("save", err)
	}

	s.emit(ctx, ActivityEventLoginSuccess, claims.UserID(), map[string]any{
		"identifier": creds.Identifier,
		"is_artist":  claims.IsArtist,
	})
	return claims, nil
}

// Logout clears the stored credential. No network call is made.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("Logout failed to clear store", "error", err)
		return WrapStoreError("clear", err)
	}
	s.emit(ctx, ActivityEventLogout, "", nil)
	return nil
}

// CurrentIdentity derives the identity from the stored credential. A
// malformed or expired credential is purged and yields Unauthenticated.
func (s *SessionService) CurrentIdentity(ctx context.Context) Identity {
	credential, found, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("CurrentIdentity failed to load credential", "error", err)
		return Unauthenticated()
	}
	if !found {
		return Unauthenticated()
	}

	claims, err := s.decoder.Decode(credential)
	if err != nil {
		s.purge(ctx, err)
		return Unauthenticated()
	}

	return Authenticated(claims, credential)
}

func (s *SessionService) purge(ctx context.Context, cause error) {
	reason := "malformed"
	if IsExpiredCredential(cause) {
		reason = "expired"
	}

	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("failed to purge invalid credential", "reason", reason, "error", err)
		return
	}

	s.logger.Info("purged invalid credential", "reason", reason)
	s.emit(ctx, ActivityEventCredentialPurged, "", map[string]any{"reason": reason})
}

func (s *SessionService) emit(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	recordActivity(ctx, s.activitySink, s.logger, s.now, ActivityEvent{
		EventType: eventType,
		UserID:    userID,
		Metadata:  metadata,
	})
}
