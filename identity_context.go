package auth

import (
	"context"
	"sync"
	"time"
)

// SessionManager is the subset of SessionService the IdentityContext drives.
type SessionManager interface {
	Register(ctx context.Context, profile RegistrationProfile) (*RegistrationAck, error)
	LoginWithCommit(ctx context.Context, creds LoginCredentials, commit LoginCommit) (*Claims, error)
	Logout(ctx context.Context) error
	CurrentIdentity(ctx context.Context) Identity
}

var _ SessionManager = (*SessionService)(nil)

// IdentityListener is notified after every identity transition.
type IdentityListener func(Identity)

// IdentityContext owns the single in-memory Identity of the process. It
// starts Loading, resolves once through Load and then only changes on
// Login and Logout. Guards and transports read from it, never from storage.
type IdentityContext struct {
	service SessionManager

	// transitionMu orders generation bumps against store writes so the
	// store never holds a credential the identity has discarded.
	transitionMu sync.Mutex

	mu         sync.RWMutex
	identity   Identity
	generation uint64

	loadOnce  sync.Once
	readyOnce sync.Once
	ready     chan struct{}

	listenersMu  sync.Mutex
	listeners    []identityListener
	nextListener int

	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

type identityListener struct {
	id int
	fn IdentityListener
}

// IdentityContextOption customizes an IdentityContext.
type IdentityContextOption func(*IdentityContext)

// WithIdentityLogger sets the logger.
func WithIdentityLogger(logger Logger) IdentityContextOption {
	return func(c *IdentityContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIdentityActivitySink sets the ActivitySink used for resolution events.
func WithIdentityActivitySink(sink ActivitySink) IdentityContextOption {
	return func(c *IdentityContext) {
		c.activitySink = normalizeActivitySink(sink)
	}
}

// WithIdentityClock injects a custom clock (useful for tests).
func WithIdentityClock(clock func() time.Time) IdentityContextOption {
	return func(c *IdentityContext) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewIdentityContext returns a context in the Loading state. Call Load to
// resolve the startup identity.
func NewIdentityContext(service SessionManager, opts ...IdentityContextOption) *IdentityContext {
	c := &IdentityContext{
		service:      service,
		identity:     Loading(),
		ready:        make(chan struct{}),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Load resolves the startup identity once. Later calls return the current
// identity without touching the service again.
func (c *IdentityContext) Load(ctx context.Context) Identity {
	c.loadOnce.Do(func() {
		c.mu.RLock()
		gen := c.generation
		c.mu.RUnlock()

		resolved := c.service.CurrentIdentity(ctx)

		if !c.adoptStartup(gen, resolved) {
			c.logger.Debug("startup identity superseded by a newer transition")
			return
		}

		c.logger.Info("identity resolved", "status", resolved.Status, "user_id", resolved.UserID())
		recordActivity(ctx, c.activitySink, c.logger, c.now, ActivityEvent{
			EventType: ActivityEventIdentityResolved,
			UserID:    resolved.UserID(),
			Metadata:  map[string]any{"status": string(resolved.Status)},
		})
	})
	return c.Current()
}

// Current returns the identity snapshot, which may still be Loading.
func (c *IdentityContext) Current() Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// Ready is closed once the identity has left the Loading state.
func (c *IdentityContext) Ready() <-chan struct{} {
	return c.ready
}

// Wait blocks until the identity is resolved or ctx is done.
func (c *IdentityContext) Wait(ctx context.Context) (Identity, error) {
	select {
	case <-c.ready:
		return c.Current(), nil
	case <-ctx.Done():
		return c.Current(), ctx.Err()
	}
}

// Login delegates to the session service. On success the identity becomes
// Authenticated with the stored credential; on failure it is left unchanged.
// A login overtaken by a newer Login or Logout before its credential was
// stored returns an ErrLoginSuperseded error and stores nothing.
func (c *IdentityContext) Login(ctx context.Context, creds LoginCredentials) (*Claims, error) {
	gen := c.nextGeneration()

	committed := false
	commit := func(identity Identity, save func() error) error {
		c.transitionMu.Lock()
		defer c.transitionMu.Unlock()

		if !c.isGeneration(gen) {
			return newLoginSupersededError(identity.UserID())
		}
		if err := save(); err != nil {
			return err
		}
		c.set(identity)
		committed = true
		return nil
	}

	claims, err := c.service.LoginWithCommit(ctx, creds, commit)
	if IsLoginSuperseded(err) {
		c.logger.Warn("discarding superseded login result", "error", err)
		recordActivity(ctx, c.activitySink, c.logger, c.now, ActivityEvent{
			EventType: ActivityEventIdentityDiscarded,
			Metadata:  map[string]any{"identifier": creds.Identifier},
		})
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if committed {
		c.settle()
	}
	return claims, nil
}

// Logout clears the session. The identity becomes Unauthenticated even if
// the store reports an error, which is returned to the caller. Logins still
// in flight are superseded.
func (c *IdentityContext) Logout(ctx context.Context) error {
	c.transitionMu.Lock()
	c.bumpGeneration()
	err := c.service.Logout(ctx)
	c.set(Unauthenticated())
	c.transitionMu.Unlock()

	c.settle()
	return err
}

// Register delegates to the session service. The identity never changes.
func (c *IdentityContext) Register(ctx context.Context, profile RegistrationProfile) (*RegistrationAck, error) {
	return c.service.Register(ctx, profile)
}

// Subscribe registers fn for transitions. The returned func unsubscribes.
func (c *IdentityContext) Subscribe(fn IdentityListener) func() {
	if fn == nil {
		return func() {}
	}

	c.listenersMu.Lock()
	c.nextListener++
	id := c.nextListener
	c.listeners = append(c.listeners, identityListener{id: id, fn: fn})
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *IdentityContext) nextGeneration() uint64 {
	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()
	return c.bumpGeneration()
}

func (c *IdentityContext) bumpGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

func (c *IdentityContext) isGeneration(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation == gen
}

func (c *IdentityContext) set(identity Identity) {
	c.mu.Lock()
	c.identity = identity
	c.mu.Unlock()
}

// settle releases Wait callers and notifies listeners with the latest
// snapshot. It runs outside transitionMu so a listener may start a new
// transition.
func (c *IdentityContext) settle() {
	c.readyOnce.Do(func() { close(c.ready) })
	c.notify(c.Current())
}

// adoptStartup sets the startup resolution unless a newer transition has
// already settled. A login still in flight, or one that failed, must not
// leave the identity stuck in Loading.
func (c *IdentityContext) adoptStartup(gen uint64, identity Identity) bool {
	c.transitionMu.Lock()
	c.mu.Lock()
	if c.generation != gen && !c.identity.IsLoading() {
		c.mu.Unlock()
		c.transitionMu.Unlock()
		return false
	}
	c.identity = identity
	c.mu.Unlock()
	c.transitionMu.Unlock()

	c.settle()
	return true
}

func (c *IdentityContext) notify(identity Identity) {
	c.listenersMu.Lock()
	listeners := make([]identityListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.listenersMu.Unlock()

	for _, l := range listeners {
		l.fn(identity)
	}
}
