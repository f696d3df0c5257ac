package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fragmede/corebalance/internal/identity"
)

const minPasswordLen = 6

// State is a snapshot of the authentication state.
type State struct {
	IsAuthenticated bool
	User            *identity.User
	IsLoading       bool
}

// Recorder receives one observation per controller operation.
type Recorder interface {
	ObserveAuthOperation(op, outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAuthOperation(string, string, time.Duration) {}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for operation failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.rec = r }
}

// Controller owns the authentication state of the process and mediates
// between the UI and the identity provider.
//
// Operations are not serialized: overlapping calls race and the last writer
// wins. Callers disable their inputs while IsLoading is set.
type Controller struct {
	provider identity.Provider
	log      *slog.Logger
	rec      Recorder

	mu        sync.RWMutex
	state     State
	observers map[int]func(State)
	nextID    int
}

// NewController creates a controller in the unauthenticated, not-loading state.
func NewController(provider identity.Provider, opts ...Option) *Controller {
	c := &Controller{
		provider:  provider,
		log:       slog.Default(),
		rec:       nopRecorder{},
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscribe registers fn to be called after every state change. The returned
// function removes the observer.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	s := c.state
	observers := make([]func(State), 0, len(c.observers))
	for _, o := range c.observers {
		observers = append(observers, o)
	}
	c.mu.Unlock()

	for _, o := range observers {
		o(s)
	}
}

func (c *Controller) setLoading(v bool) {
	c.update(func(s *State) { s.IsLoading = v })
}

func (c *Controller) setAuthenticated(user *identity.User) {
	c.update(func(s *State) {
		s.IsAuthenticated = user != nil
		s.User = user
	})
}

// CheckSession asks the provider for a live session and adopts it. Provider
// failures are logged and leave the controller signed out.
func (c *Controller) CheckSession(ctx context.Context) {
	start := time.Now()
	session, err := c.provider.LookupSession(ctx)
	if err != nil {
		c.log.Error("session check error", "error", err)
		c.setAuthenticated(nil)
		c.rec.ObserveAuthOperation("check_session", "error", time.Since(start))
		return
	}

	var user *identity.User
	if session != nil {
		user = session.User
	}
	c.setAuthenticated(user)
	outcome := "anonymous"
	if user != nil {
		outcome = "authenticated"
	}
	c.rec.ObserveAuthOperation("check_session", outcome, time.Since(start))
}

// SignIn authenticates with email and password.
func (c *Controller) SignIn(ctx context.Context, email, password string) (err error) {
	c.setLoading(true)
	defer c.finish("sign_in", time.Now(), &err)

	if email == "" || password == "" {
		return newError(KindValidation, MsgFillAllFields, nil)
	}
	if !strings.Contains(email, "@") {
		return newError(KindValidation, MsgInvalidEmail, nil)
	}

	session, user, perr := c.provider.SignInWithPassword(ctx, normalizeEmail(email), password)
	if perr != nil {
		return mapSignInError(perr)
	}
	if session == nil {
		return newError(KindIntegrity, MsgNoSession, nil)
	}

	c.setAuthenticated(sessionUser(session, user))
	return nil
}

// SignUp registers a new account and signs it in.
func (c *Controller) SignUp(ctx context.Context, email, password, name string) (err error) {
	c.setLoading(true)
	defer c.finish("sign_up", time.Now(), &err)

	if email == "" || password == "" || name == "" {
		return newError(KindValidation, MsgFillAllFields, nil)
	}
	if !strings.Contains(email, "@") {
		return newError(KindValidation, MsgInvalidEmail, nil)
	}
	if len(password) < minPasswordLen {
		return newError(KindValidation, MsgPasswordTooShort, nil)
	}

	profile := identity.Profile{FullName: strings.TrimSpace(name)}
	session, user, perr := c.provider.RegisterAccount(ctx, normalizeEmail(email), password, profile)
	if perr != nil {
		return mapSignUpError(perr)
	}
	if session == nil {
		return newError(KindIntegrity, MsgSignUpNoSession, nil)
	}

	c.setAuthenticated(sessionUser(session, user))
	return nil
}

// SignOut ends the provider session. On failure the state is left untouched
// and the caller should treat the sign-out as unconfirmed.
func (c *Controller) SignOut(ctx context.Context) (err error) {
	c.setLoading(true)
	defer c.finish("sign_out", time.Now(), &err)

	if perr := c.provider.SignOut(ctx); perr != nil {
		return newError(KindTransport, MsgSignOutFailed, perr)
	}
	c.setAuthenticated(nil)
	return nil
}

// finish clears the loading flag and records the outcome of an operation.
func (c *Controller) finish(op string, start time.Time, errp *error) {
	outcome := "ok"
	if err := *errp; err != nil {
		outcome = string(KindOf(err))
		c.log.Error(strings.ReplaceAll(op, "_", " ")+" error", "error", err, "cause", causeOf(err))
	}
	c.setLoading(false)
	c.rec.ObserveAuthOperation(op, outcome, time.Since(start))
}

func causeOf(err error) string {
	if e, ok := err.(*Error); ok && e.Cause != nil {
		return e.Cause.Error()
	}
	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// sessionUser prefers the user attached to the session; some provider
// responses only return it alongside.
func sessionUser(session *identity.Session, user *identity.User) *identity.User {
	if session.User != nil {
		return session.User
	}
	if user != nil {
		return user
	}
	return &identity.User{}
}
