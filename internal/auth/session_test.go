package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/corebalance/internal/identity"
)

type fakeProvider struct {
	mu sync.Mutex

	lookupFn   func(ctx context.Context) (*identity.Session, error)
	signInFn   func(ctx context.Context, email, password string) (*identity.Session, *identity.User, error)
	registerFn func(ctx context.Context, email, password string, p identity.Profile) (*identity.Session, *identity.User, error)
	signOutFn  func(ctx context.Context) error

	calls int
}

var _ identity.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProvider) LookupSession(ctx context.Context) (*identity.Session, error) {
	f.count()
	if f.lookupFn != nil {
		return f.lookupFn(ctx)
	}
	return nil, nil
}

func (f *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, *identity.User, error) {
	f.count()
	if f.signInFn != nil {
		return f.signInFn(ctx, email, password)
	}
	return nil, nil, nil
}

func (f *fakeProvider) RegisterAccount(ctx context.Context, email, password string, p identity.Profile) (*identity.Session, *identity.User, error) {
	f.count()
	if f.registerFn != nil {
		return f.registerFn(ctx, email, password, p)
	}
	return nil, nil, nil
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.count()
	if f.signOutFn != nil {
		return f.signOutFn(ctx)
	}
	return nil
}

type recordedOp struct {
	op, outcome string
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (r *fakeRecorder) ObserveAuthOperation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	r.ops = append(r.ops, recordedOp{op, outcome})
	r.mu.Unlock()
}

var testUser = &identity.User{ID: "u-1", Email: "a@b.com", Name: "Ada"}

func liveSession() *identity.Session {
	return &identity.Session{AccessToken: "at", RefreshToken: "rt", User: testUser}
}

func TestNewController_StartsSignedOut(t *testing.T) {
	c := NewController(&fakeProvider{})
	assert.Equal(t, State{}, c.State())
}

func TestSignIn_ValidationSkipsProvider(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"empty email", "", "x", MsgFillAllFields},
		{"empty password", "x", "", MsgFillAllFields},
		{"missing at sign", "not-an-email", "secret", MsgInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{}
			c := NewController(p)

			err := c.SignIn(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Equal(t, tt.want, err.Error())
			assert.Zero(t, p.Calls())
			assert.False(t, c.State().IsLoading)
		})
	}
}

func TestSignIn_NormalizesEmail(t *testing.T) {
	var gotEmail, gotPassword string
	p := &fakeProvider{
		signInFn: func(_ context.Context, email, password string) (*identity.Session, *identity.User, error) {
			gotEmail, gotPassword = email, password
			return liveSession(), testUser, nil
		},
	}
	c := NewController(p)

	require.NoError(t, c.SignIn(context.Background(), "  Ada@Example.COM ", " pw "))
	assert.Equal(t, "ada@example.com", gotEmail)
	assert.Equal(t, " pw ", gotPassword)
}

func TestSignIn_Success(t *testing.T) {
	p := &fakeProvider{
		signInFn: func(context.Context, string, string) (*identity.Session, *identity.User, error) {
			return liveSession(), testUser, nil
		},
	}
	c := NewController(p)

	require.NoError(t, c.SignIn(context.Background(), "a@b.com", "secret"))
	assert.Equal(t, State{IsAuthenticated: true, User: testUser}, c.State())
}

func TestSignIn_ProviderErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    Kind
		wantMsg string
	}{
		{"bad request", &identity.ProviderError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}, KindProviderAuth, MsgInvalidCredentials},
		{"rate limited", &identity.ProviderError{Status: http.StatusTooManyRequests}, KindProviderAuth, MsgTooManyAttempts},
		{"server error", &identity.ProviderError{Status: http.StatusInternalServerError}, KindTransport, MsgSignInFailed},
		{"transport", &identity.ProviderError{Cause: errors.New("dial tcp: refused")}, KindTransport, MsgSignInFailed},
		{"unknown error", errors.New("boom"), KindTransport, MsgSignInFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{
				signInFn: func(context.Context, string, string) (*identity.Session, *identity.User, error) {
					return nil, nil, tt.err
				},
			}
			c := NewController(p)

			err := c.SignIn(context.Background(), "a@b.com", "secret")
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, State{}, c.State())
		})
	}
}

func TestSignIn_NoSessionIsIntegrityError(t *testing.T) {
	p := &fakeProvider{
		signInFn: func(context.Context, string, string) (*identity.Session, *identity.User, error) {
			return nil, testUser, nil
		},
	}
	c := NewController(p)

	err := c.SignIn(context.Background(), "a@b.com", "secret")
	require.Error(t, err)
	assert.Equal(t, KindIntegrity, KindOf(err))
	assert.Equal(t, MsgNoSession, err.Error())
	assert.False(t, c.State().IsAuthenticated)
}

func TestSignIn_LoadingOnlyWhileInFlight(t *testing.T) {
	var c *Controller
	var loadingDuringCall bool
	p := &fakeProvider{
		signInFn: func(context.Context, string, string) (*identity.Session, *identity.User, error) {
			loadingDuringCall = c.State().IsLoading
			return liveSession(), testUser, nil
		},
	}
	c = NewController(p)

	var seen []State
	c.Subscribe(func(s State) { seen = append(seen, s) })

	require.NoError(t, c.SignIn(context.Background(), "a@b.com", "secret"))
	assert.True(t, loadingDuringCall)
	require.NotEmpty(t, seen)
	assert.True(t, seen[0].IsLoading)
	assert.False(t, seen[len(seen)-1].IsLoading)
	assert.True(t, seen[len(seen)-1].IsAuthenticated)
}

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name                  string
		email, password, user string
		want                  string
	}{
		{"empty name", "a@b.com", "123456", "", MsgFillAllFields},
		{"empty email", "", "123456", "Name", MsgFillAllFields},
		{"missing at sign", "ab.com", "123456", "Name", MsgInvalidEmail},
		{"short password", "a@b.com", "12345", "Name", MsgPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{}
			c := NewController(p)

			err := c.SignUp(context.Background(), tt.email, tt.password, tt.user)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Equal(t, tt.want, err.Error())
			assert.Zero(t, p.Calls())
			assert.False(t, c.State().IsLoading)
		})
	}
}

func TestSignUp_Success(t *testing.T) {
	var got identity.Profile
	var gotEmail string
	p := &fakeProvider{
		registerFn: func(_ context.Context, email, _ string, profile identity.Profile) (*identity.Session, *identity.User, error) {
			gotEmail, got = email, profile
			return liveSession(), testUser, nil
		},
	}
	c := NewController(p)

	require.NoError(t, c.SignUp(context.Background(), " A@B.com", "123456", "  Ada  "))
	assert.Equal(t, "a@b.com", gotEmail)
	assert.Equal(t, "Ada", got.FullName)
	assert.Nil(t, got.AvatarURL)
	assert.Equal(t, State{IsAuthenticated: true, User: testUser}, c.State())
}

func TestSignUp_ProviderErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    Kind
		wantMsg string
	}{
		{"already registered", &identity.ProviderError{Status: http.StatusBadRequest, Message: "User already registered"}, KindProviderAuth, MsgAlreadyRegistered},
		{"other bad request", &identity.ProviderError{Status: http.StatusBadRequest, Message: "Unable to validate email address"}, KindProviderAuth, MsgInvalidSignup},
		{"weak password", &identity.ProviderError{Status: http.StatusUnprocessableEntity}, KindProviderAuth, MsgPasswordTooShort},
		{"server error", &identity.ProviderError{Status: http.StatusBadGateway}, KindTransport, MsgSignUpFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{
				registerFn: func(context.Context, string, string, identity.Profile) (*identity.Session, *identity.User, error) {
					return nil, nil, tt.err
				},
			}
			c := NewController(p)

			err := c.SignUp(context.Background(), "a@b.com", "123456", "Ada")
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, State{}, c.State())
		})
	}
}

func TestSignUp_NoSession(t *testing.T) {
	p := &fakeProvider{
		registerFn: func(context.Context, string, string, identity.Profile) (*identity.Session, *identity.User, error) {
			return nil, testUser, nil
		},
	}
	c := NewController(p)

	err := c.SignUp(context.Background(), "a@b.com", "123456", "Ada")
	require.Error(t, err)
	assert.Equal(t, KindIntegrity, KindOf(err))
	assert.Equal(t, MsgSignUpNoSession, err.Error())
	assert.Equal(t, State{}, c.State())
}

func TestCheckSession(t *testing.T) {
	t.Run("live session", func(t *testing.T) {
		c := NewController(&fakeProvider{
			lookupFn: func(context.Context) (*identity.Session, error) { return liveSession(), nil },
		})
		c.CheckSession(context.Background())
		assert.Equal(t, State{IsAuthenticated: true, User: testUser}, c.State())
	})

	t.Run("no session", func(t *testing.T) {
		c := NewController(&fakeProvider{
			signInFn: func(context.Context, string, string) (*identity.Session, *identity.User, error) {
				return liveSession(), testUser, nil
			},
		})
		require.NoError(t, c.SignIn(context.Background(), "a@b.com", "secret"))

		c.CheckSession(context.Background())
		assert.Equal(t, State{}, c.State())
	})

	t.Run("provider error fails open", func(t *testing.T) {
		rec := &fakeRecorder{}
		c := NewController(&fakeProvider{
			lookupFn: func(context.Context) (*identity.Session, error) {
				return nil, &identity.ProviderError{Cause: errors.New("network down")}
			},
		}, WithRecorder(rec))

		assert.NotPanics(t, func() { c.CheckSession(context.Background()) })
		assert.Equal(t, State{}, c.State())
		assert.Equal(t, []recordedOp{{"check_session", "error"}}, rec.ops)
	})
}

func TestSignOut(t *testing.T) {
	signedIn := func(p *fakeProvider) *Controller {
		p.signInFn = func(context.Context, string, string) (*identity.Session, *identity.User, error) {
			return liveSession(), testUser, nil
		}
		c := NewController(p)
		require.NoError(t, c.SignIn(context.Background(), "a@b.com", "secret"))
		return c
	}

	t.Run("success", func(t *testing.T) {
		c := signedIn(&fakeProvider{})
		require.NoError(t, c.SignOut(context.Background()))
		assert.Equal(t, State{}, c.State())
	})

	t.Run("failure keeps state", func(t *testing.T) {
		cause := &identity.ProviderError{Status: http.StatusInternalServerError}
		c := signedIn(&fakeProvider{signOutFn: func(context.Context) error { return cause }})

		err := c.SignOut(context.Background())
		require.Error(t, err)
		assert.Equal(t, MsgSignOutFailed, err.Error())
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, State{IsAuthenticated: true, User: testUser}, c.State())
	})
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	c := NewController(&fakeProvider{})

	var n int
	unsubscribe := c.Subscribe(func(State) { n++ })
	c.CheckSession(context.Background())
	assert.Equal(t, 1, n)

	unsubscribe()
	c.CheckSession(context.Background())
	assert.Equal(t, 1, n)
}

func TestRecorder_Outcomes(t *testing.T) {
	rec := &fakeRecorder{}
	c := NewController(&fakeProvider{
		signInFn: func(context.Context, string, string) (*identity.Session, *identity.User, error) {
			return liveSession(), testUser, nil
		},
	}, WithRecorder(rec))

	_ = c.SignIn(context.Background(), "", "")
	_ = c.SignIn(context.Background(), "a@b.com", "secret")
	_ = c.SignOut(context.Background())

	assert.Equal(t, []recordedOp{
		{"sign_in", "validation"},
		{"sign_in", "ok"},
		{"sign_out", "ok"},
	}, rec.ops)
}
