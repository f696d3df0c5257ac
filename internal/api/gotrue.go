package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fragmede/corebalance/internal/identity"
)

// LookupSession restores the stored session, refreshing it if the access
// token has expired, and validates it against the user endpoint. A session
// the provider no longer accepts is cleared and reported as absent.
func (c *Client) LookupSession(ctx context.Context) (*identity.Session, error) {
	s, err := c.store.LoadSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stored session: %w", err)
	}
	if s == nil {
		return nil, nil
	}

	if c.expired(s) {
		s, err = c.refreshSession(ctx, s.RefreshToken)
		if err != nil {
			return c.dropIfStale(ctx, err, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden)
		}
	}

	var u userResponse
	if err := c.do(ctx, "user", http.MethodGet, "/user", nil, s.AccessToken, nil, &u); err != nil {
		return c.dropIfStale(ctx, err, http.StatusUnauthorized, http.StatusForbidden)
	}
	if user := u.toUser(); user != nil {
		s.User = user
		if err := c.store.SaveSession(ctx, s); err != nil {
			c.log.Warn("saving validated session", "error", err)
		}
	}
	if s.User == nil {
		return nil, fmt.Errorf("provider returned no user for a live session")
	}
	return s, nil
}

// SignInWithPassword exchanges credentials for a session and persists it.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, *identity.User, error) {
	var tr tokenResponse
	err := c.do(ctx, "token", http.MethodPost, "/token", url.Values{"grant_type": {"password"}}, "",
		passwordRequest{Email: email, Password: password}, &tr)
	if err != nil {
		return nil, nil, err
	}

	s := tr.toSession(c.clock.Now())
	if s != nil {
		if err := c.store.SaveSession(ctx, s); err != nil {
			return nil, nil, fmt.Errorf("persisting session: %w", err)
		}
	}
	return s, tr.user(), nil
}

// RegisterAccount creates an account. The session is nil when the provider
// does not issue one on signup.
func (c *Client) RegisterAccount(ctx context.Context, email, password string, profile identity.Profile) (*identity.Session, *identity.User, error) {
	req := signupRequest{
		Email:    email,
		Password: password,
		Data:     userMetadata{FullName: profile.FullName, AvatarURL: profile.AvatarURL},
	}
	var tr tokenResponse
	if err := c.do(ctx, "signup", http.MethodPost, "/signup", nil, "", req, &tr); err != nil {
		return nil, nil, err
	}

	s := tr.toSession(c.clock.Now())
	if s != nil {
		if err := c.store.SaveSession(ctx, s); err != nil {
			return nil, nil, fmt.Errorf("persisting session: %w", err)
		}
	}
	return s, tr.user(), nil
}

// SignOut revokes the stored session and clears it. A token the provider
// has already forgotten counts as signed out.
func (c *Client) SignOut(ctx context.Context) error {
	s, err := c.store.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("loading stored session: %w", err)
	}
	if s != nil && s.AccessToken != "" {
		err := c.do(ctx, "logout", http.MethodPost, "/logout", nil, s.AccessToken, nil, nil)
		if err != nil && !hasStatus(err, http.StatusUnauthorized, http.StatusNotFound) {
			return err
		}
	}
	return c.store.ClearSession(ctx)
}

// refreshSession trades a refresh token for a new session. Concurrent callers
// share one request, which runs detached from any single caller's
// cancellation; a cancelled caller stops waiting without failing the others.
func (c *Client) refreshSession(ctx context.Context, refreshToken string) (*identity.Session, error) {
	if refreshToken == "" {
		return nil, &identity.ProviderError{Status: http.StatusUnauthorized, Message: "no refresh token"}
	}

	shared := context.WithoutCancel(ctx)
	ch := c.refresh.DoChan(refreshToken, func() (any, error) {
		var tr tokenResponse
		err := c.do(shared, "refresh", http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}}, "",
			refreshRequest{RefreshToken: refreshToken}, &tr)
		if err != nil {
			return nil, err
		}
		s := tr.toSession(c.clock.Now())
		if s == nil {
			return nil, fmt.Errorf("refresh returned no session")
		}
		if err := c.store.SaveSession(shared, s); err != nil {
			return nil, fmt.Errorf("persisting session: %w", err)
		}
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, &identity.ProviderError{Message: "refresh", Cause: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers may mutate the session; hand each its own copy.
		s := *res.Val.(*identity.Session)
		return &s, nil
	}
}

func (c *Client) dropIfStale(ctx context.Context, err error, statuses ...int) (*identity.Session, error) {
	if !hasStatus(err, statuses...) {
		return nil, err
	}
	c.log.Info("stored session rejected by provider, clearing", "error", err)
	if cerr := c.store.ClearSession(ctx); cerr != nil {
		return nil, fmt.Errorf("clearing stale session: %w", cerr)
	}
	return nil, nil
}

// expired reports whether the access token is within the refresh margin of
// its expiry. The JWT exp claim wins over the stored expiry; a token with
// neither is assumed live and left to the user endpoint to judge.
func (c *Client) expired(s *identity.Session) bool {
	exp := s.ExpiresAt
	if t, ok := tokenExpiry(s.AccessToken); ok {
		exp = t
	}
	if exp.IsZero() {
		return s.AccessToken == ""
	}
	return !c.clock.Now().Add(c.margin).Before(exp)
}

// tokenExpiry reads the exp claim without verifying the signature; the
// provider verifies tokens, the client only schedules refreshes.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func hasStatus(err error, statuses ...int) bool {
	var pe *identity.ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	for _, s := range statuses {
		if pe.Status == s {
			return true
		}
	}
	return false
}
