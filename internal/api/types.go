package api

import (
	"strings"
	"time"

	"github.com/fragmede/corebalance/internal/identity"
)

// userResponse is a GoTrue user object.
type userResponse struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	CreatedAt    time.Time    `json:"created_at"`
	UserMetadata userMetadata `json:"user_metadata"`
}

type userMetadata struct {
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

func (u *userResponse) toUser() *identity.User {
	if u == nil || u.ID == "" {
		return nil
	}
	user := &identity.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.UserMetadata.FullName,
		CreatedAt: u.CreatedAt,
	}
	if u.UserMetadata.AvatarURL != nil {
		user.AvatarURL = *u.UserMetadata.AvatarURL
	}
	return user
}

// tokenResponse is returned by the token endpoint and, when a session is
// issued immediately, by signup. Signup without a session returns a bare user
// object, which lands in the embedded fields.
type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	RefreshToken string        `json:"refresh_token"`
	User         *userResponse `json:"user"`

	userResponse
}

func (t *tokenResponse) toSession(now time.Time) *identity.Session {
	if t.AccessToken == "" {
		return nil
	}
	s := &identity.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		User:         t.User.toUser(),
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return s
}

// user returns the user carried by the response, nested or bare.
func (t *tokenResponse) user() *identity.User {
	if u := t.User.toUser(); u != nil {
		return u
	}
	return t.userResponse.toUser()
}

type passwordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Data     userMetadata `json:"data"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// errorResponse covers the error bodies GoTrue has used across versions.
type errorResponse struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
