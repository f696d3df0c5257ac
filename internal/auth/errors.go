package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fragmede/corebalance/internal/identity"
)

// Kind classifies controller errors.
type Kind string

const (
	// KindValidation is a local precondition failure. The provider is never contacted.
	KindValidation Kind = "validation"
	// KindProviderAuth is a provider rejection mapped from a known status code.
	KindProviderAuth Kind = "provider_auth"
	// KindIntegrity means the provider reported success without a session.
	KindIntegrity Kind = "integrity"
	// KindTransport covers network failures and unmapped statuses.
	KindTransport Kind = "transport"
)

// User-facing messages.
const (
	MsgFillAllFields      = "Please fill in all fields"
	MsgInvalidEmail       = "Please enter a valid email address"
	MsgPasswordTooShort   = "Password must be at least 6 characters"
	MsgInvalidCredentials = "Invalid email or password"
	MsgTooManyAttempts    = "Too many attempts. Please try again later."
	MsgSignInFailed       = "Failed to sign in. Please try again."
	MsgNoSession          = "No session created. Please try again."
	MsgAlreadyRegistered  = "This email is already registered"
	MsgInvalidSignup      = "Invalid signup details"
	MsgSignUpFailed       = "Failed to create account. Please try again."
	MsgSignUpNoSession    = "Account created but session not established. Please log in."
	MsgSignOutFailed      = "Failed to sign out. Please try again."
)

// Error carries a display-ready message. Error() returns only the message so
// screens can show it as is; the provider failure stays reachable via Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// KindOf returns the kind of a controller error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func providerStatus(err error) (int, string) {
	var pe *identity.ProviderError
	if errors.As(err, &pe) {
		return pe.Status, pe.Message
	}
	return 0, ""
}

func mapSignInError(err error) *Error {
	status, _ := providerStatus(err)
	switch status {
	case http.StatusBadRequest:
		return newError(KindProviderAuth, MsgInvalidCredentials, err)
	case http.StatusTooManyRequests:
		return newError(KindProviderAuth, MsgTooManyAttempts, err)
	default:
		return newError(KindTransport, MsgSignInFailed, err)
	}
}

func mapSignUpError(err error) *Error {
	status, msg := providerStatus(err)
	switch status {
	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(msg), "already registered") {
			return newError(KindProviderAuth, MsgAlreadyRegistered, err)
		}
		return newError(KindProviderAuth, MsgInvalidSignup, err)
	case http.StatusUnprocessableEntity:
		return newError(KindProviderAuth, MsgPasswordTooShort, err)
	default:
		return newError(KindTransport, MsgSignUpFailed, err)
	}
}
