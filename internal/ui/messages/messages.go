package messages

import "github.com/fragmede/corebalance/internal/auth"

// View transition messages.
type (
	OpenLoginMsg  struct{}
	OpenSignupMsg struct{}
)

// Data messages.
type (
	// StateChangedMsg carries a controller state snapshot into the program.
	StateChangedMsg struct {
		State auth.State
	}

	SignInResultMsg struct {
		Err error
	}

	SignUpResultMsg struct {
		Err error
	}

	SignOutResultMsg struct {
		Err error
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
