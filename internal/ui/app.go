package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/corebalance/internal/auth"
	"github.com/fragmede/corebalance/internal/ui/login"
	"github.com/fragmede/corebalance/internal/ui/messages"
	"github.com/fragmede/corebalance/internal/ui/profile"
	"github.com/fragmede/corebalance/internal/ui/signup"
	"github.com/fragmede/corebalance/internal/ui/statusbar"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewLogin ViewType = iota
	ViewSignup
	ViewProfile
)

// App is the root Bubble Tea model. It picks the signed-out views (login,
// signup) or the signed-in view (profile) from the controller state.
type App struct {
	activeView ViewType

	// Child models
	loginForm  login.Model
	signupForm signup.Model
	profile    profile.Model
	statusBar  statusbar.Model

	controller  *auth.Controller
	state       auth.State
	unsubscribe func()

	// Dimensions
	width  int
	height int
}

// NewApp creates the root application model.
func NewApp(controller *auth.Controller) *App {
	return &App{
		activeView: ViewLogin,
		loginForm:  login.New(controller),
		statusBar:  statusbar.New(),
		controller: controller,
		state:      controller.State(),
	}
}

// SetProgram forwards controller state changes into p.
func (a *App) SetProgram(p *tea.Program) {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.unsubscribe = a.controller.Subscribe(func(s auth.State) {
		p.Send(messages.StateChangedMsg{State: s})
	})
}

// Close stops forwarding controller state changes.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// ActiveView returns the view currently shown.
func (a *App) ActiveView() ViewType {
	return a.activeView
}

// Init restores any stored session.
func (a *App) Init() tea.Cmd {
	controller := a.controller
	return tea.Batch(a.loginForm.Init(), func() tea.Msg {
		controller.CheckSession(context.Background())
		return messages.StateChangedMsg{State: controller.State()}
	})
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.statusBar.SetSize(msg.Width)
		a.resizeActive()
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, Keys.Quit) {
			a.Close()
			return a, tea.Quit
		}

	case messages.OpenSignupMsg:
		if !a.state.IsAuthenticated && !a.state.IsLoading {
			return a, a.open(ViewSignup)
		}
		return a, nil

	case messages.OpenLoginMsg:
		if !a.state.IsAuthenticated && !a.state.IsLoading {
			return a, a.open(ViewLogin)
		}
		return a, nil

	case messages.StateChangedMsg:
		return a, a.applyState(msg.State)

	case messages.SignInResultMsg, messages.SignUpResultMsg, messages.SignOutResultMsg:
		var err error
		switch m := msg.(type) {
		case messages.SignInResultMsg:
			err = m.Err
		case messages.SignUpResultMsg:
			err = m.Err
		case messages.SignOutResultMsg:
			err = m.Err
		}
		if err != nil {
			a.statusBar.SetStatus(err.Error(), true)
		} else {
			a.statusBar.SetStatus("", false)
		}
		cmds = append(cmds, a.routeToActive(msg))
		cmds = append(cmds, a.applyState(a.controller.State()))
		return a, tea.Batch(cmds...)

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
		return a, nil
	}

	cmds = append(cmds, a.routeToActive(msg))

	var cmd tea.Cmd
	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// applyState adopts a controller snapshot and switches route trees when the
// authentication state flips.
func (a *App) applyState(s auth.State) tea.Cmd {
	a.state = s
	a.loginForm.SetLoading(s.IsLoading)
	a.signupForm.SetLoading(s.IsLoading)
	a.profile.SetLoading(s.IsLoading)

	email := ""
	if s.IsAuthenticated && s.User != nil {
		email = s.User.Email
	}
	a.statusBar.SetUser(email)
	cmd := a.statusBar.SetLoading(s.IsLoading)

	switch {
	case s.IsAuthenticated && a.activeView != ViewProfile:
		a.profile = profile.New(s.User, a.controller)
		a.activeView = ViewProfile
		a.resizeActive()
	case s.IsAuthenticated:
		a.profile.SetUser(s.User)
	case a.activeView == ViewProfile:
		return tea.Batch(cmd, a.open(ViewLogin))
	}
	return cmd
}

func (a *App) open(v ViewType) tea.Cmd {
	a.activeView = v
	var cmd tea.Cmd
	switch v {
	case ViewLogin:
		a.loginForm = login.New(a.controller)
		cmd = a.loginForm.Init()
	case ViewSignup:
		a.signupForm = signup.New(a.controller)
	}
	a.resizeActive()
	return cmd
}

func (a *App) contentHeight() int {
	h := a.height - 2 // help line and status bar
	if h < 0 {
		return 0
	}
	return h
}

func (a *App) resizeActive() {
	switch a.activeView {
	case ViewLogin:
		a.loginForm.SetSize(a.width, a.contentHeight())
	case ViewSignup:
		a.signupForm.SetSize(a.width, a.contentHeight())
	case ViewProfile:
		a.profile.SetSize(a.width, a.contentHeight())
	}
}

func (a *App) routeToActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.activeView {
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
	case ViewSignup:
		a.signupForm, cmd = a.signupForm.Update(msg)
	case ViewProfile:
		a.profile, cmd = a.profile.Update(msg)
	}
	return cmd
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewLogin:
		content = a.loginForm.View()
	case ViewSignup:
		content = a.signupForm.View()
	case ViewProfile:
		content = a.profile.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.helpLine(), a.statusBar.View())
}

func (a *App) helpLine() string {
	var parts []string
	for _, b := range helpFor(a.activeView) {
		h := b.Help()
		parts = append(parts, HelpKeyStyle.Render(h.Key)+" "+HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, HelpSepStyle.Render(" • "))
}
