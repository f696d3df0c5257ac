package profile

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/corebalance/internal/auth"
	"github.com/fragmede/corebalance/internal/identity"
	"github.com/fragmede/corebalance/internal/ui/messages"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true).Padding(1, 0)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")).Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

// Model is the signed-in profile view.
type Model struct {
	user       *identity.User
	err        string
	loading    bool
	controller *auth.Controller
	width      int
	height     int
}

// New creates a profile view for user.
func New(user *identity.User, controller *auth.Controller) Model {
	return Model{user: user, controller: controller}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetLoading disables sign-out while an operation is in flight.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetUser replaces the displayed user.
func (m *Model) SetUser(user *identity.User) {
	m.user = user
}

// Err returns the error currently shown.
func (m Model) Err() string {
	return m.err
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if msg.String() == "ctrl+o" {
			m.err = ""
			controller := m.controller
			return m, func() tea.Msg {
				return messages.SignOutResultMsg{Err: controller.SignOut(context.Background())}
			}
		}
	case messages.SignOutResultMsg:
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		return m, func() tea.Msg { return messages.StatusMsg{Text: "Signed out"} }
	}
	return m, nil
}

// View renders the profile.
func (m Model) View() string {
	if m.user == nil {
		return titleStyle.Render("No profile loaded")
	}

	name := m.user.Name
	if name == "" {
		name = "Wellness Explorer"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(name))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("Email: ") + valueStyle.Render(m.user.Email))
	sb.WriteString("\n")
	if !m.user.CreatedAt.IsZero() {
		sb.WriteString(labelStyle.Render("Member since: ") + valueStyle.Render(m.user.CreatedAt.Format("January 2006")))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n\n")
	}

	if m.loading {
		sb.WriteString("Signing out...")
	} else {
		sb.WriteString(keyStyle.Render("Ctrl+O") + " to sign out")
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
