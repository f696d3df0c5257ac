package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/corebalance/internal/auth"
	"github.com/fragmede/corebalance/internal/ui/messages"
)

var (
	focusedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true).
			Padding(1, 0, 0, 0)
)

// Model is the sign-in form.
type Model struct {
	emailInput    textinput.Model
	passwordInput textinput.Model
	focusIndex    int
	err           string
	loading       bool
	controller    *auth.Controller
	width         int
	height        int
}

// New creates a new sign-in form.
func New(controller *auth.Controller) Model {
	emailInput := textinput.New()
	emailInput.Placeholder = "Enter your email"
	emailInput.Focus()
	emailInput.Width = 32

	passwordInput := textinput.New()
	passwordInput.Placeholder = "Enter your password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.Width = 32

	return Model{
		emailInput:    emailInput,
		passwordInput: passwordInput,
		controller:    controller,
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetLoading disables the form while an operation is in flight.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
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
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.toggleFocus()
			return m, nil
		case "ctrl+n":
			return m, func() tea.Msg { return messages.OpenSignupMsg{} }
		case "enter":
			email := m.emailInput.Value()
			password := m.passwordInput.Value()
			if email == "" || password == "" {
				m.err = auth.MsgFillAllFields
				return m, nil
			}
			if !strings.Contains(email, "@") {
				m.err = auth.MsgInvalidEmail
				return m, nil
			}
			m.err = ""
			controller := m.controller
			return m, func() tea.Msg {
				return messages.SignInResultMsg{Err: controller.SignIn(context.Background(), email, password)}
			}
		default:
			m.err = ""
		}

	case messages.SignInResultMsg:
		if msg.Err != nil {
			m.err = msg.Err.Error()
			m.passwordInput.SetValue("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focusIndex == 0 {
		m.focusIndex = 1
		m.emailInput.Blur()
		m.passwordInput.Focus()
	} else {
		m.focusIndex = 0
		m.passwordInput.Blur()
		m.emailInput.Focus()
	}
}

// View renders the sign-in form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("CoreBalance"))
	sb.WriteString("\n")
	sb.WriteString(subtitleStyle.Render("Your journey to wellness begins here"))
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n\n")
	}

	sb.WriteString(labelStyle.Render("Email"))
	sb.WriteString("\n")
	sb.WriteString(m.emailInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("Password"))
	sb.WriteString("\n")
	sb.WriteString(m.passwordInput.View())
	sb.WriteString("\n\n")

	if m.loading {
		sb.WriteString("Signing in...")
	} else {
		sb.WriteString(focusedStyle.Render("Enter") + " to sign in, " +
			focusedStyle.Render("Ctrl+N") + " to create an account")
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
