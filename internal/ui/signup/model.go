package signup

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
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true).
			Padding(1, 0)
)

const (
	fieldName = iota
	fieldEmail
	fieldPassword
	fieldCount
)

var labels = [fieldCount]string{"Full Name", "Email", "Password"}

// Model is the account creation form.
type Model struct {
	inputs     [fieldCount]textinput.Model
	focusIndex int
	err        string
	loading    bool
	controller *auth.Controller
	width      int
	height     int
}

// New creates a new sign-up form.
func New(controller *auth.Controller) Model {
	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		in := textinput.New()
		in.Width = 32
		inputs[i] = in
	}
	inputs[fieldName].Placeholder = "Enter your full name"
	inputs[fieldEmail].Placeholder = "Enter your email"
	inputs[fieldPassword].Placeholder = "Create a password"
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldName].Focus()

	return Model{inputs: inputs, controller: controller}
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
		case "tab", "down":
			m.focus((m.focusIndex + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.focus((m.focusIndex + fieldCount - 1) % fieldCount)
			return m, nil
		case "esc":
			return m, func() tea.Msg { return messages.OpenLoginMsg{} }
		case "enter":
			name := m.inputs[fieldName].Value()
			email := m.inputs[fieldEmail].Value()
			password := m.inputs[fieldPassword].Value()
			m.err = ""
			controller := m.controller
			return m, func() tea.Msg {
				return messages.SignUpResultMsg{Err: controller.SignUp(context.Background(), email, password, name)}
			}
		default:
			m.err = ""
		}

	case messages.SignUpResultMsg:
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		return m, func() tea.Msg { return messages.StatusMsg{Text: "Account created"} }
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) focus(i int) {
	m.inputs[m.focusIndex].Blur()
	m.focusIndex = i
	m.inputs[i].Focus()
}

// View renders the sign-up form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Create Account"))
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n\n")
	}

	for i, in := range m.inputs {
		sb.WriteString(labelStyle.Render(labels[i]))
		sb.WriteString("\n")
		sb.WriteString(in.View())
		sb.WriteString("\n\n")
	}

	if m.loading {
		sb.WriteString("Creating account...")
	} else {
		sb.WriteString(focusedStyle.Render("Enter") + " to sign up, " + focusedStyle.Render("Esc") + " to go back")
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
