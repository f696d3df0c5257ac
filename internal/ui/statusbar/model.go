package statusbar

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1E1B4B")).
			Foreground(lipgloss.Color("#FFFFFF"))

	appStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#7C3AED")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1E1B4B")).
			Foreground(lipgloss.Color("#A7F3D0")).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1E1B4B")).
			Foreground(lipgloss.Color("#CBD5E1")).
			Padding(0, 1)

	errorTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#7F1D1D")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)
)

// Model is the status bar at the bottom of the screen.
type Model struct {
	width      int
	email      string
	loading    bool
	statusText string
	isError    bool
	spinner    spinner.Model
}

// New creates a new status bar.
func New() Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return Model{spinner: s}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetUser sets the signed-in email; empty means signed out.
func (m *Model) SetUser(email string) {
	m.email = email
}

// SetLoading toggles the activity spinner. The returned command starts it.
func (m *Model) SetLoading(loading bool) tea.Cmd {
	started := loading && !m.loading
	m.loading = loading
	if started {
		return m.spinner.Tick
	}
	return nil
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isError bool) {
	m.statusText = text
	m.isError = isError
}

// Update advances the spinner while loading.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok && m.loading {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	left := appStyle.Render("CoreBalance")

	var right string
	if m.loading {
		right += statusTextStyle.Render(m.spinner.View() + " working")
	}
	if m.statusText != "" {
		if m.isError {
			right += errorTextStyle.Render(m.statusText)
		} else {
			right += statusTextStyle.Render(m.statusText)
		}
	}
	if m.email != "" {
		right += userStyle.Render(m.email)
	} else {
		right += statusTextStyle.Render("signed out")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, mid, right)
}
