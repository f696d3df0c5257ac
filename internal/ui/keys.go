package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit    key.Binding
	Back    key.Binding
	Signup  key.Binding
	Submit  key.Binding
	Next    key.Binding
	SignOut key.Binding
}

var Keys = KeyMap{
	Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Signup:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "create account")),
	Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Next:    key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
	SignOut: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "sign out")),
}

// helpFor lists the bindings relevant to a view.
func helpFor(v ViewType) []key.Binding {
	switch v {
	case ViewSignup:
		return []key.Binding{Keys.Next, Keys.Submit, Keys.Back, Keys.Quit}
	case ViewProfile:
		return []key.Binding{Keys.SignOut, Keys.Quit}
	default:
		return []key.Binding{Keys.Next, Keys.Submit, Keys.Signup, Keys.Quit}
	}
}
