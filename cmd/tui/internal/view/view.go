package view

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmwangi/saccoterm/internal/api"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct{}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// AuthExpiredMsg tells the root model that the session is gone and the login
// screen must take over.
type AuthExpiredMsg struct{}

// LoggedInMsg tells the root model a login or registration succeeded.
type LoggedInMsg struct{}

// CheckAuth converts a session-expiry failure into an AuthExpiredMsg command;
// any other error stays with the view that saw it.
func CheckAuth(err error) tea.Cmd {
	if errors.Is(err, api.ErrSessionExpired) {
		return func() tea.Msg { return AuthExpiredMsg{} }
	}

	return nil
}
