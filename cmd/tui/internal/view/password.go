package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmwangi/saccoterm/internal/auth"
)

// PasswordModel is the change-password screen, reached from the main menu.
type PasswordModel struct {
	CommonModel
	authService *auth.Service

	form    *huh.Form
	loading bool
	done    bool
	err     error

	current string
	updated string
	confirm string
}

func NewPasswordModel(authSvc *auth.Service) PasswordModel {
	m := PasswordModel{authService: authSvc}
	m.form = m.passwordForm()

	return m
}

func (m PasswordModel) Title() string { return "Change Password" }
func (m PasswordModel) ShortHelp() string {
	if m.done {
		return "Esc: back"
	}
	return "Tab: next field | Enter: submit | Esc: cancel"
}

func (m *PasswordModel) passwordForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("current").
				Title("Current password").
				EchoMode(huh.EchoModePassword).
				Value(&m.current).
				Validate(notEmpty("current password")),

			huh.NewInput().
				Key("new").
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&m.updated).
				Validate(validPassword),

			huh.NewInput().
				Key("confirm").
				Title("Confirm new password").
				EchoMode(huh.EchoModePassword).
				Value(&m.confirm).
				Validate(notEmpty("confirmation")),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m PasswordModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m PasswordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

	case passwordChangedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.form = m.passwordForm()
			return m, m.form.Init()
		}
		m.done = true
		return m, nil
	}

	if m.loading || m.done {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.form.GetString("new") != m.form.GetString("confirm") {
		m.err = fmt.Errorf("new passwords do not match")
		m.form = m.passwordForm()
		return m, m.form.Init()
	}

	m.err = nil
	m.loading = true

	return m, m.submitCmd()
}

func (m PasswordModel) View() string {
	var b strings.Builder
	b.WriteString("Change Password\n\n")

	switch {
	case m.done:
		b.WriteString("Password changed.\n")
	case m.loading:
		b.WriteString("Submitting...\n")
	default:
		b.WriteString(m.form.View())
	}

	if m.err != nil {
		b.WriteString("\n" + errStyle.Render(m.err.Error()))
	}

	b.WriteString("\n\n" + faintStyle.Render(m.ShortHelp()))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

type passwordChangedMsg struct {
	err error
}

func (m PasswordModel) submitCmd() tea.Cmd {
	current := m.form.GetString("current")
	updated := m.form.GetString("new")

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return passwordChangedMsg{err: m.authService.ChangePassword(ctx, current, updated)}
	}
}
