package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmwangi/saccoterm/internal/auth"
)

type loginState int

const (
	loginStateLogin loginState = iota
	loginStateRegister
	loginStateResetRequest
	loginStateResetConfirm
)

type LoginModel struct {
	CommonModel
	authService *auth.Service

	state   loginState
	form    *huh.Form
	loading bool
	err     error
	info    string

	email      string
	password   string
	firstName  string
	lastName   string
	resetEmail string
	resetToken string
	resetPass  string
}

func NewLoginModel(authSvc *auth.Service) LoginModel {
	m := LoginModel{authService: authSvc}
	m.form = m.loginForm()

	return m
}

func (m LoginModel) Title() string { return "Sign In" }
func (m LoginModel) ShortHelp() string {
	if m.state == loginStateResetRequest || m.state == loginStateResetConfirm {
		return "Enter: submit | Esc: back to sign in | Ctrl+c: quit"
	}
	return "Tab: next field | Enter: submit | Ctrl+r: toggle register | Ctrl+f: forgot password | Ctrl+c: quit"
}

func (m *LoginModel) loginForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Email").
				Value(&m.email).
				Validate(notEmpty("email")),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password).
				Validate(notEmpty("password")),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m *LoginModel) registerForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("first_name").Title("First name").Value(&m.firstName).Validate(notEmpty("first name")),
			huh.NewInput().Key("last_name").Title("Last name").Value(&m.lastName).Validate(notEmpty("last name")),
			huh.NewInput().Key("email").Title("Email").Value(&m.email).Validate(notEmpty("email")),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password).
				Validate(validPassword),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m *LoginModel) resetRequestForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("email").Title("Account email").Value(&m.resetEmail).Validate(notEmpty("email")),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m *LoginModel) resetConfirmForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("token").Title("Reset token").Value(&m.resetToken).Validate(notEmpty("token")),
			huh.NewInput().
				Key("password").
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&m.resetPass).
				Validate(validPassword),
		),
	).WithWidth(45).WithShowHelp(false)
}

func validPassword(s string) error {
	if len(s) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+r":
			m.err = nil
			m.info = ""
			if m.state == loginStateLogin {
				m.state = loginStateRegister
				m.form = m.registerForm()
			} else {
				m.state = loginStateLogin
				m.form = m.loginForm()
			}

			return m, m.form.Init()
		case "ctrl+f":
			if m.state == loginStateLogin || m.state == loginStateRegister {
				m.err = nil
				m.info = ""
				m.resetEmail = ""
				m.state = loginStateResetRequest
				m.form = m.resetRequestForm()
				return m, m.form.Init()
			}
		case "esc":
			if m.state == loginStateResetRequest || m.state == loginStateResetConfirm {
				m.err = nil
				m.info = ""
				m.state = loginStateLogin
				m.form = m.loginForm()
				return m, m.form.Init()
			}
		}

	case authResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			// A fresh form so the user can correct and resubmit.
			if m.state == loginStateLogin {
				m.form = m.loginForm()
			} else {
				m.form = m.registerForm()
			}

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return LoggedInMsg{} }

	case resetRequestedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.form = m.resetRequestForm()
			return m, m.form.Init()
		}
		m.err = nil
		m.info = "If the email is registered, a reset token has been sent"
		m.resetToken, m.resetPass = "", ""
		m.state = loginStateResetConfirm
		m.form = m.resetConfirmForm()
		return m, m.form.Init()

	case resetConfirmedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.form = m.resetConfirmForm()
			return m, m.form.Init()
		}
		m.err = nil
		m.info = "Password has been reset, sign in with your new password"
		m.state = loginStateLogin
		m.form = m.loginForm()
		return m, m.form.Init()
	}

	if m.loading {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.loading = true

	switch m.state {
	case loginStateResetRequest:
		return m, m.resetRequestCmd()
	case loginStateResetConfirm:
		return m, m.resetConfirmCmd()
	}

	return m, m.submitCmd()
}

func (m LoginModel) View() string {
	title := "Saccoterm — Sign In"
	switch m.state {
	case loginStateRegister:
		title = "Saccoterm — Register"
	case loginStateResetRequest, loginStateResetConfirm:
		title = "Saccoterm — Reset Password"
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")

	if m.info != "" {
		b.WriteString(faintStyle.Render(m.info) + "\n\n")
	}

	if m.loading {
		b.WriteString("Submitting...\n")
	} else {
		b.WriteString(m.form.View())
	}

	if m.err != nil {
		b.WriteString("\n" + errStyle.Render(m.err.Error()))
	}

	b.WriteString("\n\n" + faintStyle.Render(m.ShortHelp()))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

type authResultMsg struct {
	err error
}

func (m LoginModel) submitCmd() tea.Cmd {
	state := m.state
	email := m.form.GetString("email")
	password := m.form.GetString("password")
	firstName := m.form.GetString("first_name")
	lastName := m.form.GetString("last_name")

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		var err error

		if state == loginStateLogin {
			_, err = m.authService.Login(ctx, email, password)
		} else {
			_, err = m.authService.Register(ctx, auth.RegisterParams{
				Email:     email,
				Password:  password,
				FirstName: firstName,
				LastName:  lastName,
			})
		}

		return authResultMsg{err: err}
	}
}

type resetRequestedMsg struct {
	err error
}

func (m LoginModel) resetRequestCmd() tea.Cmd {
	email := m.form.GetString("email")

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return resetRequestedMsg{err: m.authService.RequestPasswordReset(ctx, email)}
	}
}

type resetConfirmedMsg struct {
	err error
}

func (m LoginModel) resetConfirmCmd() tea.Cmd {
	token := m.form.GetString("token")
	password := m.form.GetString("password")

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return resetConfirmedMsg{err: m.authService.ConfirmPasswordReset(ctx, token, password)}
	}
}
