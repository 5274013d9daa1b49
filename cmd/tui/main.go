package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/jmwangi/saccoterm/cmd/tui/internal/view"
	"github.com/jmwangi/saccoterm/internal/api"
	"github.com/jmwangi/saccoterm/internal/auth"
	"github.com/jmwangi/saccoterm/internal/config"
	"github.com/jmwangi/saccoterm/internal/contribution"
	"github.com/jmwangi/saccoterm/internal/debt"
	"github.com/jmwangi/saccoterm/internal/dividend"
	"github.com/jmwangi/saccoterm/internal/loan"
	"github.com/jmwangi/saccoterm/internal/member"
	"github.com/jmwangi/saccoterm/internal/sacco"
	"github.com/jmwangi/saccoterm/internal/transaction"
)

type model struct {
	authService *auth.Service
	session     *auth.Session
	selection   *sacco.Selection

	saccoService        *sacco.Service
	memberService       *member.Service
	contributionService *contribution.Service
	loanService         *loan.Service
	debtService         *debt.Service
	dividendService     *dividend.Service
	txService           *transaction.Service

	currentView View
	notice      string

	loginView        view.LoginModel
	passwordView     view.PasswordModel
	saccoView        view.SaccoModel
	memberView       view.MemberModel
	contributionView view.ContributionModel
	loanView         view.LoanModel
	debtView         view.DebtModel
	dividendView     view.DividendModel
	txView           view.TransactionModel
}

type View int

const (
	ViewLogin View = iota
	ViewMenu
	ViewSaccos
	ViewMembers
	ViewContributions
	ViewLoans
	ViewDebts
	ViewDividends
	ViewTransactions
	ViewPassword
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	credsPath, err := cfg.CredentialsPath()
	if err != nil {
		slog.Error("failed to resolve credentials path", "error", err)
		os.Exit(1)
	}

	store, err := auth.NewFileStore(credsPath)
	if err != nil {
		slog.Error("failed to open credentials store", "error", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.API.URL, cfg.API.Timeout, store)
	session := auth.NewSession()
	authSvc := auth.NewService(client, store, session)

	saccoSvc := sacco.NewService(client)
	selection := sacco.NewSelection(saccoSvc)

	m := model{
		authService:         authSvc,
		session:             session,
		selection:           selection,
		saccoService:        saccoSvc,
		memberService:       member.NewService(client),
		contributionService: contribution.NewService(client),
		loanService:         loan.NewService(client),
		debtService:         debt.NewService(client),
		dividendService:     dividend.NewService(client),
		txService:           transaction.NewService(client),
		currentView:         ViewLogin,
		loginView:           view.NewLoginModel(authSvc),
	}

	if authSvc.Resume() {
		m.currentView = ViewMenu
	}

	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "l":
				if err := m.authService.Logout(); err != nil {
					slog.Error("failed to clear credentials", "error", err)
				}
				m.selection.Clear()
				m.notice = ""
				m.currentView = ViewLogin
				m.loginView = view.NewLoginModel(m.authService)
				return m, m.loginView.Init()
			case "1":
				m.currentView = ViewSaccos
				m.saccoView = view.NewSaccoModel(m.saccoService, m.session, m.selection)
				return m, m.saccoView.Init()
			case "2":
				if cmd, ok := m.requireSacco(); !ok {
					return m, cmd
				}
				m.currentView = ViewMembers
				m.memberView = view.NewMemberModel(m.memberService, m.saccoService, m.session, m.selection)
				return m, m.memberView.Init()
			case "3":
				if cmd, ok := m.requireSacco(); !ok {
					return m, cmd
				}
				m.currentView = ViewContributions
				m.contributionView = view.NewContributionModel(m.contributionService, m.session, m.selection)
				return m, m.contributionView.Init()
			case "4":
				if cmd, ok := m.requireSacco(); !ok {
					return m, cmd
				}
				m.currentView = ViewLoans
				m.loanView = view.NewLoanModel(m.loanService, m.session, m.selection)
				return m, m.loanView.Init()
			case "5":
				if cmd, ok := m.requireSacco(); !ok {
					return m, cmd
				}
				m.currentView = ViewDebts
				m.debtView = view.NewDebtModel(m.debtService, m.session, m.selection)
				return m, m.debtView.Init()
			case "6":
				if cmd, ok := m.requireSacco(); !ok {
					return m, cmd
				}
				m.currentView = ViewDividends
				m.dividendView = view.NewDividendModel(m.dividendService, m.session, m.selection)
				return m, m.dividendView.Init()
			case "7":
				if cmd, ok := m.requireSacco(); !ok {
					return m, cmd
				}
				m.currentView = ViewTransactions
				m.txView = view.NewTransactionModel(m.txService, m.session, m.selection)
				return m, m.txView.Init()
			case "8":
				m.currentView = ViewPassword
				m.passwordView = view.NewPasswordModel(m.authService)
				return m, m.passwordView.Init()
			}
		}

	case view.LoggedInMsg:
		m.currentView = ViewMenu
		m.notice = ""
		return m, nil

	case view.AuthExpiredMsg:
		m.session.Clear()
		m.selection.Clear()
		m.notice = "Session expired, please sign in again"
		m.currentView = ViewLogin
		m.loginView = view.NewLoginModel(m.authService)
		return m, m.loginView.Init()

	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewSaccos:
		var newModel tea.Model
		newModel, cmd = m.saccoView.Update(msg)
		m.saccoView = newModel.(view.SaccoModel)
	case ViewMembers:
		var newModel tea.Model
		newModel, cmd = m.memberView.Update(msg)
		m.memberView = newModel.(view.MemberModel)
	case ViewContributions:
		var newModel tea.Model
		newModel, cmd = m.contributionView.Update(msg)
		m.contributionView = newModel.(view.ContributionModel)
	case ViewLoans:
		var newModel tea.Model
		newModel, cmd = m.loanView.Update(msg)
		m.loanView = newModel.(view.LoanModel)
	case ViewDebts:
		var newModel tea.Model
		newModel, cmd = m.debtView.Update(msg)
		m.debtView = newModel.(view.DebtModel)
	case ViewDividends:
		var newModel tea.Model
		newModel, cmd = m.dividendView.Update(msg)
		m.dividendView = newModel.(view.DividendModel)
	case ViewTransactions:
		var newModel tea.Model
		newModel, cmd = m.txView.Update(msg)
		m.txView = newModel.(view.TransactionModel)
	case ViewPassword:
		var newModel tea.Model
		newModel, cmd = m.passwordView.Update(msg)
		m.passwordView = newModel.(view.PasswordModel)
	}

	return m, cmd
}

// requireSacco blocks the finance screens until a sacco has been selected.
func (m *model) requireSacco() (tea.Cmd, bool) {
	if m.selection.CurrentID() != 0 {
		return nil, true
	}

	m.notice = "Select a sacco first (option 1)"
	return nil, false
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		header := ""
		if m.notice != "" {
			header = m.notice + "\n\n"
		}
		return lipgloss.NewStyle().Padding(1).Render(header) + m.loginView.View()
	case ViewMenu:
		return m.menuView()
	case ViewSaccos:
		return m.saccoView.View()
	case ViewMembers:
		return m.memberView.View()
	case ViewContributions:
		return m.contributionView.View()
	case ViewLoans:
		return m.loanView.View()
	case ViewDebts:
		return m.debtView.View()
	case ViewDividends:
		return m.dividendView.View()
	case ViewTransactions:
		return m.txView.View()
	case ViewPassword:
		return m.passwordView.View()
	}

	return "Unknown View"
}

func (m model) menuView() string {
	who := ""
	if u := m.session.User(); u != nil {
		who = "Signed in as " + u.FullName()
	}
	if exp, ok := m.authService.AccessExpiry(); ok {
		who += fmt.Sprintf(" (session until %s)", exp.Local().Format("15:04"))
	}

	current := "none selected"
	if sc := m.selection.Current(); sc != nil {
		current = sc.Name
	}

	body := fmt.Sprintf(
		"Saccoterm\n%s\nSacco: %s\n\n"+
			"1. Saccos\n"+
			"2. Members\n"+
			"3. Contributions\n"+
			"4. Loans\n"+
			"5. Debts\n"+
			"6. Dividends\n"+
			"7. Transactions\n"+
			"8. Change password\n\n"+
			"l. Log out\n"+
			"q. Quit",
		who, current,
	)

	if m.notice != "" {
		body = m.notice + "\n\n" + body
	}

	return lipgloss.NewStyle().Padding(2).Render(body)
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
