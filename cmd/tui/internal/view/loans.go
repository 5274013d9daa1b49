package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/jmwangi/saccoterm/internal/api"
	"github.com/jmwangi/saccoterm/internal/auth"
	"github.com/jmwangi/saccoterm/internal/loan"
	"github.com/jmwangi/saccoterm/internal/sacco"
)

type loanState int

const (
	loanStateBrowse loanState = iota
	loanStateApply
	loanStateDetail
	loanStateRepay
)

type LoanModel struct {
	CommonModel
	service   *loan.Service
	session   *auth.Session
	selection *sacco.Selection

	state   loanState
	table   table.Model
	loans   []loan.Loan
	mine    bool
	loading bool
	err     error
	status  string

	detail     *loan.Loan
	repayments []loan.Repayment
	summary    loan.Summary
	detailErr  error

	form       *huh.Form
	formAmount string
	formRate   string
	formPeriod string
	formDue    string
	formPurp   string
	formDate   string
	formCode   string
	formRef    string
	formNotes  string
}

func NewLoanModel(svc *loan.Service, session *auth.Session, selection *sacco.Selection) LoanModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Member", Width: 20},
		{Title: "Amount", Width: 12},
		{Title: "Rate", Width: 8},
		{Title: "Status", Width: 12},
		{Title: "Due", Width: 12},
	}

	return LoanModel{
		service:   svc,
		session:   session,
		selection: selection,
		table:     newTable(columns),
		loading:   true,
	}
}

func (m LoanModel) Title() string { return "Loans" }
func (m LoanModel) ShortHelp() string {
	switch m.state {
	case loanStateBrowse:
		return "Esc: back | Enter: open | n: new application | m: toggle mine/all | r: refresh"
	case loanStateDetail:
		return "Esc: list | a: approve | d: disburse | p: add repayment | r: refresh"
	default:
		return "Navigate form | Esc: cancel"
	}
}

func (m LoanModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m LoanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loansLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, CheckAuth(msg.err)
		}
		m.err = nil
		m.loans = msg.loans
		m.refreshTable()
		return m, nil

	case loanOpenedMsg:
		m.loading = false
		m.state = loanStateDetail
		m.detail = msg.loan
		m.repayments = msg.repayments
		m.detailErr = msg.err
		if msg.loan != nil {
			m.summary = loan.Summarize(msg.loan.Amount, msg.repayments)
		}
		return m, CheckAuth(msg.err)

	case loanActionMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, CheckAuth(msg.err)
		}
		m.status = msg.status
		if msg.loan != nil {
			m.detail = msg.loan
			m.summary = loan.Summarize(msg.loan.Amount, m.repayments)
		}
		if msg.repayments != nil {
			m.repayments = msg.repayments
			m.summary = msg.summary
		}
		if m.state == loanStateRepay {
			m.state = loanStateDetail
			m.form = nil
		}
		return m, nil

	case loanAppliedMsg:
		m.state = loanStateBrowse
		m.form = nil
		m.table.Focus()
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, CheckAuth(msg.err)
		}
		m.status = "Loan application submitted"
		return m, m.loadCmd()
	}

	switch m.state {
	case loanStateBrowse:
		return m.updateBrowse(msg)
	case loanStateDetail:
		return m.updateDetail(msg)
	case loanStateApply, loanStateRepay:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m LoanModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "m":
			m.mine = !m.mine
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m.enterApply()
		case "enter":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.loans) {
				m.loading = true
				return m, m.openCmd(m.loans[idx].ID)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m LoanModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		m.state = loanStateBrowse
		m.detail = nil
		m.detailErr = nil
		m.status = ""
		m.table.Focus()
		return m, m.loadCmd()
	case "r":
		if m.detail != nil {
			m.loading = true
			return m, m.openCmd(m.detail.ID)
		}
	case "a":
		if m.detail != nil && !m.loading {
			m.loading = true
			return m, m.approveCmd(*m.detail)
		}
	case "d":
		if m.detail != nil && !m.loading {
			m.loading = true
			return m, m.disburseCmd(*m.detail)
		}
	case "p":
		if m.detail != nil && !m.loading {
			return m.enterRepay()
		}
	}

	return m, nil
}

func (m LoanModel) enterApply() (tea.Model, tea.Cmd) {
	m.formAmount, m.formRate, m.formPurp = "", "", ""
	m.formPeriod = string(loan.InterestMonthly)
	m.formDue = api.Today().AddDate(1, 0, 0).Format("2006-01-02")

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("amount").Title("Amount").Value(&m.formAmount).Validate(validAmount),
			huh.NewInput().Key("rate").Title("Interest rate (%)").Value(&m.formRate).Validate(validRate),
			huh.NewSelect[string]().
				Key("period").
				Title("Interest period").
				Options(
					huh.NewOption("Monthly", string(loan.InterestMonthly)),
					huh.NewOption("Yearly", string(loan.InterestYearly)),
				).
				Value(&m.formPeriod),
			huh.NewInput().Key("due").Title("Due date (YYYY-MM-DD)").Value(&m.formDue).Validate(validDate),
			huh.NewInput().Key("purpose").Title("Purpose").Value(&m.formPurp).Validate(notEmpty("purpose")),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = loanStateApply
	m.table.Blur()
	return m, m.form.Init()
}

func (m LoanModel) enterRepay() (tea.Model, tea.Cmd) {
	m.formAmount, m.formCode, m.formRef, m.formNotes = "", "", "", ""
	m.formDate = api.Today().Format("2006-01-02")

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("amount").Title("Amount").Value(&m.formAmount).Validate(validAmount),
			huh.NewInput().Key("date").Title("Payment date (YYYY-MM-DD)").Value(&m.formDate).Validate(validDate),
			huh.NewInput().Key("code").Title("Transaction code").Value(&m.formCode),
			huh.NewInput().Key("ref").Title("Reference number").Value(&m.formRef),
			huh.NewInput().Key("notes").Title("Notes").Value(&m.formNotes),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = loanStateRepay
	return m, m.form.Init()
}

func (m LoanModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			if m.state == loanStateRepay {
				m.state = loanStateDetail
			} else {
				m.state = loanStateBrowse
				m.table.Focus()
			}
			m.form = nil
			return m, nil
		}
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

	if m.state == loanStateApply {
		return m, m.applyCmd()
	}

	return m, m.repayCmd(*m.detail)
}

func (m LoanModel) View() string {
	if m.loading && m.state == loanStateBrowse {
		return lipgloss.NewStyle().Padding(2).Render("Loading loans...")
	}

	switch m.state {
	case loanStateDetail, loanStateRepay:
		return m.viewDetail()
	default:
		return m.viewBrowse()
	}
}

func (m LoanModel) viewBrowse() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	scope := "All"
	if m.mine {
		scope = "Mine"
	}
	header := fmt.Sprintf("Filter: [m] Scope: %s", activeStyle(scope))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		borderedTable(m.table),
	)

	if m.state == loanStateApply && m.form != nil {
		panel := panelStyle.Width(48).Render("Loan Application\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m LoanModel) viewDetail() string {
	if m.detailErr != nil {
		msg := fmt.Sprintf("Error: %v", m.detailErr)
		switch {
		case api.IsForbidden(m.detailErr):
			msg = "You don't have permission to view this loan"
		case api.IsNotFound(m.detailErr):
			msg = "Loan not found"
		}

		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(msg) + "\n\n(Esc to go back)")
	}

	if m.detail == nil {
		return lipgloss.NewStyle().Padding(2).Render("Loading loan...")
	}

	l := m.detail

	var b strings.Builder
	fmt.Fprintf(&b, "Loan #%d — %s\n\n", l.ID, l.MemberName)
	fmt.Fprintf(&b, "Status:    %s\n", StatusBadge(string(l.Status)))
	fmt.Fprintf(&b, "Principal: %s\n", FormatAmount(l.Amount))
	fmt.Fprintf(&b, "Interest:  %s%% %s\n", l.InterestRate.String(), strings.ToLower(string(l.InterestPeriod)))
	fmt.Fprintf(&b, "Applied:   %s   Due: %s\n", l.ApplicationDate.String(), l.DueDate.String())

	if l.ApprovalDate != nil {
		fmt.Fprintf(&b, "Approved:  %s\n", FormatDate(*l.ApprovalDate))
	}
	if l.DisbursementDate != nil {
		fmt.Fprintf(&b, "Disbursed: %s\n", FormatDate(*l.DisbursementDate))
	}

	fmt.Fprintf(&b, "\nPaid: %s   Remaining: %s   Progress: %d%%\n",
		FormatAmount(m.summary.TotalPaid),
		FormatAmount(m.summary.RemainingBalance),
		m.summary.ProgressPercent,
	)

	if len(m.repayments) > 0 {
		b.WriteString("\nRepayments:\n")
		for _, rp := range m.repayments {
			fmt.Fprintf(&b, "  %s  %12s  %s\n", rp.PaymentDate.String(), FormatAmount(rp.Amount), rp.TransactionCode)
		}
	}

	content := b.String()

	if m.state == loanStateRepay && m.form != nil {
		panel := panelStyle.Width(48).Render("Add Repayment\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func (m *LoanModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.loans))
	for _, l := range m.loans {
		rows = append(rows, table.Row{
			strconv.FormatInt(l.ID, 10),
			l.MemberName,
			FormatAmount(l.Amount),
			l.InterestRate.String() + "%",
			string(l.Status),
			l.DueDate.String(),
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loansLoadedMsg struct {
	loans []loan.Loan
	err   error
}

func (m LoanModel) loadCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()
	userID := m.session.UserID()
	mine := m.mine

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		var (
			loans []loan.Loan
			err   error
		)

		if mine {
			loans, err = m.service.ListByUser(ctx, saccoID, userID)
		} else {
			loans, err = m.service.ListBySacco(ctx, saccoID)
		}

		return loansLoadedMsg{loans: loans, err: err}
	}
}

type loanOpenedMsg struct {
	loan       *loan.Loan
	repayments []loan.Repayment
	err        error
}

func (m LoanModel) openCmd(loanID int64) tea.Cmd {
	saccoID := m.selection.CurrentID()

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		l, err := m.service.Get(ctx, saccoID, loanID)
		if err != nil {
			return loanOpenedMsg{err: err}
		}

		repayments, err := m.service.Repayments(ctx, loanID)
		if err != nil {
			return loanOpenedMsg{err: err}
		}

		return loanOpenedMsg{loan: &l, repayments: repayments}
	}
}

type loanActionMsg struct {
	loan       *loan.Loan
	repayments []loan.Repayment
	summary    loan.Summary
	status     string
	err        error
}

func (m LoanModel) approveCmd(l loan.Loan) tea.Cmd {
	manager := m.session.IsManager(l.SaccoID)

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		updated, err := m.service.Approve(ctx, l, manager)
		if err != nil {
			return loanActionMsg{err: err}
		}

		return loanActionMsg{loan: &updated, status: "Loan approved"}
	}
}

func (m LoanModel) disburseCmd(l loan.Loan) tea.Cmd {
	manager := m.session.IsManager(l.SaccoID)

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		updated, err := m.service.Disburse(ctx, l, manager)
		if err != nil {
			return loanActionMsg{err: err}
		}

		return loanActionMsg{loan: &updated, status: "Loan disbursed"}
	}
}

func (m LoanModel) repayCmd(l loan.Loan) tea.Cmd {
	userID := m.session.UserID()
	manager := m.session.IsManager(l.SaccoID)

	amount, err := decimal.NewFromString(m.form.GetString("amount"))
	if err != nil {
		return func() tea.Msg { return loanActionMsg{err: fmt.Errorf("invalid amount: %w", err)} }
	}

	date, err := api.ParseDate(m.form.GetString("date"))
	if err != nil {
		return func() tea.Msg { return loanActionMsg{err: err} }
	}

	params := loan.RepaymentParams{
		Amount:          amount,
		PaymentDate:     date,
		TransactionCode: m.form.GetString("code"),
		ReferenceNumber: m.form.GetString("ref"),
		Notes:           m.form.GetString("notes"),
	}

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		repayments, summary, err := m.service.AddRepayment(ctx, l, userID, manager, params)
		if err != nil {
			return loanActionMsg{err: err}
		}

		return loanActionMsg{repayments: repayments, summary: summary, status: "Repayment added"}
	}
}

type loanAppliedMsg struct {
	err error
}

func (m LoanModel) applyCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()

	amount, err := decimal.NewFromString(m.form.GetString("amount"))
	if err != nil {
		return func() tea.Msg { return loanAppliedMsg{err: fmt.Errorf("invalid amount: %w", err)} }
	}

	rate, err := decimal.NewFromString(m.form.GetString("rate"))
	if err != nil {
		return func() tea.Msg { return loanAppliedMsg{err: fmt.Errorf("invalid rate: %w", err)} }
	}

	due, err := api.ParseDate(m.form.GetString("due"))
	if err != nil {
		return func() tea.Msg { return loanAppliedMsg{err: err} }
	}

	params := loan.CreateParams{
		Amount:         amount,
		InterestRate:   rate,
		InterestPeriod: loan.InterestPeriod(m.form.GetString("period")),
		DueDate:        due,
		Purpose:        m.form.GetString("purpose"),
	}

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		_, err := m.service.Create(ctx, saccoID, params)
		return loanAppliedMsg{err: err}
	}
}

// Form validators shared by the finance screens.

func validAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("amount must be a number")
	}

	if !d.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}

	return nil
}

func validRate(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("rate must be a number")
	}

	if d.IsNegative() {
		return fmt.Errorf("rate cannot be negative")
	}

	return nil
}

func validDate(s string) error {
	if _, err := api.ParseDate(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}

	return nil
}
