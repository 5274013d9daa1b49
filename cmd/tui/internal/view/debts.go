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
	"github.com/jmwangi/saccoterm/internal/debt"
	"github.com/jmwangi/saccoterm/internal/sacco"
)

type debtState int

const (
	debtStateBrowse debtState = iota
	debtStateCreate
	debtStateDetail
	debtStatePay
	debtStateWriteOff
)

type DebtModel struct {
	CommonModel
	service   *debt.Service
	session   *auth.Session
	selection *sacco.Selection

	state   debtState
	table   table.Model
	debts   []debt.Debt
	mine    bool
	loading bool
	err     error
	status  string

	detail    *debt.Debt
	payments  []debt.Payment
	summary   debt.Summary
	detailErr error

	form           *huh.Form
	formMembership string
	formAmount     string
	formDesc       string
	formDue        string
	formDate       string
	formCode       string
	formRef        string
	confirmed      bool
}

func NewDebtModel(svc *debt.Service, session *auth.Session, selection *sacco.Selection) DebtModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Member", Width: 20},
		{Title: "Amount", Width: 12},
		{Title: "Status", Width: 16},
		{Title: "Description", Width: 28},
	}

	return DebtModel{
		service:   svc,
		session:   session,
		selection: selection,
		table:     newTable(columns),
		loading:   true,
	}
}

func (m DebtModel) Title() string { return "Debts" }
func (m DebtModel) ShortHelp() string {
	switch m.state {
	case debtStateBrowse:
		return "Esc: back | Enter: open | n: record debt | m: toggle mine/all | r: refresh"
	case debtStateDetail:
		return "Esc: list | p: add payment | w: write off | r: refresh"
	default:
		return "Navigate form | Esc: cancel"
	}
}

func (m DebtModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DebtModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case debtsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, CheckAuth(msg.err)
		}
		m.err = nil
		m.debts = msg.debts
		m.refreshTable()
		return m, nil

	case debtOpenedMsg:
		m.loading = false
		m.state = debtStateDetail
		m.detail = msg.debt
		m.payments = msg.payments
		m.detailErr = msg.err
		if msg.debt != nil {
			m.summary = debt.Summarize(msg.debt.Amount, msg.payments)
		}
		return m, CheckAuth(msg.err)

	case debtActionMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, CheckAuth(msg.err)
		}
		m.status = msg.status
		if msg.debt != nil {
			m.detail = msg.debt
		}
		if msg.payments != nil {
			m.payments = msg.payments
			m.summary = msg.summary
		} else if m.detail != nil {
			m.summary = debt.Summarize(m.detail.Amount, m.payments)
		}
		if m.state == debtStatePay || m.state == debtStateWriteOff {
			m.state = debtStateDetail
			m.form = nil
		}
		return m, nil

	case debtCreatedMsg:
		m.state = debtStateBrowse
		m.form = nil
		m.table.Focus()
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, CheckAuth(msg.err)
		}
		m.status = "Debt recorded"
		return m, m.loadCmd()
	}

	switch m.state {
	case debtStateBrowse:
		return m.updateBrowse(msg)
	case debtStateDetail:
		return m.updateDetail(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m DebtModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.session.IsManager(m.selection.CurrentID()) {
				return m.enterCreate()
			}
			m.status = errStyle.Render("Only admins and treasurers can record debts")
			return m, nil
		case "enter":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.debts) {
				m.loading = true
				return m, m.openCmd(m.debts[idx].ID)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m DebtModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		m.state = debtStateBrowse
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
	case "p":
		if m.detail != nil && !m.loading {
			return m.enterPay()
		}
	case "w":
		if m.detail != nil && !m.loading {
			return m.enterWriteOff()
		}
	}

	return m, nil
}

func (m DebtModel) enterCreate() (tea.Model, tea.Cmd) {
	m.formMembership, m.formAmount, m.formDesc, m.formDue = "", "", "", ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("membership").Title("Membership ID").Value(&m.formMembership).Validate(validID),
			huh.NewInput().Key("amount").Title("Amount").Value(&m.formAmount).Validate(validAmount),
			huh.NewInput().Key("desc").Title("Description").Value(&m.formDesc).Validate(notEmpty("description")),
			huh.NewInput().Key("due").Title("Due date (optional, YYYY-MM-DD)").Value(&m.formDue).Validate(validOptionalDate),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = debtStateCreate
	m.table.Blur()
	return m, m.form.Init()
}

func (m DebtModel) enterPay() (tea.Model, tea.Cmd) {
	m.formAmount, m.formCode, m.formRef = "", "", ""
	m.formDate = api.Today().String()

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("amount").Title("Amount").Value(&m.formAmount).Validate(validAmount),
			huh.NewInput().Key("date").Title("Payment date (YYYY-MM-DD)").Value(&m.formDate).Validate(validDate),
			huh.NewInput().Key("code").Title("Transaction code").Value(&m.formCode),
			huh.NewInput().Key("ref").Title("Reference number").Value(&m.formRef),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = debtStatePay
	return m, m.form.Init()
}

func (m DebtModel) enterWriteOff() (tea.Model, tea.Cmd) {
	m.confirmed = false

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Write off debt #%d (%s)?", m.detail.ID, FormatAmount(m.detail.Amount))).
				Description("The remaining balance will no longer be collected.").
				Affirmative("Write off").
				Negative("Cancel").
				Value(&m.confirmed),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = debtStateWriteOff
	return m, m.form.Init()
}

func (m DebtModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			if m.state == debtStateCreate {
				m.state = debtStateBrowse
				m.table.Focus()
			} else {
				m.state = debtStateDetail
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

	switch m.state {
	case debtStateCreate:
		m.loading = true
		return m, m.createCmd()
	case debtStatePay:
		m.loading = true
		return m, m.payCmd(*m.detail)
	case debtStateWriteOff:
		if !m.form.GetBool("confirm") {
			m.state = debtStateDetail
			m.form = nil
			return m, nil
		}
		m.loading = true
		return m, m.writeOffCmd(*m.detail)
	}

	return m, nil
}

func (m DebtModel) View() string {
	if m.loading && m.state == debtStateBrowse {
		return lipgloss.NewStyle().Padding(2).Render("Loading debts...")
	}

	switch m.state {
	case debtStateDetail, debtStatePay, debtStateWriteOff:
		return m.viewDetail()
	default:
		return m.viewBrowse()
	}
}

func (m DebtModel) viewBrowse() string {
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

	if m.state == debtStateCreate && m.form != nil {
		panel := panelStyle.Width(48).Render("Record Debt\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m DebtModel) viewDetail() string {
	if m.detailErr != nil {
		msg := fmt.Sprintf("Error: %v", m.detailErr)
		switch {
		case api.IsForbidden(m.detailErr):
			msg = "You don't have permission to view this debt"
		case api.IsNotFound(m.detailErr):
			msg = "Debt not found"
		}

		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(msg) + "\n\n(Esc to go back)")
	}

	if m.detail == nil {
		return lipgloss.NewStyle().Padding(2).Render("Loading debt...")
	}

	d := m.detail

	var b strings.Builder
	fmt.Fprintf(&b, "Debt #%d — %s\n\n", d.ID, d.MemberName)
	fmt.Fprintf(&b, "Status:      %s\n", StatusBadge(string(d.Status)))
	fmt.Fprintf(&b, "Amount:      %s\n", FormatAmount(d.Amount))
	fmt.Fprintf(&b, "Description: %s\n", d.Description)
	fmt.Fprintf(&b, "Created:     %s\n", FormatDate(d.CreatedDate))
	if d.DueDate != nil {
		fmt.Fprintf(&b, "Due:         %s\n", d.DueDate.String())
	}

	fmt.Fprintf(&b, "\nPaid: %s   Remaining: %s   Progress: %d%%\n",
		FormatAmount(m.summary.TotalPaid),
		FormatAmount(m.summary.RemainingBalance),
		m.summary.ProgressPercent,
	)

	if len(m.payments) > 0 {
		b.WriteString("\nPayments:\n")
		for _, p := range m.payments {
			fmt.Fprintf(&b, "  %s  %12s  %s\n", p.PaymentDate.String(), FormatAmount(p.Amount), p.TransactionCode)
		}
	}

	content := b.String()

	if (m.state == debtStatePay || m.state == debtStateWriteOff) && m.form != nil {
		title := "Add Payment"
		if m.state == debtStateWriteOff {
			title = "Write Off"
		}
		panel := panelStyle.Width(48).Render(title + "\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func (m *DebtModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.debts))
	for _, d := range m.debts {
		rows = append(rows, table.Row{
			strconv.FormatInt(d.ID, 10),
			d.MemberName,
			FormatAmount(d.Amount),
			string(d.Status),
			d.Description,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type debtsLoadedMsg struct {
	debts []debt.Debt
	err   error
}

func (m DebtModel) loadCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()
	userID := m.session.UserID()
	mine := m.mine

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		var (
			debts []debt.Debt
			err   error
		)

		if mine {
			debts, err = m.service.ListByUser(ctx, saccoID, userID)
		} else {
			debts, err = m.service.ListBySacco(ctx, saccoID)
		}

		return debtsLoadedMsg{debts: debts, err: err}
	}
}

type debtOpenedMsg struct {
	debt     *debt.Debt
	payments []debt.Payment
	err      error
}

func (m DebtModel) openCmd(debtID int64) tea.Cmd {
	saccoID := m.selection.CurrentID()

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		d, err := m.service.Get(ctx, saccoID, debtID)
		if err != nil {
			return debtOpenedMsg{err: err}
		}

		payments, err := m.service.Payments(ctx, debtID)
		if err != nil {
			return debtOpenedMsg{err: err}
		}

		return debtOpenedMsg{debt: &d, payments: payments}
	}
}

type debtActionMsg struct {
	debt     *debt.Debt
	payments []debt.Payment
	summary  debt.Summary
	status   string
	err      error
}

func (m DebtModel) payCmd(d debt.Debt) tea.Cmd {
	amount, err := decimal.NewFromString(m.form.GetString("amount"))
	if err != nil {
		return func() tea.Msg { return debtActionMsg{err: fmt.Errorf("invalid amount: %w", err)} }
	}

	date, err := api.ParseDate(m.form.GetString("date"))
	if err != nil {
		return func() tea.Msg { return debtActionMsg{err: err} }
	}

	params := debt.PaymentParams{
		Amount:          amount,
		PaymentDate:     date,
		TransactionCode: m.form.GetString("code"),
		ReferenceNumber: m.form.GetString("ref"),
	}

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		updated, payments, summary, err := m.service.AddPayment(ctx, d, params)
		if err != nil {
			return debtActionMsg{err: err}
		}

		return debtActionMsg{debt: &updated, payments: payments, summary: summary, status: "Payment added"}
	}
}

func (m DebtModel) writeOffCmd(d debt.Debt) tea.Cmd {
	manager := m.session.IsManager(d.SaccoID)

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		updated, err := m.service.WriteOff(ctx, d, manager)
		if err != nil {
			return debtActionMsg{err: err}
		}

		return debtActionMsg{debt: &updated, status: "Debt written off"}
	}
}

type debtCreatedMsg struct {
	err error
}

func (m DebtModel) createCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()

	membershipID, err := strconv.ParseInt(strings.TrimSpace(m.form.GetString("membership")), 10, 64)
	if err != nil {
		return func() tea.Msg { return debtCreatedMsg{err: fmt.Errorf("invalid membership id: %w", err)} }
	}

	amount, err := decimal.NewFromString(m.form.GetString("amount"))
	if err != nil {
		return func() tea.Msg { return debtCreatedMsg{err: fmt.Errorf("invalid amount: %w", err)} }
	}

	params := debt.CreateParams{
		MembershipID: membershipID,
		Amount:       amount,
		Description:  m.form.GetString("desc"),
	}
	if due := strings.TrimSpace(m.form.GetString("due")); due != "" {
		d, err := api.ParseDate(due)
		if err != nil {
			return func() tea.Msg { return debtCreatedMsg{err: err} }
		}
		params.DueDate = &d
	}

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		_, err := m.service.Create(ctx, saccoID, params)
		return debtCreatedMsg{err: err}
	}
}

func validID(s string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("must be a positive id")
	}

	return nil
}

func validOptionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	return validDate(s)
}
