package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/jmwangi/saccoterm/internal/auth"
	"github.com/jmwangi/saccoterm/internal/dividend"
	"github.com/jmwangi/saccoterm/internal/sacco"
)

type dividendState int

const (
	dividendStateBrowse dividendState = iota
	dividendStateDeclare
	dividendStateAllocations
	dividendStateMarkPaid
)

type DividendModel struct {
	CommonModel
	service   *dividend.Service
	session   *auth.Session
	selection *sacco.Selection

	state       dividendState
	table       table.Model
	allocTable  table.Model
	dividends   []dividend.Dividend
	detail      *dividend.Dividend
	allocations []dividend.MemberDividend
	loading     bool
	err         error
	status      string

	form       *huh.Form
	formYear   string
	formAmount string
	formDesc   string
	formCode   string
	target     dividend.MemberDividend
}

func NewDividendModel(svc *dividend.Service, session *auth.Session, selection *sacco.Selection) DividendModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Year", Width: 6},
		{Title: "Total", Width: 14},
		{Title: "Distributed", Width: 12},
		{Title: "Declared", Width: 12},
	}
	allocColumns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Member", Width: 24},
		{Title: "Amount", Width: 12},
		{Title: "Paid", Width: 6},
		{Title: "Code", Width: 16},
	}

	return DividendModel{
		service:    svc,
		session:    session,
		selection:  selection,
		table:      newTable(columns),
		allocTable: newTable(allocColumns),
		loading:    true,
	}
}

func (m DividendModel) Title() string { return "Dividends" }
func (m DividendModel) ShortHelp() string {
	switch m.state {
	case dividendStateBrowse:
		return "Esc: back | Enter: allocations | n: declare | d: distribute | r: refresh"
	case dividendStateAllocations:
		return "Esc: list | p: mark paid | r: refresh"
	default:
		return "Navigate form | Esc: cancel"
	}
}

func (m DividendModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DividendModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dividendsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, CheckAuth(msg.err)
		}
		m.err = nil
		m.dividends = msg.dividends
		m.refreshTable()
		return m, nil

	case allocationsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, CheckAuth(msg.err)
		}
		m.state = dividendStateAllocations
		m.allocations = msg.allocations
		m.refreshAllocations()
		return m, nil

	case dividendActionMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, CheckAuth(msg.err)
		}
		m.status = msg.status
		switch m.state {
		case dividendStateDeclare:
			m.state = dividendStateBrowse
			m.form = nil
			m.table.Focus()
			return m, m.loadCmd()
		case dividendStateMarkPaid:
			m.state = dividendStateAllocations
			m.form = nil
			return m, m.allocationsCmd(m.detail.ID)
		default:
			return m, m.loadCmd()
		}
	}

	switch m.state {
	case dividendStateBrowse:
		return m.updateBrowse(msg)
	case dividendStateAllocations:
		return m.updateAllocations(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m DividendModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			if !m.session.IsManager(m.selection.CurrentID()) {
				m.status = errStyle.Render("Only admins and treasurers can declare dividends")
				return m, nil
			}
			return m.enterDeclare()
		case "d":
			if !m.session.IsManager(m.selection.CurrentID()) {
				m.status = errStyle.Render("Only admins and treasurers can distribute dividends")
				return m, nil
			}
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.dividends) && !m.loading {
				d := m.dividends[idx]
				if d.Distributed {
					m.status = errStyle.Render("Dividend is already distributed")
					return m, nil
				}
				m.loading = true
				return m, m.distributeCmd(d.ID)
			}
			return m, nil
		case "enter":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.dividends) {
				d := m.dividends[idx]
				m.detail = &d
				m.loading = true
				m.table.Blur()
				m.allocTable.Focus()
				return m, m.allocationsCmd(d.ID)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m DividendModel) updateAllocations(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = dividendStateBrowse
			m.detail = nil
			m.status = ""
			m.allocTable.Blur()
			m.table.Focus()
			return m, nil
		case "r":
			if m.detail != nil {
				m.loading = true
				return m, m.allocationsCmd(m.detail.ID)
			}
		case "p":
			if !m.session.IsManager(m.selection.CurrentID()) {
				m.status = errStyle.Render("Only admins and treasurers can mark payouts")
				return m, nil
			}
			idx := m.allocTable.Cursor()
			if idx >= 0 && idx < len(m.allocations) && !m.loading {
				alloc := m.allocations[idx]
				if alloc.Paid {
					m.status = errStyle.Render("Allocation is already paid")
					return m, nil
				}
				return m.enterMarkPaid(alloc)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.allocTable, cmd = m.allocTable.Update(msg)
	return m, cmd
}

func (m DividendModel) enterDeclare() (tea.Model, tea.Cmd) {
	m.formAmount, m.formDesc = "", ""
	m.formYear = strconv.Itoa(time.Now().Year())

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("year").Title("Year").Value(&m.formYear).Validate(validYear),
			huh.NewInput().Key("amount").Title("Total amount").Value(&m.formAmount).Validate(validAmount),
			huh.NewInput().Key("desc").Title("Description").Value(&m.formDesc),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = dividendStateDeclare
	m.table.Blur()
	return m, m.form.Init()
}

func (m DividendModel) enterMarkPaid(target dividend.MemberDividend) (tea.Model, tea.Cmd) {
	m.target = target
	m.formCode = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("code").
				Title(fmt.Sprintf("Transaction code for %s (%s)", target.MemberName, FormatAmount(target.Amount))).
				Value(&m.formCode).
				Validate(notEmpty("transaction code")),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = dividendStateMarkPaid
	return m, m.form.Init()
}

func (m DividendModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			if m.state == dividendStateMarkPaid {
				m.state = dividendStateAllocations
			} else {
				m.state = dividendStateBrowse
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

	if m.state == dividendStateDeclare {
		return m, m.declareCmd()
	}

	return m, m.markPaidCmd()
}

func (m DividendModel) View() string {
	if m.loading && m.state == dividendStateBrowse {
		return lipgloss.NewStyle().Padding(2).Render("Loading dividends...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	var content string
	if m.state == dividendStateAllocations || m.state == dividendStateMarkPaid {
		header := ""
		if m.detail != nil {
			header = fmt.Sprintf("Dividend %d — %s", m.detail.Year, FormatAmount(m.detail.TotalAmount))
		}
		content = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().PaddingBottom(1).Render(header),
			borderedTable(m.allocTable),
		)
	} else {
		content = borderedTable(m.table)
	}

	if m.form != nil {
		title := "Declare Dividend"
		if m.state == dividendStateMarkPaid {
			title = "Mark Paid"
		}
		panel := panelStyle.Width(48).Render(title + "\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *DividendModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.dividends))
	for _, d := range m.dividends {
		distributed := "no"
		if d.Distributed {
			distributed = "yes"
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(d.ID, 10),
			strconv.Itoa(d.Year),
			FormatAmount(d.TotalAmount),
			distributed,
			FormatDate(d.DeclaredDate),
		})
	}
	m.table.SetRows(rows)
}

func (m *DividendModel) refreshAllocations() {
	rows := make([]table.Row, 0, len(m.allocations))
	for _, a := range m.allocations {
		paid := "no"
		if a.Paid {
			paid = "yes"
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(a.ID, 10),
			a.MemberName,
			FormatAmount(a.Amount),
			paid,
			a.TransactionCode,
		})
	}
	m.allocTable.SetRows(rows)
}

// Messages

type dividendsLoadedMsg struct {
	dividends []dividend.Dividend
	err       error
}

func (m DividendModel) loadCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		dividends, err := m.service.ListBySacco(ctx, saccoID)
		return dividendsLoadedMsg{dividends: dividends, err: err}
	}
}

type allocationsLoadedMsg struct {
	allocations []dividend.MemberDividend
	err         error
}

func (m DividendModel) allocationsCmd(dividendID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		allocations, err := m.service.MemberDividends(ctx, dividendID)
		return allocationsLoadedMsg{allocations: allocations, err: err}
	}
}

type dividendActionMsg struct {
	status string
	err    error
}

func (m DividendModel) declareCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()

	year, err := strconv.Atoi(strings.TrimSpace(m.form.GetString("year")))
	if err != nil {
		return func() tea.Msg { return dividendActionMsg{err: fmt.Errorf("invalid year: %w", err)} }
	}

	amount, err := decimal.NewFromString(m.form.GetString("amount"))
	if err != nil {
		return func() tea.Msg { return dividendActionMsg{err: fmt.Errorf("invalid amount: %w", err)} }
	}

	params := dividend.DeclareParams{
		Year:        year,
		TotalAmount: amount,
		Description: m.form.GetString("desc"),
	}

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		d, err := m.service.Declare(ctx, saccoID, params)
		if err != nil {
			return dividendActionMsg{err: err}
		}

		return dividendActionMsg{status: fmt.Sprintf("Dividend declared for %d", d.Year)}
	}
}

func (m DividendModel) distributeCmd(dividendID int64) tea.Cmd {
	saccoID := m.selection.CurrentID()

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		if _, err := m.service.Distribute(ctx, saccoID, dividendID); err != nil {
			return dividendActionMsg{err: err}
		}

		return dividendActionMsg{status: "Dividend distributed"}
	}
}

func (m DividendModel) markPaidCmd() tea.Cmd {
	target := m.target
	code := strings.TrimSpace(m.form.GetString("code"))

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		if _, err := m.service.MarkPaid(ctx, target.DividendID, target.ID, code); err != nil {
			return dividendActionMsg{err: err}
		}

		return dividendActionMsg{status: fmt.Sprintf("Marked %s as paid", target.MemberName)}
	}
}

func validYear(s string) error {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || year < 2000 || year > 2200 {
		return fmt.Errorf("year must be a four digit year")
	}

	return nil
}
