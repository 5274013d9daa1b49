package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmwangi/saccoterm/internal/auth"
	"github.com/jmwangi/saccoterm/internal/sacco"
	"github.com/jmwangi/saccoterm/internal/transaction"
)

// TransactionModel is a read-only ledger of sacco money movement. Records are
// written server-side when contributions, repayments and payouts happen.
type TransactionModel struct {
	CommonModel
	service   *transaction.Service
	session   *auth.Session
	selection *sacco.Selection

	table        table.Model
	transactions []transaction.Transaction
	mine         bool
	loading      bool
	err          error
}

func NewTransactionModel(svc *transaction.Service, session *auth.Session, selection *sacco.Selection) TransactionModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Date", Width: 12},
		{Title: "Type", Width: 20},
		{Title: "Member", Width: 20},
		{Title: "Amount", Width: 12},
		{Title: "Description", Width: 30},
	}

	return TransactionModel{
		service:   svc,
		session:   session,
		selection: selection,
		table:     newTable(columns),
		loading:   true,
	}
}

func (m TransactionModel) Title() string { return "Transactions" }
func (m TransactionModel) ShortHelp() string {
	return "Esc: back | m: toggle mine/all | r: refresh"
}

func (m TransactionModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m TransactionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case transactionsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, CheckAuth(msg.err)
		}
		m.err = nil
		m.transactions = msg.transactions
		m.refreshTable()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "m":
			m.mine = !m.mine
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m TransactionModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

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

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *TransactionModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.transactions))
	for _, tx := range m.transactions {
		rows = append(rows, table.Row{
			strconv.FormatInt(tx.ID, 10),
			FormatDate(tx.Date),
			string(tx.Type),
			tx.MemberName,
			FormatAmount(tx.Amount),
			tx.Description,
		})
	}
	m.table.SetRows(rows)
}

type transactionsLoadedMsg struct {
	transactions []transaction.Transaction
	err          error
}

func (m TransactionModel) loadCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()
	userID := m.session.UserID()
	mine := m.mine

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		var (
			transactions []transaction.Transaction
			err          error
		)

		if mine {
			transactions, err = m.service.ListByUser(ctx, saccoID, userID)
		} else {
			transactions, err = m.service.ListBySacco(ctx, saccoID)
		}

		return transactionsLoadedMsg{transactions: transactions, err: err}
	}
}
