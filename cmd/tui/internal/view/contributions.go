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
	"github.com/jmwangi/saccoterm/internal/contribution"
	"github.com/jmwangi/saccoterm/internal/sacco"
)

type contribState int

const (
	contribStateBrowse contribState = iota
	contribStateCreate
)

type ContributionModel struct {
	CommonModel
	service   *contribution.Service
	session   *auth.Session
	selection *sacco.Selection

	state         contribState
	table         table.Model
	contributions []contribution.Contribution
	mine          bool
	loading       bool
	err           error
	status        string

	form           *huh.Form
	formMembership string
	formAmount     string
	formType       string
	formDate       string
}

func NewContributionModel(svc *contribution.Service, session *auth.Session, selection *sacco.Selection) ContributionModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Member", Width: 22},
		{Title: "Amount", Width: 12},
		{Title: "Type", Width: 14},
		{Title: "Date", Width: 12},
	}

	return ContributionModel{
		service:   svc,
		session:   session,
		selection: selection,
		table:     newTable(columns),
		loading:   true,
	}
}

func (m ContributionModel) Title() string { return "Contributions" }
func (m ContributionModel) ShortHelp() string {
	if m.state == contribStateCreate {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | n: record contribution | m: toggle mine/all | r: refresh"
}

func (m ContributionModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ContributionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case contributionsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, CheckAuth(msg.err)
		}
		m.err = nil
		m.contributions = msg.contributions
		m.refreshTable()
		return m, nil

	case contributionCreatedMsg:
		m.state = contribStateBrowse
		m.form = nil
		m.table.Focus()
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, CheckAuth(msg.err)
		}
		m.status = "Contribution recorded"
		return m, m.loadCmd()
	}

	if m.state == contribStateCreate {
		return m.updateForm(msg)
	}

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
			if !m.session.IsManager(m.selection.CurrentID()) {
				m.status = errStyle.Render("Only admins and treasurers can record contributions")
				return m, nil
			}
			return m.enterCreate()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ContributionModel) enterCreate() (tea.Model, tea.Cmd) {
	m.formMembership, m.formAmount = "", ""
	m.formType = string(contribution.TypeMonthly)
	m.formDate = api.Today().String()

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("membership").Title("Membership ID").Value(&m.formMembership).Validate(validID),
			huh.NewInput().Key("amount").Title("Amount").Value(&m.formAmount).Validate(validAmount),
			huh.NewSelect[string]().
				Key("type").
				Title("Type").
				Options(
					huh.NewOption("Monthly", string(contribution.TypeMonthly)),
					huh.NewOption("Share capital", string(contribution.TypeShareCapital)),
				).
				Value(&m.formType),
			huh.NewInput().Key("date").Title("Contributed date (YYYY-MM-DD)").Value(&m.formDate).Validate(validDate),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = contribStateCreate
	m.table.Blur()
	return m, m.form.Init()
}

func (m ContributionModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = contribStateBrowse
			m.form = nil
			m.table.Focus()
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
	return m, m.createCmd()
}

func (m ContributionModel) View() string {
	if m.loading && m.state == contribStateBrowse {
		return lipgloss.NewStyle().Padding(2).Render("Loading contributions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	scope := "All"
	if m.mine {
		scope = "Mine"
	}

	total := decimal.Zero
	for _, c := range m.contributions {
		total = total.Add(c.Amount)
	}

	header := fmt.Sprintf("Filter: [m] Scope: %s   Total: %s", activeStyle(scope), FormatAmount(total))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		borderedTable(m.table),
	)

	if m.state == contribStateCreate && m.form != nil {
		panel := panelStyle.Width(48).Render("Record Contribution\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ContributionModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.contributions))
	for _, c := range m.contributions {
		rows = append(rows, table.Row{
			strconv.FormatInt(c.ID, 10),
			c.MemberName,
			FormatAmount(c.Amount),
			string(c.Type),
			c.ContributedDate.String(),
		})
	}
	m.table.SetRows(rows)
}

// Messages

type contributionsLoadedMsg struct {
	contributions []contribution.Contribution
	err           error
}

func (m ContributionModel) loadCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()
	userID := m.session.UserID()
	mine := m.mine

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		var (
			contributions []contribution.Contribution
			err           error
		)

		if mine {
			contributions, err = m.service.ListByUser(ctx, saccoID, userID)
		} else {
			contributions, err = m.service.ListBySacco(ctx, saccoID)
		}

		return contributionsLoadedMsg{contributions: contributions, err: err}
	}
}

type contributionCreatedMsg struct {
	err error
}

func (m ContributionModel) createCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()

	membershipID, err := strconv.ParseInt(strings.TrimSpace(m.form.GetString("membership")), 10, 64)
	if err != nil {
		return func() tea.Msg { return contributionCreatedMsg{err: fmt.Errorf("invalid membership id: %w", err)} }
	}

	amount, err := decimal.NewFromString(m.form.GetString("amount"))
	if err != nil {
		return func() tea.Msg { return contributionCreatedMsg{err: fmt.Errorf("invalid amount: %w", err)} }
	}

	date, err := api.ParseDate(m.form.GetString("date"))
	if err != nil {
		return func() tea.Msg { return contributionCreatedMsg{err: err} }
	}

	params := contribution.CreateParams{
		MembershipID:    membershipID,
		Amount:          amount,
		Type:            contribution.Type(m.form.GetString("type")),
		ContributedDate: date,
	}

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		_, err := m.service.Create(ctx, saccoID, params)
		return contributionCreatedMsg{err: err}
	}
}
