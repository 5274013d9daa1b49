package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmwangi/saccoterm/internal/auth"
	"github.com/jmwangi/saccoterm/internal/member"
	"github.com/jmwangi/saccoterm/internal/sacco"
)

type memberState int

const (
	memberStateRoster memberState = iota
	memberStateChangeRole
	memberStateRequests
)

type MemberModel struct {
	CommonModel
	members   *member.Service
	saccos    *sacco.Service
	session   *auth.Session
	selection *sacco.Selection

	state    memberState
	table    table.Model
	reqTable table.Model
	roster   []sacco.Member
	requests []member.JoinRequest
	roles    []auth.Role
	loading  bool
	err      error
	status   string

	form     *huh.Form
	formRole string
	target   sacco.Member
}

func NewMemberModel(members *member.Service, saccos *sacco.Service, session *auth.Session, selection *sacco.Selection) MemberModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 24},
		{Title: "Email", Width: 26},
		{Title: "Role", Width: 12},
	}
	reqColumns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "User", Width: 24},
		{Title: "Message", Width: 30},
		{Title: "Requested", Width: 12},
	}

	return MemberModel{
		members:   members,
		saccos:    saccos,
		session:   session,
		selection: selection,
		table:     newTable(columns),
		reqTable:  newTable(reqColumns),
		loading:   true,
	}
}

func (m MemberModel) Title() string { return "Members" }
func (m MemberModel) ShortHelp() string {
	switch m.state {
	case memberStateRoster:
		return "Esc: back | c: change role | j: join requests | r: refresh"
	case memberStateRequests:
		return "Esc: roster | a: approve | x: reject | r: refresh"
	default:
		return "Navigate form | Esc: cancel"
	}
}

func (m MemberModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m MemberModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case rosterLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, CheckAuth(msg.err)
		}
		m.err = nil
		m.roster = msg.roster
		m.roles = msg.roles
		m.refreshRoster()
		return m, nil

	case requestsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, CheckAuth(msg.err)
		}
		m.requests = msg.requests
		m.refreshRequests()
		return m, nil

	case memberActionMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, CheckAuth(msg.err)
		}
		m.status = msg.status
		if m.state == memberStateChangeRole {
			m.state = memberStateRoster
			m.form = nil
			m.table.Focus()
			return m, m.loadCmd()
		}
		return m, m.requestsCmd()
	}

	switch m.state {
	case memberStateRoster:
		return m.updateRoster(msg)
	case memberStateRequests:
		return m.updateRequests(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m MemberModel) updateRoster(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "j":
			if !m.session.IsManager(m.selection.CurrentID()) {
				m.status = errStyle.Render("Only admins and treasurers can review join requests")
				return m, nil
			}
			m.state = memberStateRequests
			m.loading = true
			m.table.Blur()
			m.reqTable.Focus()
			return m, m.requestsCmd()
		case "c":
			if !m.session.IsAdmin(m.selection.CurrentID()) {
				m.status = errStyle.Render("Only admins can change roles")
				return m, nil
			}
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.roster) {
				return m.enterChangeRole(m.roster[idx])
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m MemberModel) updateRequests(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = memberStateRoster
			m.status = ""
			m.reqTable.Blur()
			m.table.Focus()
			return m, nil
		case "r":
			m.loading = true
			return m, m.requestsCmd()
		case "a", "x":
			idx := m.reqTable.Cursor()
			if idx >= 0 && idx < len(m.requests) && !m.loading {
				m.loading = true
				return m, m.resolveCmd(m.requests[idx], keyMsg.String() == "a")
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.reqTable, cmd = m.reqTable.Update(msg)
	return m, cmd
}

func (m MemberModel) enterChangeRole(target sacco.Member) (tea.Model, tea.Cmd) {
	if len(m.roles) == 0 {
		m.status = errStyle.Render("No roles available for this sacco")
		return m, nil
	}

	m.target = target
	m.formRole = ""

	options := make([]huh.Option[string], 0, len(m.roles))
	for _, role := range m.roles {
		options = append(options, huh.NewOption(role.Name, strconv.FormatInt(role.ID, 10)))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("role").
				Title(fmt.Sprintf("New role for %s %s", target.FirstName, target.LastName)).
				Options(options...).
				Value(&m.formRole),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = memberStateChangeRole
	m.table.Blur()
	return m, m.form.Init()
}

func (m MemberModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = memberStateRoster
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
	return m, m.changeRoleCmd()
}

func (m MemberModel) View() string {
	if m.loading && m.err == nil && len(m.roster) == 0 && m.state == memberStateRoster {
		return lipgloss.NewStyle().Padding(2).Render("Loading members...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	var content string
	if m.state == memberStateRequests {
		header := fmt.Sprintf("Pending join requests (%d)", len(m.requests))
		content = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().PaddingBottom(1).Render(header),
			borderedTable(m.reqTable),
		)
	} else {
		content = borderedTable(m.table)
	}

	if m.state == memberStateChangeRole && m.form != nil {
		panel := panelStyle.Width(48).Render("Change Role\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *MemberModel) refreshRoster() {
	rows := make([]table.Row, 0, len(m.roster))
	for _, mem := range m.roster {
		rows = append(rows, table.Row{
			strconv.FormatInt(mem.ID, 10),
			mem.FirstName + " " + mem.LastName,
			mem.Email,
			mem.RoleName,
		})
	}
	m.table.SetRows(rows)
}

func (m *MemberModel) refreshRequests() {
	rows := make([]table.Row, 0, len(m.requests))
	for _, req := range m.requests {
		rows = append(rows, table.Row{
			strconv.FormatInt(req.ID, 10),
			req.UserName,
			req.Message,
			FormatDate(req.RequestDate),
		})
	}
	m.reqTable.SetRows(rows)
}

// Messages

type rosterLoadedMsg struct {
	roster []sacco.Member
	roles  []auth.Role
	err    error
}

func (m MemberModel) loadCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		roster, err := m.saccos.Members(ctx, saccoID)
		if err != nil {
			return rosterLoadedMsg{err: err}
		}

		roles, err := m.members.Roles(ctx, saccoID)
		if err != nil {
			return rosterLoadedMsg{err: err}
		}

		return rosterLoadedMsg{roster: roster, roles: roles}
	}
}

type requestsLoadedMsg struct {
	requests []member.JoinRequest
	err      error
}

func (m MemberModel) requestsCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		requests, err := m.members.JoinRequests(ctx, saccoID)
		return requestsLoadedMsg{requests: requests, err: err}
	}
}

type memberActionMsg struct {
	status string
	err    error
}

func (m MemberModel) resolveCmd(req member.JoinRequest, approve bool) tea.Cmd {
	saccoID := m.selection.CurrentID()

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		if approve {
			if err := m.members.ApproveJoinRequest(ctx, saccoID, req.ID, "Welcome aboard"); err != nil {
				return memberActionMsg{err: err}
			}
			return memberActionMsg{status: fmt.Sprintf("Approved %s", req.UserName)}
		}

		if err := m.members.RejectJoinRequest(ctx, saccoID, req.ID, ""); err != nil {
			return memberActionMsg{err: err}
		}

		return memberActionMsg{status: fmt.Sprintf("Rejected %s", req.UserName)}
	}
}

func (m MemberModel) changeRoleCmd() tea.Cmd {
	saccoID := m.selection.CurrentID()
	target := m.target

	roleID, err := strconv.ParseInt(m.form.GetString("role"), 10, 64)
	if err != nil {
		return func() tea.Msg { return memberActionMsg{err: fmt.Errorf("invalid role: %w", err)} }
	}

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		updated, err := m.members.ChangeRole(ctx, saccoID, target.ID, roleID)
		if err != nil {
			return memberActionMsg{err: err}
		}

		return memberActionMsg{status: fmt.Sprintf("Role changed to %s", updated.Role.Name)}
	}
}
