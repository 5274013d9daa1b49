package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmwangi/saccoterm/internal/auth"
	"github.com/jmwangi/saccoterm/internal/sacco"
)

type saccoState int

const (
	saccoStateBrowse saccoState = iota
	saccoStateCreate
	saccoStateDetail
	saccoStateEdit
	saccoStateSearch
	saccoStateResults
	saccoStateJoin
)

type SaccoModel struct {
	CommonModel
	service   *sacco.Service
	session   *auth.Session
	selection *sacco.Selection

	state   saccoState
	table   table.Model
	saccos  []sacco.Sacco
	form    *huh.Form
	loading bool
	err     error
	status  string

	detail    *sacco.Sacco
	stats     sacco.Statistics
	detailErr error

	results table.Model
	found   []sacco.Sacco
	target  sacco.Sacco

	formName  string
	formDesc  string
	formLoc   string
	formQuery string
	formMsg   string
}

func NewSaccoModel(svc *sacco.Service, session *auth.Session, selection *sacco.Selection) SaccoModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 28},
		{Title: "Location", Width: 16},
		{Title: "Members", Width: 8},
		{Title: "Active", Width: 8},
	}

	resultColumns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 28},
		{Title: "Location", Width: 16},
		{Title: "Members", Width: 8},
	}

	return SaccoModel{
		service:   svc,
		session:   session,
		selection: selection,
		table:     newTable(columns),
		results:   newTable(resultColumns),
		loading:   true,
	}
}

func (m SaccoModel) Title() string { return "My Saccos" }
func (m SaccoModel) ShortHelp() string {
	switch m.state {
	case saccoStateBrowse:
		return "Esc: back | Enter: select | v: details | c: create | e: edit | s: search | r: refresh"
	case saccoStateDetail:
		return "Esc: list | r: refresh"
	case saccoStateResults:
		return "Esc: list | j: request to join | s: search again"
	case saccoStateCreate, saccoStateEdit, saccoStateSearch, saccoStateJoin:
		return "Navigate form | Esc: cancel"
	}
	return ""
}

func (m SaccoModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m SaccoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case saccosLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, CheckAuth(msg.err)
		}
		m.err = nil
		m.saccos = msg.saccos
		m.refreshTable()
		return m, nil

	case saccoCreatedMsg:
		m.state = saccoStateBrowse
		m.form = nil
		m.table.Focus()
		if msg.err != nil {
			m.status = fmt.Sprintf("Error creating sacco: %v", msg.err)
			return m, CheckAuth(msg.err)
		}
		m.status = fmt.Sprintf("Created %q", msg.created.Name)
		return m, m.loadCmd()

	case saccoUpdatedMsg:
		m.state = saccoStateBrowse
		m.form = nil
		m.table.Focus()
		if msg.err != nil {
			m.status = fmt.Sprintf("Error updating sacco: %v", msg.err)
			return m, CheckAuth(msg.err)
		}
		m.status = fmt.Sprintf("Updated %q", msg.updated.Name)
		return m, m.loadCmd()

	case saccoDetailMsg:
		m.loading = false
		m.state = saccoStateDetail
		m.detailErr = msg.err
		if msg.err == nil {
			m.detail = &msg.sacco
			m.stats = msg.stats
		}
		return m, CheckAuth(msg.err)

	case saccoSearchedMsg:
		m.loading = false
		m.form = nil
		if msg.err != nil {
			m.state = saccoStateBrowse
			m.table.Focus()
			m.status = fmt.Sprintf("Search failed: %v", msg.err)
			return m, CheckAuth(msg.err)
		}
		m.state = saccoStateResults
		m.found = msg.results
		m.refreshResults()
		m.results.Focus()
		return m, nil

	case joinRequestedMsg:
		m.loading = false
		m.state = saccoStateResults
		m.form = nil
		m.results.Focus()
		if msg.err != nil {
			m.status = fmt.Sprintf("Error requesting to join: %v", msg.err)
			return m, CheckAuth(msg.err)
		}
		m.status = fmt.Sprintf("Join request sent to %q", m.target.Name)
		return m, nil
	}

	switch m.state {
	case saccoStateBrowse:
		return m.updateBrowse(msg)
	case saccoStateDetail:
		return m.updateDetail(msg)
	case saccoStateResults:
		return m.updateResults(msg)
	case saccoStateCreate, saccoStateEdit, saccoStateSearch, saccoStateJoin:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m SaccoModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "enter":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.saccos) {
				if m.selection.Select(m.saccos[idx].ID) {
					m.status = fmt.Sprintf("Active sacco: %s", m.saccos[idx].Name)
					m.refreshTable()
				}
			}
			return m, nil
		case "v":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.saccos) {
				m.loading = true
				return m, m.detailCmd(m.saccos[idx].ID)
			}
			return m, nil
		case "c":
			m.formName, m.formDesc, m.formLoc = "", "", ""
			m.form = m.saccoForm()
			m.state = saccoStateCreate
			m.table.Blur()
			return m, m.form.Init()
		case "e":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.saccos) {
				return m, nil
			}
			target := m.saccos[idx]
			if !m.session.IsManager(target.ID) {
				m.status = "Only an admin or treasurer can edit the sacco"
				return m, nil
			}
			m.formName, m.formDesc, m.formLoc = target.Name, target.Description, target.Location
			m.form = m.saccoForm()
			m.state = saccoStateEdit
			m.target = target
			m.table.Blur()
			return m, m.form.Init()
		case "s":
			m.form = m.searchForm()
			m.state = saccoStateSearch
			m.table.Blur()
			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m SaccoModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = saccoStateBrowse
			m.detail = nil
			m.detailErr = nil
			m.table.Focus()
			return m, nil
		case "r":
			if m.detail != nil {
				m.loading = true
				return m, m.detailCmd(m.detail.ID)
			}
		}
	}

	return m, nil
}

func (m SaccoModel) updateResults(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = saccoStateBrowse
			m.results.Blur()
			m.table.Focus()
			return m, nil
		case "s":
			m.form = m.searchForm()
			m.state = saccoStateSearch
			m.results.Blur()
			return m, m.form.Init()
		case "j":
			idx := m.results.Cursor()
			if idx < 0 || idx >= len(m.found) {
				return m, nil
			}
			m.target = m.found[idx]
			m.formMsg = ""
			m.form = huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Key("message").
						Title(fmt.Sprintf("Message to the admins of %q (optional)", m.target.Name)).
						Value(&m.formMsg),
				),
			).WithWidth(45).WithShowHelp(false)
			m.state = saccoStateJoin
			m.results.Blur()
			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m SaccoModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			switch m.state {
			case saccoStateJoin:
				m.state = saccoStateResults
				m.results.Focus()
			default:
				m.state = saccoStateBrowse
				m.table.Focus()
			}
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	switch m.state {
	case saccoStateCreate:
		return m, m.createCmd()
	case saccoStateEdit:
		return m, m.updateCmd(m.target.ID)
	case saccoStateSearch:
		m.loading = true
		return m, m.searchCmd()
	case saccoStateJoin:
		m.loading = true
		return m, m.joinCmd(m.target.ID)
	}

	return m, nil
}

func (m *SaccoModel) searchForm() *huh.Form {
	m.formQuery = ""

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("query").Title("Find a sacco by name or location").Value(&m.formQuery),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m *SaccoModel) saccoForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("name").Title("Name").Value(&m.formName).Validate(notEmpty("name")),
			huh.NewInput().Key("description").Title("Description").Value(&m.formDesc),
			huh.NewInput().Key("location").Title("Location").Value(&m.formLoc),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m SaccoModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading saccos...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	var content string

	switch m.state {
	case saccoStateDetail:
		content = panelStyle.Width(52).Render(m.viewDetail())
	case saccoStateResults:
		content = "Search results\n" + borderedTable(m.results)
	case saccoStateJoin:
		panel := panelStyle.Width(48).Render("Request to Join\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, borderedTable(m.results), panel)
	case saccoStateSearch:
		content = panelStyle.Width(48).Render("Search Saccos\n\n" + m.form.View())
	default:
		content = borderedTable(m.table)

		if m.form != nil {
			title := "Create Sacco"
			if m.state == saccoStateEdit {
				title = "Edit Sacco"
			}
			panel := panelStyle.Width(48).Render(title + "\n\n" + m.form.View())
			content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
		}
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m SaccoModel) viewDetail() string {
	if m.detailErr != nil {
		return errStyle.Render(fmt.Sprintf("Error: %v", m.detailErr))
	}

	if m.detail == nil {
		return "Loading..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.detail.Name)
	if m.detail.Description != "" {
		fmt.Fprintf(&b, "%s\n", m.detail.Description)
	}
	if m.detail.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", m.detail.Location)
	}
	fmt.Fprintf(&b, "Created:  %s\n\n", FormatDate(m.detail.CreatedDate))

	fmt.Fprintf(&b, "Members:             %d\n", m.stats.TotalMembers)
	fmt.Fprintf(&b, "Total contributions: %s\n", FormatAmount(m.stats.TotalContributions))
	fmt.Fprintf(&b, "Total loans:         %s\n", FormatAmount(m.stats.TotalLoans))
	fmt.Fprintf(&b, "Active loans:        %d\n", m.stats.ActiveLoans)
	fmt.Fprintf(&b, "Outstanding debts:   %s", FormatAmount(m.stats.OutstandingDebts))

	return b.String()
}

func (m *SaccoModel) refreshTable() {
	currentID := m.selection.CurrentID()

	rows := make([]table.Row, 0, len(m.saccos))
	for _, sc := range m.saccos {
		active := ""
		if sc.ID == currentID {
			active = "*"
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(sc.ID, 10),
			sc.Name,
			sc.Location,
			strconv.Itoa(sc.MemberCount),
			active,
		})
	}
	m.table.SetRows(rows)
}

func (m *SaccoModel) refreshResults() {
	rows := make([]table.Row, 0, len(m.found))
	for _, sc := range m.found {
		rows = append(rows, table.Row{
			strconv.FormatInt(sc.ID, 10),
			sc.Name,
			sc.Location,
			strconv.Itoa(sc.MemberCount),
		})
	}
	m.results.SetRows(rows)
}

// Messages

type saccosLoadedMsg struct {
	saccos []sacco.Sacco
	err    error
}

func (m SaccoModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		saccos, err := m.selection.Load(ctx)
		return saccosLoadedMsg{saccos: saccos, err: err}
	}
}

type saccoCreatedMsg struct {
	created sacco.Sacco
	err     error
}

func (m SaccoModel) createCmd() tea.Cmd {
	params := sacco.CreateParams{
		Name:        m.form.GetString("name"),
		Description: m.form.GetString("description"),
		Location:    m.form.GetString("location"),
	}

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		created, err := m.service.Create(ctx, params)
		if err != nil {
			return saccoCreatedMsg{err: err}
		}

		m.selection.Add(created)

		return saccoCreatedMsg{created: created}
	}
}

type saccoUpdatedMsg struct {
	updated sacco.Sacco
	err     error
}

func (m SaccoModel) updateCmd(saccoID int64) tea.Cmd {
	params := sacco.CreateParams{
		Name:        m.form.GetString("name"),
		Description: m.form.GetString("description"),
		Location:    m.form.GetString("location"),
	}

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		updated, err := m.service.Update(ctx, saccoID, params)
		return saccoUpdatedMsg{updated: updated, err: err}
	}
}

type saccoDetailMsg struct {
	sacco sacco.Sacco
	stats sacco.Statistics
	err   error
}

func (m SaccoModel) detailCmd(saccoID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		sc, err := m.service.Get(ctx, saccoID)
		if err != nil {
			return saccoDetailMsg{err: err}
		}

		stats, err := m.service.Statistics(ctx, saccoID)
		if err != nil {
			return saccoDetailMsg{err: err}
		}

		return saccoDetailMsg{sacco: sc, stats: stats}
	}
}

type saccoSearchedMsg struct {
	results []sacco.Sacco
	err     error
}

func (m SaccoModel) searchCmd() tea.Cmd {
	query := strings.TrimSpace(m.form.GetString("query"))

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		results, err := m.service.Search(ctx, query)
		return saccoSearchedMsg{results: results, err: err}
	}
}

type joinRequestedMsg struct {
	err error
}

func (m SaccoModel) joinCmd(saccoID int64) tea.Cmd {
	message := m.form.GetString("message")

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return joinRequestedMsg{err: m.service.RequestJoin(ctx, saccoID, message)}
	}
}
