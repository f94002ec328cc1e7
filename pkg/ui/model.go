package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xlttj/stassh/pkg/app"
	"github.com/xlttj/stassh/pkg/logging"
	"github.com/xlttj/stassh/pkg/profile"
)

// Model represents the state of the UI
type Model struct {
	uiState UIState

	// Core components
	manager *app.Manager
	kind    profile.Kind // Active profile kind tab
	width   int
	height  int

	// Central error message
	errorMsg string
	// Status/info message (non-error feedback)
	statusMsg string

	// Profiles table
	profilesTable table.Model

	// Filter state
	filterMode       bool            // Whether filtering is active
	filterInput      textinput.Model // The search input component
	filteredProfiles []profile.Profile

	// Form state (create/edit)
	form *formState

	// Pending delete confirmation
	deleteTarget profile.Profile
}

// columnsFor returns column widths for the active kind based on the
// terminal width.
func (m *Model) columnsFor(kind profile.Kind) []table.Column {
	availableWidth := max(m.width-10, 60)

	// Fixed-width trailing columns; NAME takes what remains.
	type col struct {
		title string
		width int
	}
	var fixed []col
	switch kind {
	case profile.KindDirect:
		fixed = []col{{ColHost, 22}, {ColPort, 6}, {ColUser, 12}, {ColKey, 16}}
	case profile.KindProxyJump:
		fixed = []col{{ColJump, 26}, {ColTarget, 26}, {ColKey, 16}}
	case profile.KindPortForward:
		fixed = []col{{ColLocal, 6}, {ColRemote, 22}, {ColTarget, 22}, {ColStatus, 8}}
	}

	used := 0
	for _, c := range fixed {
		used += c.width
	}
	nameWidth := max(availableWidth-used, 12)

	columns := []table.Column{{Title: ColName, Width: nameWidth}}
	for _, c := range fixed {
		columns = append(columns, table.Column{Title: c.title, Width: c.width})
	}
	return columns
}

// rowFor flattens a profile into the active kind's table columns.
func (m *Model) rowFor(p profile.Profile) table.Row {
	switch v := p.(type) {
	case profile.DirectConnection:
		return table.Row{v.Name, v.Host, fmt.Sprintf("%d", v.Port), v.User, keyDisplay(v.KeyRef)}
	case profile.ProxyJump:
		jump := fmt.Sprintf("%s@%s:%d", v.JumpUser, v.JumpHost, v.JumpPort)
		target := fmt.Sprintf("%s@%s:%d", v.TargetUser, v.TargetHost, v.TargetPort)
		return table.Row{v.Name, jump, target, keyDisplay(v.KeyRef)}
	case profile.PortForward:
		remote := fmt.Sprintf("%s@%s:%d", v.RemoteUser, v.RemoteHost, v.RemotePort)
		target := fmt.Sprintf("%s:%d", v.TargetHost, v.TargetPort)
		status := StatusStopped
		if _, running := m.manager.ActiveSession(v.ID); running {
			status = StatusRunning
		}
		return table.Row{v.Name, fmt.Sprintf("%d", v.LocalPort), remote, target, status}
	}
	return nil
}

func keyDisplay(ref string) string {
	if ref == "" {
		return "-"
	}
	return ref
}

func NewModel(mgr *app.Manager) *Model {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(ColorSelectedFg)).
		Background(lipgloss.Color(ColorSelectedBg)).
		Bold(false)

	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.CharLimit = 156
	ti.Width = 20

	m := &Model{
		uiState:     StateProfiles,
		manager:     mgr,
		kind:        profile.KindDirect,
		width:       80, // Default width, updated on first WindowSizeMsg
		height:      24,
		filterInput: ti,
	}

	if skipped := mgr.SkippedRecords(); len(skipped) > 0 {
		m.statusMsg = fmt.Sprintf("%d unreadable record(s) skipped at load; see the log for details", len(skipped))
		for _, rec := range skipped {
			logging.LogError("Skipped %s record %d: %s", rec.Kind, rec.Index, rec.Reason)
		}
	}

	m.profilesTable = table.New(
		table.WithColumns(m.columnsFor(m.kind)),
		table.WithRows(nil),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(s),
	)
	m.refreshTable()

	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		tableHeight := max(m.height-ProfilesViewOffset, MinTableHeight)
		m.profilesTable.SetHeight(tableHeight)
		m.profilesTable.SetColumns(m.columnsFor(m.kind))

		filterWidth := max(m.width-4, 20)
		m.filterInput.Width = filterWidth
		return m, nil

	case sessionFinishedMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Session %s ended with error: %v", msg.name, msg.err)
		} else {
			m.statusMsg = fmt.Sprintf("Session %s ended", msg.name)
		}
		return m, nil

	case tea.KeyMsg:
		// Global shortcuts that work in any state
		switch msg.String() {
		case "ctrl+c", ShortcutExit:
			return m, tea.Quit
		}

		switch m.uiState {
		case StateProfiles:
			return m.updateProfiles(msg)
		case StateForm:
			return m.updateForm(msg)
		case StateConfirmDelete:
			return m.updateConfirmDelete(msg)
		}
	}

	return m, nil
}

// visibleProfiles returns the profiles shown in the table, honoring
// any active filter.
func (m *Model) visibleProfiles() []profile.Profile {
	if m.filteredProfiles != nil {
		return m.filteredProfiles
	}
	return m.manager.List(m.kind)
}

// selectedProfile returns the profile under the table cursor.
func (m *Model) selectedProfile() (profile.Profile, bool) {
	visible := m.visibleProfiles()
	idx := m.profilesTable.Cursor()
	if idx < 0 || idx >= len(visible) {
		return nil, false
	}
	return visible[idx], true
}

// refreshTable rebuilds the table rows from the manager state.
func (m *Model) refreshTable() {
	visible := m.visibleProfiles()
	rows := make([]table.Row, 0, len(visible))
	for _, p := range visible {
		rows = append(rows, m.rowFor(p))
	}
	m.profilesTable.SetRows(rows)
	if cursor := m.profilesTable.Cursor(); cursor >= len(rows) && len(rows) > 0 {
		m.profilesTable.SetCursor(len(rows) - 1)
	}
}

// switchKind changes the active profile kind tab.
func (m *Model) switchKind(kind profile.Kind) {
	if kind == m.kind {
		return
	}
	m.kind = kind
	m.errorMsg = ""
	m.statusMsg = ""
	m.filterInput.SetValue("")
	m.filteredProfiles = nil
	m.profilesTable.SetColumns(m.columnsFor(kind))
	m.profilesTable.SetCursor(0)
	m.refreshTable()
}

// applyFilter filters the active collection by the current filter text.
func (m *Model) applyFilter() {
	filterText := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	all := m.manager.List(m.kind)

	if filterText == "" {
		m.filteredProfiles = nil
		return
	}

	m.filteredProfiles = []profile.Profile{}
	for _, p := range all {
		if profileMatches(p, filterText) {
			m.filteredProfiles = append(m.filteredProfiles, p)
		}
	}
}

// profileMatches searches the visible fields of a profile.
func profileMatches(p profile.Profile, filterText string) bool {
	var fields []string
	switch v := p.(type) {
	case profile.DirectConnection:
		fields = []string{v.Name, v.Host, fmt.Sprintf("%d", v.Port), v.User, v.DeviceType, v.Notes}
	case profile.ProxyJump:
		fields = []string{v.Name, v.JumpHost, v.JumpUser, v.TargetHost, v.TargetUser, v.DeviceType, v.Notes}
	case profile.PortForward:
		fields = []string{v.Name, v.RemoteHost, v.RemoteUser, v.TargetHost, fmt.Sprintf("%d", v.LocalPort), v.DeviceType, v.Notes}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), filterText) {
			return true
		}
	}
	return false
}
