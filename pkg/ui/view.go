package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xlttj/stassh/pkg/profile"
)

// View renders the current model state
func (m *Model) View() string {
	switch m.uiState {
	case StateProfiles:
		return m.viewProfiles()
	case StateForm:
		return m.viewForm()
	case StateConfirmDelete:
		return m.viewConfirmDelete()
	}
	return "Unknown state"
}

// viewProfiles renders the profile list view
func (m *Model) viewProfiles() string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTitle)).Bold(true).Render("SSH Connection Manager")

	help := "Enter: Connect | Space: Start/Stop Forward | N: New | E: Edit | D: Duplicate | X: Delete | Tab/1-3: Kind | /: Filter | Q: Quit"
	if m.width < 100 {
		help = "Enter:Connect | Space:Toggle | N:New | E:Edit | D:Dup | X:Del | Tab:Kind | /:Filter | Q:Quit"
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp))
	helpText := helpStyle.Render(help)

	tabsView := m.renderKindTabs()
	tableView := lipgloss.PlaceHorizontal(m.width, lipgloss.Left, m.profilesTable.View())

	// Always reserve space for the filter input to prevent layout shift
	var filterView string
	if m.filterMode {
		filterStyle := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Padding(0, 1)
		filterView = filterStyle.Render("Filter: " + m.filterInput.View())
	} else if m.filterInput.Value() != "" {
		filterStyle := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("8")). // Grey border for inactive
			Foreground(lipgloss.Color("8")).
			Padding(0, 1)
		filterView = filterStyle.Render(fmt.Sprintf("Filter: %s (Press / to edit, Esc to clear)", m.filterInput.Value()))
	} else {
		placeholderStyle := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")). // Very dim border
			Foreground(lipgloss.Color("240")).
			Padding(0, 1)
		filterView = placeholderStyle.Render("Press / to filter...")
	}

	// Format top area: title and help text if there is room
	var top string
	if m.width >= 100 {
		spacing := m.width - lipgloss.Width(title) - lipgloss.Width(helpText)
		if spacing > 0 {
			top = lipgloss.JoinHorizontal(lipgloss.Left, title, strings.Repeat(" ", spacing), helpText)
		} else {
			top = title
		}
	} else {
		top = title
	}

	var bottom string
	if m.width < 100 {
		bottom = helpText
	}

	var messageText string
	if m.errorMsg != "" {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
		messageText = errorStyle.Render(fmt.Sprintf("ERROR: %s", m.errorMsg))
	} else if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorStatus))
		messageText = statusStyle.Render(m.statusMsg)
	}

	parts := []string{top, tabsView, filterView, tableView}
	if messageText != "" {
		parts = append(parts, messageText)
	}
	if bottom != "" {
		parts = append(parts, bottom)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderKindTabs renders the kind selector line
func (m *Model) renderKindTabs() string {
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTabActive)).Bold(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp))

	var tabs []string
	for i, kind := range profile.Kinds() {
		label := fmt.Sprintf("[%d] %s (%d)", i+1, kind.Title(), len(m.manager.List(kind)))
		if kind == m.kind {
			tabs = append(tabs, activeStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveStyle.Render(label))
		}
	}
	return strings.Join(tabs, "   ")
}

// viewForm renders the create/edit form
func (m *Model) viewForm() string {
	f := m.form
	if f == nil {
		return ""
	}

	action := "New"
	if f.mode == FormEdit {
		action = "Edit"
	}
	titleText := fmt.Sprintf("%s %s", action, f.kind.Title())
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTitle)).Bold(true).Render(titleText)

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorFormLabel)).Width(14)
	focusedLabelStyle := labelStyle.Bold(true)

	var rows []string
	for i, label := range f.labels {
		style := labelStyle
		if i == f.focus {
			style = focusedLabelStyle
		}
		rows = append(rows, style.Render(label+":")+" "+f.inputs[i].View())
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp))
	help := helpStyle.Render("Tab/↑/↓: Move | Enter on last field or Ctrl+S: Save | Esc: Cancel")

	parts := []string{title, ""}
	parts = append(parts, rows...)
	parts = append(parts, "", help)

	if f.errMsg != "" {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
		parts = append(parts, errorStyle.Render(fmt.Sprintf("ERROR: %s", f.errMsg)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// viewConfirmDelete renders the delete confirmation prompt
func (m *Model) viewConfirmDelete() string {
	if m.deleteTarget == nil {
		return ""
	}

	title := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTitle)).Bold(true).Render("Delete Profile")
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	prompt := warnStyle.Render(fmt.Sprintf("Delete %q (%s)? This cannot be undone.", m.deleteTarget.DisplayName(), m.kind))

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp))
	help := helpStyle.Render("y: Delete | n/Esc: Cancel")

	return lipgloss.JoinVertical(lipgloss.Left, title, "", prompt, "", help)
}
