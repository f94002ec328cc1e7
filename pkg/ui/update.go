package ui

import (
	"errors"
	"fmt"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xlttj/stassh/pkg/keys"
	"github.com/xlttj/stassh/pkg/logging"
	"github.com/xlttj/stassh/pkg/profile"
	"github.com/xlttj/stassh/pkg/session"
)

// updateProfiles handles updates for StateProfiles
func (m *Model) updateProfiles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Handle filter mode first
	if m.filterMode {
		switch msg.String() {
		case "esc":
			m.filterMode = false
			m.filterInput.Blur()
			m.filterInput.SetValue("")
			m.filteredProfiles = nil
			m.refreshTable()
			m.profilesTable.Focus()
			return m, nil
		case "enter":
			// Exit filter mode but keep filter applied
			m.filterMode = false
			m.filterInput.Blur()
			m.profilesTable.Focus()
			return m, nil
		default:
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.applyFilter()
			m.refreshTable()
			return m, cmd
		}
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "/":
		m.errorMsg = ""
		m.statusMsg = ""
		m.filterMode = true
		m.filterInput.Focus()
		m.profilesTable.Blur()
		// Don't add the "/" character to the input
		return m, nil

	case "esc":
		if m.filterInput.Value() != "" {
			m.filterInput.SetValue("")
			m.filteredProfiles = nil
			m.refreshTable()
		}
		return m, nil

	case "tab":
		m.switchKind(nextKind(m.kind, 1))
		return m, nil
	case "shift+tab":
		m.switchKind(nextKind(m.kind, -1))
		return m, nil
	case "1":
		m.switchKind(profile.KindDirect)
		return m, nil
	case "2":
		m.switchKind(profile.KindProxyJump)
		return m, nil
	case "3":
		m.switchKind(profile.KindPortForward)
		return m, nil

	case "n":
		m.errorMsg = ""
		m.statusMsg = ""
		m.form = newForm(m.kind, FormCreate, nil)
		m.uiState = StateForm
		return m, nil

	case "e":
		p, ok := m.selectedProfile()
		if !ok {
			return m, nil
		}
		m.errorMsg = ""
		m.statusMsg = ""
		m.form = newForm(m.kind, FormEdit, p)
		m.uiState = StateForm
		return m, nil

	case "d":
		p, ok := m.selectedProfile()
		if !ok {
			return m, nil
		}
		m.errorMsg = ""
		dup, err := m.manager.Duplicate(m.kind, p.ProfileID())
		if err != nil {
			m.errorMsg = fmt.Sprintf("Duplicate failed: %v", err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Duplicated as %q", dup.DisplayName())
		m.refreshTable()
		return m, nil

	case "x":
		p, ok := m.selectedProfile()
		if !ok {
			return m, nil
		}
		m.errorMsg = ""
		m.statusMsg = ""
		m.deleteTarget = p
		m.uiState = StateConfirmDelete
		return m, nil

	case " ":
		return m.toggleForward()

	case "enter":
		return m.connectSelected()
	}

	m.profilesTable, cmd = m.profilesTable.Update(msg)
	return m, cmd
}

// updateConfirmDelete handles the y/n delete prompt
func (m *Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		target := m.deleteTarget
		m.deleteTarget = nil
		m.uiState = StateProfiles
		if target == nil {
			return m, nil
		}
		if err := m.manager.Delete(m.kind, target.ProfileID()); err != nil {
			m.errorMsg = fmt.Sprintf("Delete failed: %v", err)
		} else {
			m.statusMsg = fmt.Sprintf("Deleted %q", target.DisplayName())
		}
		m.refreshTable()
		return m, nil

	case "n", "N", "esc", "q":
		m.deleteTarget = nil
		m.uiState = StateProfiles
		return m, nil
	}
	return m, nil
}

// toggleForward starts or stops the tunnel for the selected port
// forward profile. For other kinds Space is a no-op.
func (m *Model) toggleForward() (tea.Model, tea.Cmd) {
	if m.kind != profile.KindPortForward {
		return m, nil
	}
	p, ok := m.selectedProfile()
	if !ok {
		return m, nil
	}
	m.errorMsg = ""
	m.statusMsg = ""

	if s, running := m.manager.ActiveSession(p.ProfileID()); running {
		if err := m.manager.Cancel(s); err != nil {
			logging.LogError("Error stopping forward %s: %v", p.ProfileID(), err)
			m.errorMsg = fmt.Sprintf("Error stopping %s: %v", p.DisplayName(), err)
		}
		m.refreshTable()
		return m, nil
	}

	_, err := m.manager.Connect(m.kind, p.ProfileID())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrPortInUse):
			m.errorMsg = fmt.Sprintf("Cannot start %s: %v", p.DisplayName(), err)
		case errors.Is(err, keys.ErrKeyNotFound):
			m.errorMsg = fmt.Sprintf("Cannot start %s: %v", p.DisplayName(), err)
		default:
			m.errorMsg = fmt.Sprintf("Error starting %s: %v", p.DisplayName(), err)
		}
		m.refreshTable()
		return m, nil
	}

	m.statusMsg = fmt.Sprintf("Forward %s running", p.DisplayName())
	m.refreshTable()
	return m, nil
}

// connectSelected opens an interactive session for direct and jump
// profiles by handing the terminal to ssh. Port forwards are toggled
// instead since they have no interactive terminal.
func (m *Model) connectSelected() (tea.Model, tea.Cmd) {
	if m.kind == profile.KindPortForward {
		return m.toggleForward()
	}

	p, ok := m.selectedProfile()
	if !ok {
		return m, nil
	}
	m.errorMsg = ""
	m.statusMsg = ""

	spec, err := m.manager.Command(m.kind, p.ProfileID())
	if err != nil {
		if errors.Is(err, keys.ErrKeyNotFound) {
			m.errorMsg = fmt.Sprintf("Cannot connect to %s: %v", p.DisplayName(), err)
		} else {
			m.errorMsg = fmt.Sprintf("Error preparing %s: %v", p.DisplayName(), err)
		}
		return m, nil
	}

	logging.LogDebug("Handing terminal to: %s %v", spec.Binary, spec.Args)
	name := p.DisplayName()
	c := exec.Command(spec.Binary, spec.Args...)
	return m, tea.ExecProcess(c, func(err error) tea.Msg {
		return sessionFinishedMsg{name: name, err: err}
	})
}

// nextKind cycles through profile kinds in tab order.
func nextKind(kind profile.Kind, step int) profile.Kind {
	kinds := profile.Kinds()
	for i, k := range kinds {
		if k == kind {
			return kinds[(i+step+len(kinds))%len(kinds)]
		}
	}
	return kinds[0]
}
