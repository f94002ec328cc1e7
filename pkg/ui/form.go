package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xlttj/stassh/pkg/app"
	"github.com/xlttj/stassh/pkg/profile"
)

// Form field names, shared between layout and profile assembly
const (
	fieldName       = "Name"
	fieldHost       = "Host"
	fieldPort       = "Port"
	fieldUser       = "User"
	fieldJumpHost   = "Jump Host"
	fieldJumpPort   = "Jump Port"
	fieldJumpUser   = "Jump User"
	fieldTargetHost = "Target Host"
	fieldTargetPort = "Target Port"
	fieldTargetUser = "Target User"
	fieldRemoteHost = "Remote Host"
	fieldRemotePort = "Remote Port"
	fieldRemoteUser = "Remote User"
	fieldLocalPort  = "Local Port"
	fieldKey        = "Key"
	fieldDevice     = "Device Type"
	fieldNotes      = "Notes"
)

// formState holds the create/edit form for one profile
type formState struct {
	kind   profile.Kind
	mode   FormMode
	id     string // Retained across an edit; empty on create
	labels []string
	inputs []textinput.Model
	focus  int
	errMsg string
}

// fieldLayout returns the field order for a kind
func fieldLayout(kind profile.Kind) []string {
	switch kind {
	case profile.KindDirect:
		return []string{fieldName, fieldHost, fieldPort, fieldUser, fieldKey, fieldDevice, fieldNotes}
	case profile.KindProxyJump:
		return []string{fieldName, fieldJumpHost, fieldJumpPort, fieldJumpUser,
			fieldTargetHost, fieldTargetPort, fieldTargetUser, fieldKey, fieldDevice, fieldNotes}
	case profile.KindPortForward:
		return []string{fieldName, fieldRemoteHost, fieldRemotePort, fieldRemoteUser,
			fieldTargetHost, fieldTargetPort, fieldLocalPort, fieldKey, fieldDevice, fieldNotes}
	}
	return nil
}

// newForm builds a blank or prefilled form. For edits, p supplies the
// initial values and the retained id.
func newForm(kind profile.Kind, mode FormMode, p profile.Profile) *formState {
	f := &formState{
		kind:   kind,
		mode:   mode,
		labels: fieldLayout(kind),
	}

	values := make(map[string]string)
	if mode == FormCreate {
		// Sensible defaults for a fresh profile
		values[fieldPort] = "22"
		values[fieldJumpPort] = "22"
		values[fieldTargetPort] = "22"
		values[fieldRemotePort] = "22"
	} else if p != nil {
		f.id = p.ProfileID()
		values = prefill(p)
	}

	for i, label := range f.labels {
		ti := textinput.New()
		ti.CharLimit = 156
		ti.Width = 40
		ti.SetValue(values[label])
		if i == 0 {
			ti.Focus()
		}
		f.inputs = append(f.inputs, ti)
	}
	return f
}

// prefill maps a profile's fields back onto form labels
func prefill(p profile.Profile) map[string]string {
	v := make(map[string]string)
	switch c := p.(type) {
	case profile.DirectConnection:
		v[fieldName] = c.Name
		v[fieldHost] = c.Host
		v[fieldPort] = strconv.Itoa(c.Port)
		v[fieldUser] = c.User
		v[fieldKey] = c.KeyRef
		v[fieldDevice] = c.DeviceType
		v[fieldNotes] = c.Notes
	case profile.ProxyJump:
		v[fieldName] = c.Name
		v[fieldJumpHost] = c.JumpHost
		v[fieldJumpPort] = strconv.Itoa(c.JumpPort)
		v[fieldJumpUser] = c.JumpUser
		v[fieldTargetHost] = c.TargetHost
		v[fieldTargetPort] = strconv.Itoa(c.TargetPort)
		v[fieldTargetUser] = c.TargetUser
		v[fieldKey] = c.KeyRef
		v[fieldDevice] = c.DeviceType
		v[fieldNotes] = c.Notes
	case profile.PortForward:
		v[fieldName] = c.Name
		v[fieldRemoteHost] = c.RemoteHost
		v[fieldRemotePort] = strconv.Itoa(c.RemotePort)
		v[fieldRemoteUser] = c.RemoteUser
		v[fieldTargetHost] = c.TargetHost
		v[fieldTargetPort] = strconv.Itoa(c.TargetPort)
		v[fieldLocalPort] = strconv.Itoa(c.LocalPort)
		v[fieldKey] = c.KeyRef
		v[fieldDevice] = c.DeviceType
		v[fieldNotes] = c.Notes
	}
	return v
}

// value returns the trimmed text of a labeled field
func (f *formState) value(label string) string {
	for i, l := range f.labels {
		if l == label {
			return strings.TrimSpace(f.inputs[i].Value())
		}
	}
	return ""
}

// port parses a numeric field; unparseable text becomes 0 so the
// profile validator reports it as out of range.
func (f *formState) port(label string) int {
	n, err := strconv.Atoi(f.value(label))
	if err != nil {
		return 0
	}
	return n
}

// assemble builds the profile described by the form's current values
func (f *formState) assemble() profile.Profile {
	meta := profile.Meta{
		ID:         f.id,
		Name:       f.value(fieldName),
		Notes:      f.value(fieldNotes),
		DeviceType: f.value(fieldDevice),
	}

	switch f.kind {
	case profile.KindDirect:
		return profile.DirectConnection{
			Meta:   meta,
			Host:   f.value(fieldHost),
			Port:   f.port(fieldPort),
			User:   f.value(fieldUser),
			KeyRef: f.value(fieldKey),
		}
	case profile.KindProxyJump:
		return profile.ProxyJump{
			Meta:       meta,
			JumpHost:   f.value(fieldJumpHost),
			JumpPort:   f.port(fieldJumpPort),
			JumpUser:   f.value(fieldJumpUser),
			TargetHost: f.value(fieldTargetHost),
			TargetPort: f.port(fieldTargetPort),
			TargetUser: f.value(fieldTargetUser),
			KeyRef:     f.value(fieldKey),
		}
	case profile.KindPortForward:
		return profile.PortForward{
			Meta:       meta,
			RemoteHost: f.value(fieldRemoteHost),
			RemotePort: f.port(fieldRemotePort),
			RemoteUser: f.value(fieldRemoteUser),
			TargetHost: f.value(fieldTargetHost),
			TargetPort: f.port(fieldTargetPort),
			LocalPort:  f.port(fieldLocalPort),
			KeyRef:     f.value(fieldKey),
		}
	}
	return nil
}

// updateForm handles updates for StateForm
func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil {
		m.uiState = StateProfiles
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.form = nil
		m.uiState = StateProfiles
		m.profilesTable.Focus()
		return m, nil

	case "tab", "down":
		f.setFocus((f.focus + 1) % len(f.inputs))
		return m, nil

	case "shift+tab", "up":
		f.setFocus((f.focus - 1 + len(f.inputs)) % len(f.inputs))
		return m, nil

	case "enter":
		// Enter advances until the last field, then submits
		if f.focus < len(f.inputs)-1 {
			f.setFocus(f.focus + 1)
			return m, nil
		}
		return m.submitForm()

	case "ctrl+s":
		return m.submitForm()
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (f *formState) setFocus(idx int) {
	f.inputs[f.focus].Blur()
	f.focus = idx
	f.inputs[f.focus].Focus()
}

// submitForm validates and persists the assembled profile
func (m *Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	p := f.assemble()

	var err error
	var saved profile.Profile
	if f.mode == FormCreate {
		saved, err = m.manager.Create(p)
	} else {
		saved = p
		err = m.manager.Update(p)
	}

	if err != nil {
		var ve *app.ValidationError
		if errors.As(err, &ve) {
			msgs := make([]string, len(ve.Violations))
			for i, v := range ve.Violations {
				msgs[i] = v.String()
			}
			f.errMsg = strings.Join(msgs, "; ")
		} else {
			f.errMsg = err.Error()
		}
		return m, nil
	}

	m.form = nil
	m.uiState = StateProfiles
	m.profilesTable.Focus()
	if f.mode == FormCreate {
		m.statusMsg = fmt.Sprintf("Created %q", saved.DisplayName())
	} else {
		m.statusMsg = fmt.Sprintf("Saved %q", saved.DisplayName())
	}
	m.refreshTable()
	return m, nil
}
