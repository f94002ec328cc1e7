// Package app is the single entry point the UI layer talks to. The
// Manager owns the store, the in-memory profile collections, the key
// resolver and the session launcher; the UI never touches those
// directly.
package app

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xlttj/stassh/pkg/keys"
	"github.com/xlttj/stassh/pkg/logging"
	"github.com/xlttj/stassh/pkg/profile"
	"github.com/xlttj/stassh/pkg/session"
	"github.com/xlttj/stassh/pkg/sshcmd"
	"github.com/xlttj/stassh/pkg/store"
)

// Sentinel error for a profile id absent from its collection.
var ErrProfileNotFound = errors.New("profile not found")

// ValidationError reports the field violations that made a create or
// update fail. Nothing is persisted when it is returned.
type ValidationError struct {
	Violations []profile.Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return "invalid profile: " + strings.Join(msgs, "; ")
}

// Manager serializes all CRUD per process and maps profile ids to
// their active sessions. Session launches themselves run in the
// background and never block a caller beyond process spawn.
type Manager struct {
	mu       sync.Mutex
	store    store.Store
	resolver keys.Resolver
	launcher *session.Launcher
	profiles map[profile.Kind][]profile.Profile
	skipped  []store.SkippedRecord
	active   map[string]*session.Session // profile id -> session
}

// NewManager loads every profile collection from the store. Records
// the store had to skip are retained for the UI to report.
func NewManager(st store.Store) (*Manager, error) {
	m := &Manager{
		store:    st,
		resolver: keys.NewResolver(),
		launcher: session.NewLauncher(),
		profiles: make(map[profile.Kind][]profile.Profile),
		active:   make(map[string]*session.Session),
	}
	for _, kind := range profile.Kinds() {
		ps, skipped, err := st.Load(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s profiles: %w", kind, err)
		}
		m.profiles[kind] = ps
		m.skipped = append(m.skipped, skipped...)
	}
	return m, nil
}

// SetResolver overrides the key resolver. Mostly useful in tests.
func (m *Manager) SetResolver(r keys.Resolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolver = r
}

// SkippedRecords returns the load-time skip reports for display.
func (m *Manager) SkippedRecords() []store.SkippedRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.SkippedRecord, len(m.skipped))
	copy(out, m.skipped)
	return out
}

// List returns a copy of the collection for a kind in insertion order.
func (m *Manager) List(kind profile.Kind) []profile.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]profile.Profile, len(m.profiles[kind]))
	copy(out, m.profiles[kind])
	return out
}

// Get returns the profile with the given id.
func (m *Manager) Get(kind profile.Kind, id string) (profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(kind, id)
}

func (m *Manager) getLocked(kind profile.Kind, id string) (profile.Profile, error) {
	for _, p := range m.profiles[kind] {
		if p.ProfileID() == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q", ErrProfileNotFound, kind, id)
}

// Create validates p, assigns it a fresh id and persists the grown
// collection. The stored profile (with its id) is returned.
func (m *Manager) Create(p profile.Profile) (profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vs := p.Validate(); len(vs) > 0 {
		return nil, &ValidationError{Violations: vs}
	}

	kind := p.Kind()
	p = profile.WithID(p, m.store.NextID(kind))
	next := append(append([]profile.Profile{}, m.profiles[kind]...), p)
	if err := m.store.Save(kind, next); err != nil {
		return nil, err
	}
	m.profiles[kind] = next
	logging.LogDebug("Created %s profile %q (%s)", kind, p.DisplayName(), p.ProfileID())
	return p, nil
}

// Update replaces the stored profile with the same id after
// re-validating. The id itself never changes.
func (m *Manager) Update(p profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vs := p.Validate(); len(vs) > 0 {
		return &ValidationError{Violations: vs}
	}

	kind := p.Kind()
	idx := -1
	for i, existing := range m.profiles[kind] {
		if existing.ProfileID() == p.ProfileID() {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: %s %q", ErrProfileNotFound, kind, p.ProfileID())
	}

	next := append([]profile.Profile{}, m.profiles[kind]...)
	next[idx] = p
	if err := m.store.Save(kind, next); err != nil {
		return err
	}
	m.profiles[kind] = next
	logging.LogDebug("Updated %s profile %q (%s)", kind, p.DisplayName(), p.ProfileID())
	return nil
}

// Delete removes a profile by id and persists the shrunk collection.
func (m *Manager) Delete(kind profile.Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, p := range m.profiles[kind] {
		if p.ProfileID() == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: %s %q", ErrProfileNotFound, kind, id)
	}

	next := append([]profile.Profile{}, m.profiles[kind][:idx]...)
	next = append(next, m.profiles[kind][idx+1:]...)
	if err := m.store.Save(kind, next); err != nil {
		return err
	}
	m.profiles[kind] = next
	logging.LogDebug("Deleted %s profile %s", kind, id)
	return nil
}

// Duplicate clones a profile under a fresh id with " (Copy)" appended
// to its name.
func (m *Manager) Duplicate(kind profile.Kind, id string) (profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, err := m.getLocked(kind, id)
	if err != nil {
		return nil, err
	}

	dup := profile.Renamed(src, src.DisplayName()+" (Copy)")
	dup = profile.WithID(dup, m.store.NextID(kind))
	next := append(append([]profile.Profile{}, m.profiles[kind]...), dup)
	if err := m.store.Save(kind, next); err != nil {
		return nil, err
	}
	m.profiles[kind] = next
	logging.LogDebug("Duplicated %s profile %s -> %s", kind, id, dup.ProfileID())
	return dup, nil
}

// Command resolves a profile's key and builds its ssh invocation
// without launching anything. The TUI uses this to hand interactive
// sessions to the terminal.
func (m *Manager) Command(kind profile.Kind, id string) (sshcmd.CommandSpec, error) {
	m.mu.Lock()
	p, err := m.getLocked(kind, id)
	resolver := m.resolver
	m.mu.Unlock()
	if err != nil {
		return sshcmd.CommandSpec{}, err
	}

	keyPath := ""
	if ref := p.KeyReference(); strings.TrimSpace(ref) != "" {
		keyPath, err = resolver.Resolve(ref)
		if err != nil {
			return sshcmd.CommandSpec{}, err
		}
	}

	return sshcmd.Build(p, keyPath)
}

// Connect builds and launches the session for a profile. Resolution
// and build failures surface before any process is spawned; a port
// forward whose local port is held by an active session fails with
// session.ErrPortInUse.
func (m *Manager) Connect(kind profile.Kind, id string) (*session.Session, error) {
	spec, err := m.Command(kind, id)
	if err != nil {
		return nil, err
	}

	s, err := m.launcher.Launch(spec)
	if err != nil {
		return s, err
	}

	m.mu.Lock()
	m.active[id] = s
	m.mu.Unlock()
	return s, nil
}

// Cancel tears down a session. Safe to call on sessions that already
// exited.
func (m *Manager) Cancel(s *session.Session) error {
	return m.launcher.Cancel(s)
}

// ActiveSession returns the running session launched for a profile, if
// any. Exited sessions are pruned on the way.
func (m *Manager) ActiveSession(id string) (*session.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.active[id]
	if !ok {
		return nil, false
	}
	if s.State() != session.StateRunning {
		delete(m.active, id)
		return nil, false
	}
	return s, true
}

// Shutdown cancels all active sessions and closes the store.
func (m *Manager) Shutdown() {
	m.launcher.Shutdown()
	if err := m.store.Close(); err != nil {
		logging.LogError("Failed to close store: %v", err)
	}
}
