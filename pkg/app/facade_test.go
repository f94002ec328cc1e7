package app

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/xlttj/stassh/pkg/keys"
	"github.com/xlttj/stassh/pkg/profile"
	"github.com/xlttj/stassh/pkg/session"
	"github.com/xlttj/stassh/pkg/store"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New("file", dir)
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	m, err := NewManager(st)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(m.Shutdown)
	return m, dir
}

func directFixture() profile.DirectConnection {
	return profile.DirectConnection{
		Meta: profile.Meta{Name: "web-01"},
		Host: "10.0.0.5",
		Port: 22,
		User: "alice",
	}
}

func TestManager_CreateAssignsID(t *testing.T) {
	m, _ := newTestManager(t)

	created, err := m.Create(directFixture())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ProfileID() == "" {
		t.Fatal("created profile has empty id")
	}

	got, err := m.Get(profile.KindDirect, created.ProfileID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DisplayName() != "web-01" {
		t.Errorf("name = %q", got.DisplayName())
	}
}

func TestManager_CreatePersistsAcrossRestart(t *testing.T) {
	m, dir := newTestManager(t)

	created, err := m.Create(directFixture())
	if err != nil {
		t.Fatal(err)
	}

	st2, err := store.New("file", dir)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := NewManager(st2)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	defer m2.Shutdown()

	if _, err := m2.Get(profile.KindDirect, created.ProfileID()); err != nil {
		t.Errorf("profile lost across restart: %v", err)
	}
}

func TestManager_CreateInvalidNotPersisted(t *testing.T) {
	m, _ := newTestManager(t)

	bad := directFixture()
	bad.Host = ""
	bad.Port = 0

	_, err := m.Create(bad)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 2 {
		t.Errorf("violations = %v, want host and port", ve.Violations)
	}
	if got := m.List(profile.KindDirect); len(got) != 0 {
		t.Errorf("invalid profile was stored: %v", got)
	}
}

func TestManager_UpdateKeepsID(t *testing.T) {
	m, _ := newTestManager(t)

	created, err := m.Create(directFixture())
	if err != nil {
		t.Fatal(err)
	}

	edited := created.(profile.DirectConnection)
	edited.Host = "10.0.0.99"
	if err := m.Update(edited); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := m.Get(profile.KindDirect, created.ProfileID())
	if err != nil {
		t.Fatal(err)
	}
	if got.(profile.DirectConnection).Host != "10.0.0.99" {
		t.Errorf("host not updated: %+v", got)
	}
	if len(m.List(profile.KindDirect)) != 1 {
		t.Error("update duplicated the profile")
	}
}

func TestManager_UpdateUnknownID(t *testing.T) {
	m, _ := newTestManager(t)

	ghost := directFixture()
	ghost.ID = "no-such-id"
	if err := m.Update(ghost); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	m, _ := newTestManager(t)

	created, err := m.Create(directFixture())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(profile.KindDirect, created.ProfileID()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(profile.KindDirect, created.ProfileID()); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound after delete, got %v", err)
	}
	if err := m.Delete(profile.KindDirect, created.ProfileID()); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("double delete: expected ErrProfileNotFound, got %v", err)
	}
}

func TestManager_Duplicate(t *testing.T) {
	m, _ := newTestManager(t)

	created, err := m.Create(directFixture())
	if err != nil {
		t.Fatal(err)
	}

	dup, err := m.Duplicate(profile.KindDirect, created.ProfileID())
	if err != nil {
		t.Fatalf("Duplicate failed: %v", err)
	}
	if dup.ProfileID() == created.ProfileID() {
		t.Error("duplicate shares the original id")
	}
	if dup.DisplayName() != "web-01 (Copy)" {
		t.Errorf("duplicate name = %q", dup.DisplayName())
	}
	if len(m.List(profile.KindDirect)) != 2 {
		t.Error("duplicate not added to collection")
	}
}

func TestManager_CommandResolvesKey(t *testing.T) {
	m, _ := newTestManager(t)

	keyDir := t.TempDir()
	keyPath := filepath.Join(keyDir, "work_key")
	if err := os.WriteFile(keyPath, []byte("key"), 0600); err != nil {
		t.Fatal(err)
	}
	m.SetResolver(keys.Resolver{Dir: keyDir})

	p := directFixture()
	p.KeyRef = "work_key"
	created, err := m.Create(p)
	if err != nil {
		t.Fatal(err)
	}

	spec, err := m.Command(profile.KindDirect, created.ProfileID())
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if spec.IdentityFile != keyPath {
		t.Errorf("identity = %q, want %q", spec.IdentityFile, keyPath)
	}
}

func TestManager_CommandMissingKey(t *testing.T) {
	m, _ := newTestManager(t)
	m.SetResolver(keys.Resolver{Dir: t.TempDir()})

	p := directFixture()
	p.KeyRef = "no_such_key"
	created, err := m.Create(p)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Command(profile.KindDirect, created.ProfileID()); !errors.Is(err, keys.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestManager_CommandWithoutKeySkipsResolution(t *testing.T) {
	m, _ := newTestManager(t)
	// Resolver pointed at an empty dir would fail any lookup
	m.SetResolver(keys.Resolver{Dir: t.TempDir()})

	created, err := m.Create(directFixture())
	if err != nil {
		t.Fatal(err)
	}

	spec, err := m.Command(profile.KindDirect, created.ProfileID())
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if spec.IdentityFile != "" {
		t.Errorf("identity = %q, want empty", spec.IdentityFile)
	}
}

func TestManager_ConnectPortInUse(t *testing.T) {
	m, _ := newTestManager(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	f := profile.PortForward{
		Meta:       profile.Meta{Name: "busy forward"},
		RemoteHost: "edge", RemotePort: 22, RemoteUser: "tunnel",
		TargetHost: "pg", TargetPort: 5432, LocalPort: port,
	}
	created, err := m.Create(f)
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.Connect(profile.KindPortForward, created.ProfileID())
	if !errors.Is(err, session.ErrPortInUse) {
		t.Errorf("expected ErrPortInUse, got %v", err)
	}
	if _, active := m.ActiveSession(created.ProfileID()); active {
		t.Error("failed connect recorded an active session")
	}
}

func TestManager_ConnectUnknownProfile(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.Connect(profile.KindDirect, "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestManager_SkippedRecordsSurface(t *testing.T) {
	dir := t.TempDir()
	content := `profiles:
  - id: ok
    name: web-01
    host: h
    port: 22
    user: u
  - name: missing-id
    host: h
    port: 22
    user: u
`
	if err := os.WriteFile(filepath.Join(dir, "direct_connections.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	st, err := store.New("file", dir)
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewManager(st)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Shutdown()

	if len(m.List(profile.KindDirect)) != 1 {
		t.Errorf("loaded %d profiles, want 1", len(m.List(profile.KindDirect)))
	}
	skipped := m.SkippedRecords()
	if len(skipped) != 1 || skipped[0].Kind != profile.KindDirect {
		t.Errorf("skipped = %v, want one direct record", skipped)
	}
}
