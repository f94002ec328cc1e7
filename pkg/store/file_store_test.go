package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xlttj/stassh/pkg/profile"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return fs
}

func TestFileStore_FirstRunEmpty(t *testing.T) {
	fs := newTestFileStore(t)

	for _, kind := range profile.Kinds() {
		profiles, skipped, err := fs.Load(kind)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", kind, err)
		}
		if len(profiles) != 0 || len(skipped) != 0 {
			t.Errorf("Load(%s) = %d profiles, %d skipped; want empty", kind, len(profiles), len(skipped))
		}
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	fs := newTestFileStore(t)

	saved := []profile.Profile{
		profile.DirectConnection{
			Meta: profile.Meta{ID: "a", Name: "web-01", Notes: "primary", DeviceType: "server"},
			Host: "10.0.0.5", Port: 22, User: "alice", KeyRef: "~/.ssh/id_ed25519",
		},
		profile.DirectConnection{
			Meta: profile.Meta{ID: "b", Name: "web-02"},
			Host: "10.0.0.6", Port: 2022, User: "bob",
		},
	}
	if err := fs.Save(profile.KindDirect, saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, skipped, err := fs.Load(profile.KindDirect)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("unexpected skipped records: %v", skipped)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d profiles, want 2", len(loaded))
	}
	// Insertion order survives the round trip
	if loaded[0].ProfileID() != "a" || loaded[1].ProfileID() != "b" {
		t.Errorf("order not preserved: %s, %s", loaded[0].ProfileID(), loaded[1].ProfileID())
	}
	got, ok := loaded[0].(profile.DirectConnection)
	if !ok {
		t.Fatalf("loaded profile has type %T", loaded[0])
	}
	want := saved[0].(profile.DirectConnection)
	if got != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestFileStore_KindsAreSeparate(t *testing.T) {
	fs := newTestFileStore(t)

	direct := profile.DirectConnection{Meta: profile.Meta{ID: "d", Name: "d"}, Host: "h", Port: 22, User: "u"}
	forward := profile.PortForward{
		Meta:       profile.Meta{ID: "f", Name: "f"},
		RemoteHost: "r", RemotePort: 22, RemoteUser: "u",
		TargetHost: "t", TargetPort: 5432, LocalPort: 15432,
	}
	if err := fs.Save(profile.KindDirect, []profile.Profile{direct}); err != nil {
		t.Fatalf("Save direct failed: %v", err)
	}
	if err := fs.Save(profile.KindPortForward, []profile.Profile{forward}); err != nil {
		t.Fatalf("Save forward failed: %v", err)
	}

	jumps, _, err := fs.Load(profile.KindProxyJump)
	if err != nil {
		t.Fatalf("Load jumps failed: %v", err)
	}
	if len(jumps) != 0 {
		t.Errorf("proxy jump collection should be empty, got %d", len(jumps))
	}
	forwards, _, err := fs.Load(profile.KindPortForward)
	if err != nil || len(forwards) != 1 {
		t.Errorf("forward collection: %d profiles, err %v", len(forwards), err)
	}
}

func TestFileStore_SaveRejectsKindMismatch(t *testing.T) {
	fs := newTestFileStore(t)

	direct := profile.DirectConnection{Meta: profile.Meta{ID: "d", Name: "d"}, Host: "h", Port: 22, User: "u"}
	if err := fs.Save(profile.KindDirect, []profile.Profile{direct}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	err := fs.Save(profile.KindProxyJump, []profile.Profile{direct})
	if err == nil {
		t.Fatal("expected error saving a direct profile into the proxy jump collection")
	}
	// The mismatched save must not have touched the direct file
	loaded, _, err := fs.Load(profile.KindDirect)
	if err != nil || len(loaded) != 1 {
		t.Errorf("direct collection damaged: %d profiles, err %v", len(loaded), err)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	fs := newTestFileStore(t)

	path := filepath.Join(fs.Dir(), "direct_connections.yaml")
	if err := os.WriteFile(path, []byte("{{{ not yaml"), 0600); err != nil {
		t.Fatal(err)
	}

	_, _, err := fs.Load(profile.KindDirect)
	if !errors.Is(err, ErrCorruptStore) {
		t.Errorf("expected ErrCorruptStore, got %v", err)
	}
}

func TestFileStore_SkipsBadRecords(t *testing.T) {
	fs := newTestFileStore(t)

	// One good record, one with a non-numeric port, one missing its name
	content := `profiles:
  - id: good
    name: web-01
    host: 10.0.0.5
    port: 22
    user: alice
  - id: badport
    name: web-02
    host: 10.0.0.6
    port: not-a-number
    user: bob
  - id: unnamed
    host: 10.0.0.7
    port: 22
    user: carol
`
	path := filepath.Join(fs.Dir(), "direct_connections.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	profiles, skipped, err := fs.Load(profile.KindDirect)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(profiles) != 1 || profiles[0].ProfileID() != "good" {
		t.Errorf("expected only the good record, got %v", profiles)
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped records, got %v", skipped)
	}
	if skipped[0].Index != 1 || skipped[1].Index != 2 {
		t.Errorf("skip indexes = %d, %d; want 1, 2", skipped[0].Index, skipped[1].Index)
	}
}

func TestFileStore_UnknownFieldsIgnored(t *testing.T) {
	fs := newTestFileStore(t)

	content := `profiles:
  - id: a
    name: web-01
    host: 10.0.0.5
    port: 22
    user: alice
    favorite: true
    color: blue
`
	path := filepath.Join(fs.Dir(), "direct_connections.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	profiles, skipped, err := fs.Load(profile.KindDirect)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(profiles) != 1 || len(skipped) != 0 {
		t.Errorf("got %d profiles, %d skipped; want 1, 0", len(profiles), len(skipped))
	}
}

func TestFileStore_NextIDUnique(t *testing.T) {
	fs := newTestFileStore(t)

	direct := profile.DirectConnection{Meta: profile.Meta{ID: "existing", Name: "d"}, Host: "h", Port: 22, User: "u"}
	if err := fs.Save(profile.KindDirect, []profile.Profile{direct}); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{"existing": true}
	for i := 0; i < 10; i++ {
		id := fs.NextID(profile.KindDirect)
		if id == "" {
			t.Fatal("NextID returned empty string")
		}
		if seen[id] {
			t.Fatalf("NextID returned duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestFileStore_DeleteThenRecreateReusesNothing(t *testing.T) {
	fs := newTestFileStore(t)

	p := profile.DirectConnection{Meta: profile.Meta{ID: "x", Name: "d"}, Host: "h", Port: 22, User: "u"}
	if err := fs.Save(profile.KindDirect, []profile.Profile{p}); err != nil {
		t.Fatal(err)
	}
	// Delete everything, then ask for a fresh id
	if err := fs.Save(profile.KindDirect, nil); err != nil {
		t.Fatal(err)
	}
	if id := fs.NextID(profile.KindDirect); id == "x" {
		t.Error("NextID reused a deleted id")
	}
}
