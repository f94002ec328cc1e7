package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/xlttj/stassh/pkg/logging"
	"github.com/xlttj/stassh/pkg/profile"
)

// FileStore keeps one YAML file per profile kind in a config
// directory. The files are meant to be hand-editable; a bad entry is
// skipped on load instead of failing the whole collection.
type FileStore struct {
	dir   string
	mutex sync.Mutex
}

// NewFileStore creates a file store rooted at dir. An empty dir
// selects the per-OS default config directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the profile files.
func (fs *FileStore) Dir() string { return fs.dir }

func (fs *FileStore) path(kind profile.Kind) string {
	switch kind {
	case profile.KindDirect:
		return filepath.Join(fs.dir, "direct_connections.yaml")
	case profile.KindProxyJump:
		return filepath.Join(fs.dir, "proxy_jumps.yaml")
	case profile.KindPortForward:
		return filepath.Join(fs.dir, "port_forwards.yaml")
	}
	return filepath.Join(fs.dir, "unknown.yaml")
}

// fileDoc is the on-disk shape of each per-kind file. Records decode
// lazily so one malformed entry cannot poison the rest.
type fileDoc struct {
	Profiles []yaml.Node `yaml:"profiles"`
}

func decodeRecord(kind profile.Kind, node *yaml.Node) (profile.Profile, error) {
	switch kind {
	case profile.KindDirect:
		var c profile.DirectConnection
		if err := node.Decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case profile.KindProxyJump:
		var p profile.ProxyJump
		if err := node.Decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case profile.KindPortForward:
		var f profile.PortForward
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("unknown profile kind %v", kind)
}

// Load reads the collection for a kind. A missing file is a first run
// and yields an empty collection; an unparseable file fails with
// ErrCorruptStore; a record that does not decode or is missing its
// identity fields is skipped and reported.
func (fs *FileStore) Load(kind profile.Kind) ([]profile.Profile, []SkippedRecord, error) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	return fs.loadLocked(kind)
}

func (fs *FileStore) loadLocked(kind profile.Kind) ([]profile.Profile, []SkippedRecord, error) {
	path := fs.path(kind)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logging.LogDebug("Store file %s does not exist yet, starting empty", path)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, path, err)
	}

	var profiles []profile.Profile
	var skipped []SkippedRecord
	for i := range doc.Profiles {
		p, err := decodeRecord(kind, &doc.Profiles[i])
		if err != nil {
			logging.LogError("Skipping %s record %d: %v", kind, i, err)
			skipped = append(skipped, SkippedRecord{Kind: kind, Index: i, Reason: err.Error()})
			continue
		}
		if p.ProfileID() == "" || p.DisplayName() == "" {
			reason := "missing required field: id"
			if p.ProfileID() != "" {
				reason = "missing required field: name"
			}
			logging.LogError("Skipping %s record %d: %s", kind, i, reason)
			skipped = append(skipped, SkippedRecord{Kind: kind, Index: i, Reason: reason})
			continue
		}
		profiles = append(profiles, p)
	}

	logging.LogDebug("Loaded %d %s profiles from %s (%d skipped)", len(profiles), kind, path, len(skipped))
	return profiles, skipped, nil
}

// Save atomically replaces the file for a kind: the new content is
// written to a temp file in the same directory and renamed over the
// old one, so a crash mid-write cannot corrupt the previous state.
func (fs *FileStore) Save(kind profile.Kind, profiles []profile.Profile) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	for _, p := range profiles {
		if p.Kind() != kind {
			return fmt.Errorf("cannot save %s profile %q into the %s collection", p.Kind(), p.ProfileID(), kind)
		}
	}

	doc := struct {
		Profiles []profile.Profile `yaml:"profiles"`
	}{Profiles: profiles}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s profiles: %w", kind, err)
	}

	tmp, err := os.CreateTemp(fs.dir, ".stassh-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", tmpPath, err)
	}

	path := fs.path(kind)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	logging.LogDebug("Saved %d %s profiles to %s", len(profiles), kind, path)
	return nil
}

// NextID returns an identifier not present in the persisted collection
// of the kind. UUIDs make collisions effectively impossible; the check
// against loaded ids is a guard against hand-edited files.
func (fs *FileStore) NextID(kind profile.Kind) string {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	existing := make(map[string]bool)
	if profiles, _, err := fs.loadLocked(kind); err == nil {
		for _, p := range profiles {
			existing[p.ProfileID()] = true
		}
	}
	for {
		id := uuid.NewString()
		if !existing[id] {
			return id
		}
	}
}

func (fs *FileStore) Close() error { return nil }
