package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/xlttj/stassh/pkg/logging"
	"github.com/xlttj/stassh/pkg/profile"
)

// SQLiteStore is the alternate backend for users who prefer a single
// database file over hand-editable YAML. Same interface, same
// collection-replace semantics.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mutex  sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the profile database under
// dir. An empty dir selects the per-OS default config directory.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
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
	dbPath := filepath.Join(dir, "stassh.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.LogDebug("SQLite profile store initialized at: %s", dbPath)
	return store, nil
}

func (st *SQLiteStore) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS direct_connections (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		device_type TEXT NOT NULL DEFAULT '',
		host TEXT NOT NULL,
		port INTEGER NOT NULL,
		user TEXT NOT NULL,
		key_reference TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS proxy_jumps (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		device_type TEXT NOT NULL DEFAULT '',
		jump_host TEXT NOT NULL,
		jump_port INTEGER NOT NULL,
		jump_user TEXT NOT NULL,
		target_host TEXT NOT NULL,
		target_port INTEGER NOT NULL,
		target_user TEXT NOT NULL,
		key_reference TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS port_forwards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		device_type TEXT NOT NULL DEFAULT '',
		remote_host TEXT NOT NULL,
		remote_port INTEGER NOT NULL,
		remote_user TEXT NOT NULL,
		target_host TEXT NOT NULL,
		target_port INTEGER NOT NULL,
		local_port INTEGER NOT NULL,
		key_reference TEXT NOT NULL DEFAULT ''
	);
	`

	if _, err := st.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func tableName(kind profile.Kind) string {
	switch kind {
	case profile.KindDirect:
		return "direct_connections"
	case profile.KindProxyJump:
		return "proxy_jumps"
	case profile.KindPortForward:
		return "port_forwards"
	}
	return ""
}

// Load reads the collection for a kind in insertion (rowid) order.
// The schema enforces the record shape, so no records are skipped.
func (st *SQLiteStore) Load(kind profile.Kind) ([]profile.Profile, []SkippedRecord, error) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	profiles, err := st.loadLocked(kind)
	if err != nil {
		return nil, nil, err
	}
	return profiles, nil, nil
}

func (st *SQLiteStore) loadLocked(kind profile.Kind) ([]profile.Profile, error) {
	var profiles []profile.Profile

	switch kind {
	case profile.KindDirect:
		rows, err := st.db.Query(`SELECT id, name, notes, device_type, host, port, user, key_reference FROM direct_connections ORDER BY rowid`)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
		defer rows.Close()
		for rows.Next() {
			var c profile.DirectConnection
			if err := rows.Scan(&c.ID, &c.Name, &c.Notes, &c.DeviceType, &c.Host, &c.Port, &c.User, &c.KeyRef); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
			}
			profiles = append(profiles, c)
		}
		return profiles, rows.Err()

	case profile.KindProxyJump:
		rows, err := st.db.Query(`SELECT id, name, notes, device_type, jump_host, jump_port, jump_user, target_host, target_port, target_user, key_reference FROM proxy_jumps ORDER BY rowid`)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
		defer rows.Close()
		for rows.Next() {
			var p profile.ProxyJump
			if err := rows.Scan(&p.ID, &p.Name, &p.Notes, &p.DeviceType, &p.JumpHost, &p.JumpPort, &p.JumpUser, &p.TargetHost, &p.TargetPort, &p.TargetUser, &p.KeyRef); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
			}
			profiles = append(profiles, p)
		}
		return profiles, rows.Err()

	case profile.KindPortForward:
		rows, err := st.db.Query(`SELECT id, name, notes, device_type, remote_host, remote_port, remote_user, target_host, target_port, local_port, key_reference FROM port_forwards ORDER BY rowid`)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
		defer rows.Close()
		for rows.Next() {
			var f profile.PortForward
			if err := rows.Scan(&f.ID, &f.Name, &f.Notes, &f.DeviceType, &f.RemoteHost, &f.RemotePort, &f.RemoteUser, &f.TargetHost, &f.TargetPort, &f.LocalPort, &f.KeyRef); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
			}
			profiles = append(profiles, f)
		}
		return profiles, rows.Err()
	}
	return nil, fmt.Errorf("unknown profile kind %v", kind)
}

// Save replaces the whole collection for a kind inside one
// transaction, mirroring the file backend's atomic rewrite.
func (st *SQLiteStore) Save(kind profile.Kind, profiles []profile.Profile) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	for _, p := range profiles {
		if p.Kind() != kind {
			return fmt.Errorf("cannot save %s profile %q into the %s collection", p.Kind(), p.ProfileID(), kind)
		}
	}

	tx, err := st.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", tableName(kind))); err != nil {
		return fmt.Errorf("failed to clear %s: %w", tableName(kind), err)
	}

	for _, p := range profiles {
		switch v := p.(type) {
		case profile.DirectConnection:
			_, err = tx.Exec(`INSERT INTO direct_connections (id, name, notes, device_type, host, port, user, key_reference) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				v.ID, v.Name, v.Notes, v.DeviceType, v.Host, v.Port, v.User, v.KeyRef)
		case profile.ProxyJump:
			_, err = tx.Exec(`INSERT INTO proxy_jumps (id, name, notes, device_type, jump_host, jump_port, jump_user, target_host, target_port, target_user, key_reference) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				v.ID, v.Name, v.Notes, v.DeviceType, v.JumpHost, v.JumpPort, v.JumpUser, v.TargetHost, v.TargetPort, v.TargetUser, v.KeyRef)
		case profile.PortForward:
			_, err = tx.Exec(`INSERT INTO port_forwards (id, name, notes, device_type, remote_host, remote_port, remote_user, target_host, target_port, local_port, key_reference) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				v.ID, v.Name, v.Notes, v.DeviceType, v.RemoteHost, v.RemotePort, v.RemoteUser, v.TargetHost, v.TargetPort, v.LocalPort, v.KeyRef)
		}
		if err != nil {
			return fmt.Errorf("failed to insert %s profile %q: %w", kind, p.ProfileID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s save: %w", kind, err)
	}

	logging.LogDebug("Saved %d %s profiles to %s", len(profiles), kind, st.dbPath)
	return nil
}

// NextID returns an identifier not present in the persisted collection
// of the kind.
func (st *SQLiteStore) NextID(kind profile.Kind) string {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	existing := make(map[string]bool)
	rows, err := st.db.Query(fmt.Sprintf("SELECT id FROM %s", tableName(kind)))
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var id string
			if rows.Scan(&id) == nil {
				existing[id] = true
			}
		}
	}
	for {
		id := uuid.NewString()
		if !existing[id] {
			return id
		}
	}
}

func (st *SQLiteStore) Close() error {
	if st.db != nil {
		return st.db.Close()
	}
	return nil
}
