// Package keys resolves stored key references to private key files.
// A reference is an opaque string: an absolute path, a ~-prefixed
// path, or a bare file name looked up in the resolver's directory.
// The key material itself is never read or modified here.
package keys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xlttj/stassh/pkg/logging"
)

// Sentinel error for a key reference that cannot be resolved to a
// readable file.
var ErrKeyNotFound = errors.New("private key could not be resolved")

// Resolver maps key references to files on disk. Dir is the fallback
// search directory for bare references, ~/.ssh by default.
type Resolver struct {
	Dir string
}

// NewResolver returns a resolver searching the user's ~/.ssh.
func NewResolver() Resolver {
	home, err := os.UserHomeDir()
	if err != nil {
		logging.LogError("Failed to locate home directory: %v", err)
		return Resolver{}
	}
	return Resolver{Dir: filepath.Join(home, ".ssh")}
}

// Resolve turns a key reference into a readable file path.
func (r Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty key reference", ErrKeyNotFound)
	}

	path, err := expandHome(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyNotFound, err)
	}

	if !filepath.IsAbs(path) && !strings.ContainsRune(path, os.PathSeparator) && r.Dir != "" {
		// Bare name: look it up in the search directory.
		path = filepath.Join(r.Dir, path)
	}

	if err := checkReadable(path); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrKeyNotFound, ref, err)
	}
	return path, nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
