// Package sshconfig reads OpenSSH client configuration files and
// extracts the Host blocks that can be imported as connection
// profiles. Only the handful of keywords a profile can represent are
// parsed; everything else is ignored.
package sshconfig

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xlttj/stassh/pkg/logging"
	"github.com/xlttj/stassh/pkg/profile"
)

// Entry is one importable Host block from an ssh_config file.
type Entry struct {
	Alias        string
	HostName     string
	User         string
	Port         int
	IdentityFile string
}

// DefaultPath returns the user's ~/.ssh/config location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".ssh", "config"), nil
}

// Parse reads an ssh_config file and returns its concrete Host
// entries. Wildcard aliases (containing * or ?) configure defaults
// rather than hosts and are skipped; a Host line with several aliases
// yields one entry per alias.
func Parse(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ssh config %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	var current []int // indices into entries for the open Host block

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		keyword, value, ok := splitKeyword(line)
		if !ok {
			continue
		}

		if strings.EqualFold(keyword, "Host") {
			current = current[:0]
			for _, alias := range strings.Fields(value) {
				if strings.ContainsAny(alias, "*?") {
					logging.LogDebug("Skipping wildcard host pattern %q (line %d)", alias, lineNo)
					continue
				}
				entries = append(entries, Entry{Alias: alias, Port: 22})
				current = append(current, len(entries)-1)
			}
			continue
		}
		if strings.EqualFold(keyword, "Match") {
			// Conditional blocks carry no importable host.
			current = current[:0]
			continue
		}
		if len(current) == 0 {
			continue
		}

		for _, idx := range current {
			applyKeyword(&entries[idx], keyword, value, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ssh config %s: %w", path, err)
	}

	for i := range entries {
		if entries[i].HostName == "" {
			entries[i].HostName = entries[i].Alias
		}
	}

	logging.LogDebug("Parsed %d host entries from %s", len(entries), path)
	return entries, nil
}

// splitKeyword separates an ssh_config line into keyword and argument.
// Both "Keyword value" and "Keyword=value" forms are accepted.
func splitKeyword(line string) (keyword, value string, ok bool) {
	if i := strings.IndexAny(line, " \t="); i > 0 {
		return line[:i], strings.Trim(strings.TrimSpace(line[i+1:]), "\""), true
	}
	return "", "", false
}

func applyKeyword(e *Entry, keyword, value string, lineNo int) {
	switch strings.ToLower(keyword) {
	case "hostname":
		e.HostName = value
	case "user":
		e.User = value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil {
			logging.LogDebug("Ignoring unparseable Port %q for host %s (line %d)", value, e.Alias, lineNo)
			return
		}
		e.Port = port
	case "identityfile":
		e.IdentityFile = value
	}
}

// Profile converts an entry into a direct connection profile. The id
// is left empty for the caller to assign on create.
func (e Entry) Profile() profile.DirectConnection {
	return profile.DirectConnection{
		Meta: profile.Meta{
			Name:  e.Alias,
			Notes: "Imported from ssh_config",
		},
		Host:   e.HostName,
		Port:   e.Port,
		User:   e.User,
		KeyRef: e.IdentityFile,
	}
}
