package cmd

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/xlttj/stassh/pkg/app"
	"github.com/xlttj/stassh/pkg/profile"
	"github.com/xlttj/stassh/pkg/sshconfig"
	"github.com/xlttj/stassh/pkg/store"
)

// HandleImportCommand handles the import subcommand logic
func HandleImportCommand() {
	if len(os.Args) > 2 {
		for _, arg := range os.Args[2:] {
			if arg == "-h" || arg == "--help" {
				showImportHelp()
				os.Exit(0)
			}
		}
	}

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := importCmd.String("config", "", "Path to the ssh config file (defaults to ~/.ssh/config)")
	backend := importCmd.String("store", "file", "Profile store backend: 'file' or 'sqlite'")
	acceptAll := importCmd.Bool("y", false, "Import all hosts without prompting")

	importCmd.Usage = showImportHelp

	if err := importCmd.Parse(os.Args[2:]); err != nil {
		fmt.Printf("Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	path := *configPath
	if path == "" {
		var err error
		path, err = sshconfig.DefaultPath()
		if err != nil {
			fmt.Printf("Error locating ssh config: %v\n", err)
			os.Exit(1)
		}
	}

	entries, err := sshconfig.Parse(path)
	if err != nil {
		fmt.Printf("Error reading ssh config: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Printf("🔍 No importable host entries found in %s\n", path)
		return
	}
	fmt.Printf("🔍 Found %d host entr%s in %s\n\n", len(entries), pluralY(len(entries)), path)

	st, err := store.New(*backend, "")
	if err != nil {
		fmt.Printf("Error opening profile store: %v\n", err)
		os.Exit(1)
	}
	mgr, err := app.NewManager(st)
	if err != nil {
		fmt.Printf("Error loading profiles: %v\n", err)
		os.Exit(1)
	}
	defer mgr.Shutdown()

	selected, err := selectEntries(entries, *acceptAll)
	if err != nil {
		fmt.Printf("👋 %v\n", err)
		return
	}
	if len(selected) == 0 {
		fmt.Printf("No hosts selected. Exiting.\n")
		return
	}

	existing := make(map[string]bool)
	for _, p := range mgr.List(profile.KindDirect) {
		existing[p.DisplayName()] = true
	}

	imported := 0
	for _, e := range selected {
		if existing[e.Alias] {
			fmt.Printf("⏭️  Skipped %s: a profile with that name already exists\n", e.Alias)
			continue
		}
		created, err := mgr.Create(e.Profile())
		if err != nil {
			var ve *app.ValidationError
			if errors.As(err, &ve) {
				fmt.Printf("⏭️  Skipped %s: %v\n", e.Alias, err)
				continue
			}
			fmt.Printf("Error saving %s: %v\n", e.Alias, err)
			os.Exit(1)
		}
		imported++
		fmt.Printf("✅ Imported: %s (%s)\n", e.Alias, created.ProfileID())
	}
	fmt.Printf("\n📊 Import complete: %d of %d host(s) imported.\n", imported, len(selected))
}

// selectEntries runs the interactive pick over parsed host entries.
func selectEntries(entries []sshconfig.Entry, acceptAll bool) ([]sshconfig.Entry, error) {
	if acceptAll {
		return entries, nil
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Select hosts to import as direct connection profiles:\n")
	fmt.Printf("(Press Enter for [Y]es, 'n' for No, 'a' for All remaining, 'q' to Quit)\n\n")

	var selected []sshconfig.Entry
	for i := 0; i < len(entries); i++ {
		e := entries[i]

		fmt.Printf("🖥️  Host: %s\n", e.Alias)
		fmt.Printf("   Address: %s:%d\n", e.HostName, e.Port)
		if e.User != "" {
			fmt.Printf("   User: %s\n", e.User)
		}
		if e.IdentityFile != "" {
			fmt.Printf("   Identity: %s\n", e.IdentityFile)
		}

		fmt.Printf("\n❓ Import this host? [Y/n/a/q]: ")
		response, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read user input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		switch response {
		case "", "y", "yes":
			selected = append(selected, e)
			fmt.Printf("✅ Added: %s\n\n", e.Alias)

		case "n", "no":
			fmt.Printf("⏭️  Skipped: %s\n\n", e.Alias)

		case "a", "all":
			selected = append(selected, entries[i:]...)
			fmt.Printf("🎯 Selected all remaining hosts (%d total selected)\n\n", len(selected))
			return selected, nil

		case "q", "quit":
			return nil, fmt.Errorf("import cancelled")

		default:
			fmt.Printf("❌ Invalid response '%s'. Please use y/n/a/q.\n", response)
			i-- // Retry this host
		}
	}
	return selected, nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// showImportHelp displays help for the import command
func showImportHelp() {
	programName := os.Args[0]
	fmt.Fprintf(os.Stderr, `%s import - Import hosts from an OpenSSH config file

Parse the Host blocks of an ssh config file and create direct
connection profiles from them. Wildcard host patterns are skipped.

Usage:
  %s import [options]

Options:
  --config string   Path to the ssh config file (defaults to ~/.ssh/config)
  --store string    Profile store backend: 'file' or 'sqlite' (default "file")
  -y                Import all hosts without prompting for confirmation
  -h, --help        Show this help message

Examples:
  %s import                               Interactive import from ~/.ssh/config
  %s import --config ./work_config        Import from a specific file
  %s import -y                            Import everything without prompting
  %s import --store sqlite -y             Import into the SQLite backend

Hosts whose alias matches an existing profile name are skipped, so the
command is safe to re-run after editing your ssh config.
`, programName, programName, programName, programName, programName, programName)
}
