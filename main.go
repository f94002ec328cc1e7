package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xlttj/stassh/pkg/app"
	"github.com/xlttj/stassh/pkg/cmd"
	"github.com/xlttj/stassh/pkg/logging"
	"github.com/xlttj/stassh/pkg/store"
	"github.com/xlttj/stassh/pkg/ui"
)

func main() {
	setupLogging()
	defer logging.Sync()

	// Subcommands first
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "import":
			cmd.HandleImportCommand()
			return
		case "help", "-h", "--help":
			cmd.ShowMainHelpAndExit()
		}
	}

	backend := flag.String("store", "file", "Profile store backend: 'file' or 'sqlite'")
	flag.Usage = cmd.HandleHelpCommand
	flag.Parse()

	// Default behavior - start TUI
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

	model := ui.NewModel(mgr)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		mgr.Shutdown()
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Kill any tunnels still open so nothing is orphaned
	mgr.Shutdown()
}

// setupLogging points the debug log at the profile directory. Logging
// is best effort; the app runs fine without it.
func setupLogging() {
	dir, err := store.DefaultDir()
	if err != nil {
		return
	}
	if err := logging.Setup(filepath.Join(dir, "stassh.log")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
}
