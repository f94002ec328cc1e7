package cmd

import (
	"fmt"
	"os"
)

// HandleHelpCommand displays help information for the application
func HandleHelpCommand() {
	showMainHelp()
}

// showMainHelp displays the main application help
func showMainHelp() {
	programName := os.Args[0]
	fmt.Printf(`stassh - SSH Connection Manager

A terminal-based UI application for managing SSH connection profiles:
direct connections, jump-host connections and local port forwards.

Usage:
  %s [command]

Available Commands:
  import   Import host entries from an OpenSSH config file
  help     Show help information

Options:
  --store string  Profile store backend: 'file' (YAML) or 'sqlite' (default "file")
  -h, --help      Show help information

Interactive Mode:
  Run without any command to start the interactive TUI where you can:
  - Switch between profile kinds with Tab or 1/2/3
  - Press Enter to connect, Space to start/stop a port forward
  - Press 'n' to create, 'e' to edit, 'd' to duplicate, 'x' to delete
  - Use '/' to filter profiles

Examples:
  %s                         Start interactive TUI
  %s --store sqlite          Start the TUI on the SQLite backend
  %s import                  Import hosts from ~/.ssh/config
  %s import -y               Import all hosts without prompting
  %s help                    Show this help message

For more information about a specific command, use:
  %s <command> --help

Project Repository: https://github.com/xlttj/stassh
`, programName, programName, programName, programName, programName, programName, programName)
}

// ShowMainHelpAndExit displays help and exits with code 0
func ShowMainHelpAndExit() {
	showMainHelp()
	os.Exit(0)
}
