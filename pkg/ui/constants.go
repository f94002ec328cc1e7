package ui

// Table Column Titles
const (
	ColName   = "NAME"
	ColHost   = "HOST"
	ColPort   = "PORT"
	ColUser   = "USER"
	ColJump   = "JUMP"
	ColTarget = "TARGET"
	ColLocal  = "LOCAL"
	ColRemote = "REMOTE"
	ColKey    = "KEY"
	ColStatus = "STATUS"
)

// Keyboard shortcuts
const (
	ShortcutExit = "ctrl+x"
)

// Numeric Constants for Layout/Indexing
const (
	MinTableHeight     = 4 // Minimum height for tables after calculation
	ProfilesViewOffset = 9 // Estimated non-table lines in the profiles view (including tabs and filter line)
)

// Status Strings - display-only, never persisted
const (
	StatusStopped = "Stopped"
	StatusRunning = "Running"
)

// Lipgloss Colors
const (
	ColorBorder     = "240"
	ColorSelectedFg = "229"
	ColorSelectedBg = "57"
	ColorTitle      = "14"  // Cyan for titles
	ColorHelp       = "245" // Grey for help text
	ColorError      = "9"   // Red for errors
	ColorStatus     = "10"  // Green for success messages
	ColorTabActive  = "205" // Active kind tab
	ColorFormLabel  = "11"  // Yellow for form field labels
)
