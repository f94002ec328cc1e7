package ui

// UIState represents the different views/states of the UI
type UIState int

const (
	StateProfiles      UIState = iota // Profile table view
	StateForm                         // Create/edit form view
	StateConfirmDelete                // Delete confirmation prompt
)

// FormMode distinguishes creating a new profile from editing one
type FormMode int

const (
	FormCreate FormMode = iota
	FormEdit
)

// sessionFinishedMsg is delivered when an interactive ssh session
// handed to the terminal returns control to the TUI.
type sessionFinishedMsg struct {
	name string
	err  error
}
