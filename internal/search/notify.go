package search

import "github.com/Paintersrp/rgpanel/internal/ripgrep"

// RunID identifies one launched search within a session. IDs increase
// monotonically, so consumers can drop notifications from superseded runs.
type RunID uint64

// Notification is delivered to listeners as a run progresses.
type Notification interface {
	RunID() RunID
}

// Listener receives notifications in order. It is called with the session
// lock held and must not call back into the session.
type Listener func(Notification)

// SearchStarted is sent once the rg process has been spawned.
type SearchStarted struct {
	Run     RunID
	Request Request
	Options Options
	Args    []string
}

// FileStarted is sent when rg begins reporting a file.
type FileStarted struct {
	Run  RunID
	File string
}

// MatchAdded is sent for every match appended to the tree.
type MatchAdded struct {
	Run        RunID
	File       string
	LineText   string
	LineNumber int
	Submatches []ripgrep.Submatch
}

// SearchFinished is sent once per completed run. Err is non-nil when rg exited
// abnormally; Stats are still reported in that case.
type SearchFinished struct {
	Run      RunID
	Stats    Stats
	ExitCode int
	Err      error
}

// SearchCancelled is sent when a running search is killed, either explicitly
// or because a new search replaced it.
type SearchCancelled struct {
	Run RunID
}

// Diagnostic carries a non-fatal protocol problem. The run continues.
type Diagnostic struct {
	Run RunID
	Err error
}

// LaunchFailed is sent when the rg process could not be started.
type LaunchFailed struct {
	Run RunID
	Err error
}

func (n SearchStarted) RunID() RunID   { return n.Run }
func (n FileStarted) RunID() RunID     { return n.Run }
func (n MatchAdded) RunID() RunID      { return n.Run }
func (n SearchFinished) RunID() RunID  { return n.Run }
func (n SearchCancelled) RunID() RunID { return n.Run }
func (n Diagnostic) RunID() RunID      { return n.Run }
func (n LaunchFailed) RunID() RunID    { return n.Run }

// Match returns the notification as a tree match.
func (n MatchAdded) Match() Match {
	return Match{
		File:       n.File,
		LineNumber: n.LineNumber,
		LineText:   n.LineText,
		Submatches: n.Submatches,
	}
}
