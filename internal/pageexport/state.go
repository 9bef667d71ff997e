package pageexport

import "fmt"

// State is a step of the export workflow.
type State string

const (
	StateInitiating State = "initiating"
	StatePolling    State = "polling"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
	StateTimedOut   State = "timed_out"
	StateErrored    State = "errored"
)

// IsTerminal returns true if no further transitions follow s.
func (s State) IsTerminal() bool {
	switch s {
	case StateComplete, StateFailed, StateTimedOut, StateErrored:
		return true
	}
	return false
}

// stateFor maps an export error to the terminal state it ends the run in.
func stateFor(err error) State {
	switch KindOf(err) {
	case KindRemoteFailed:
		return StateFailed
	case KindTimedOut:
		return StateTimedOut
	default:
		return StateErrored
	}
}

// Event describes one transition of a run.
type Event struct {
	RunID  string
	DocID  string
	PageID string
	State  State
	// Attempt is the 1-based poll number; zero outside StatePolling.
	Attempt     int
	MaxAttempts int
	// RemoteStatus is the raw status string returned by the last poll.
	RemoteStatus string
	// Err is set on StateFailed, StateTimedOut and StateErrored.
	Err error
}

// FormatEvent renders an event as a one-line progress message.
func FormatEvent(ev Event) string {
	switch ev.State {
	case StateInitiating:
		return "Starting page export"
	case StatePolling:
		return fmt.Sprintf("Waiting for export (attempt %d/%d, status %q)", ev.Attempt, ev.MaxAttempts, ev.RemoteStatus)
	case StateComplete:
		return "Export complete"
	default:
		if ev.Err != nil {
			return fmt.Sprintf("Export %s: %v", ev.State, ev.Err)
		}
		return fmt.Sprintf("Export %s", ev.State)
	}
}
