package event

import (
	"time"

	"github.com/loykin/bgproc/internal/proc"
)

// Type enumerates manager lifecycle events.
type Type string

const (
	// TypeStarted fires once per record, atomically with registration.
	TypeStarted Type = "process_started"
	// TypeStatusChanged fires on every state transition.
	TypeStatusChanged Type = "status_changed"
	// TypeEnded fires when a record enters exited or killed.
	TypeEnded Type = "ended"
)

// Event carries everything a subscriber needs; subscribers never reach
// into shared mutable state.
type Event struct {
	Type   Type
	Record proc.Record // full snapshot at emission time
	From   proc.Status // previous status (status_changed / ended)
	To     proc.Status
	// ExplicitKill is true when an explicit kill request was in flight
	// for this record; an ended event with ExplicitKill=false and
	// To=killed means the group disappeared to an external signal.
	ExplicitKill bool
	At           time.Time
}
