package notify

import (
	"fmt"
	"time"

	"github.com/loykin/bgproc/internal/event"
	"github.com/loykin/bgproc/internal/proc"
)

// Payload is the structured message handed to the host when a process
// ends.
type Payload struct {
	ProcessID   string        `json:"processId"`
	ProcessName string        `json:"processName"`
	Command     string        `json:"command"`
	Status      proc.Status   `json:"status"`
	ExitCode    *int          `json:"exitCode,omitempty"`
	Success     bool          `json:"success"`
	Runtime     time.Duration `json:"runtime"`
}

// Message pairs the payload with a rendered human string and the two
// independently controllable effects: showing it to the user (always)
// and giving the controlling agent a reactive turn (conditional).
type Message struct {
	Payload     Payload
	Text        string
	TriggerTurn bool
}

// Messenger is the host's generic messaging channel.
type Messenger interface {
	Deliver(Message)
}

// TurnNotifier decides, from a record's alert flags and the terminal
// status it reached, whether the controlling agent should receive a
// reactive turn or only a display-only message. Every transition is
// reported to the user regardless of flag configuration.
type TurnNotifier struct {
	host Messenger
}

func NewTurnNotifier(host Messenger) *TurnNotifier {
	return &TurnNotifier{host: host}
}

// HandleProcessEvent implements event.Subscriber.
func (n *TurnNotifier) HandleProcessEvent(e event.Event) {
	msg := Message{
		Payload: Payload{
			ProcessID:   e.Record.ID,
			ProcessName: e.Record.Name,
			Command:     e.Record.Command,
			Status:      e.Record.Status,
			ExitCode:    e.Record.ExitCode,
			Success:     e.Record.Success,
			Runtime:     e.Record.Runtime().Truncate(time.Millisecond),
		},
	}
	switch e.Type {
	case event.TypeStarted:
		msg.Text = fmt.Sprintf("%s (%s) started: %s", e.Record.Name, e.Record.ID, e.Record.Command)
	case event.TypeStatusChanged:
		if e.To.Terminal() {
			// The ended event carries the message for terminal
			// transitions; avoid delivering it twice.
			return
		}
		msg.Text = fmt.Sprintf("%s (%s) is %s", e.Record.Name, e.Record.ID, e.To)
	case event.TypeEnded:
		msg.Text = endedText(e)
		msg.TriggerTurn = ShouldTriggerTurn(e)
	default:
		return
	}
	n.host.Deliver(msg)
}

// ShouldTriggerTurn computes the reactive-turn decision for an ended
// event. An explicit kill never triggers alertOnKill: a requested kill
// is an expected outcome, not a surprise the agent must react to.
func ShouldTriggerTurn(e event.Event) bool {
	if e.Type != event.TypeEnded {
		return false
	}
	r := e.Record
	switch r.Status {
	case proc.StatusExited:
		if r.Success {
			return r.AlertOnSuccess
		}
		return r.AlertOnFailure
	case proc.StatusKilled:
		return !e.ExplicitKill && r.AlertOnKill
	default:
		return false
	}
}

func endedText(e event.Event) string {
	r := e.Record
	elapsed := r.Runtime().Truncate(time.Millisecond)
	switch r.Status {
	case proc.StatusExited:
		if r.ExitCode != nil {
			return fmt.Sprintf("%s (%s) exited with code %d after %s", r.Name, r.ID, *r.ExitCode, elapsed)
		}
		return fmt.Sprintf("%s (%s) exited after %s", r.Name, r.ID, elapsed)
	case proc.StatusKilled:
		if e.ExplicitKill {
			return fmt.Sprintf("%s (%s) was killed after %s", r.Name, r.ID, elapsed)
		}
		return fmt.Sprintf("%s (%s) died to an external signal after %s", r.Name, r.ID, elapsed)
	default:
		return fmt.Sprintf("%s (%s) ended (%s) after %s", r.Name, r.ID, r.Status, elapsed)
	}
}
