package history

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/loykin/bgproc/internal/event"
	"github.com/loykin/bgproc/internal/proc"
)

// EventType defines the kind of lifecycle event exported to sinks.
type EventType string

const (
	EventStarted EventType = "started"
	EventEnded   EventType = "ended"
)

// Record is the audit-trail shape of a process lifecycle entry. It is
// export-only: the registry is never recovered from a sink.
type Record struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Command   string       `json:"command"`
	PID       int          `json:"pid"`
	Status    string       `json:"status"`
	ExitCode  sql.NullInt64 `json:"exit_code"`
	Success   bool         `json:"success"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   sql.NullTime `json:"ended_at"`
}

// Event represents a lifecycle event to be exported to external systems.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Record     Record    `json:"record"`
}

// Sink is a destination for history events (audit/statistics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}

// Recorder adapts the manager's event bus to history sinks: started
// and ended events become audit rows; intermediate transitions are not
// exported. Sink failures are logged and never propagate.
type Recorder struct {
	sinks []Sink
}

func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks}
}

// HandleProcessEvent implements event.Subscriber.
func (r *Recorder) HandleProcessEvent(e event.Event) {
	var t EventType
	switch e.Type {
	case event.TypeStarted:
		t = EventStarted
	case event.TypeEnded:
		t = EventEnded
	default:
		return
	}
	he := Event{Type: t, OccurredAt: e.At.UTC(), Record: fromRecord(e.Record)}
	for _, s := range r.sinks {
		if err := s.Send(context.Background(), he); err != nil {
			slog.Warn("history sink send failed", "type", string(t), "id", he.Record.ID, "error", err)
		}
	}
}

// Close closes all sinks.
func (r *Recorder) Close() {
	for _, s := range r.sinks {
		_ = s.Close()
	}
}

func fromRecord(p proc.Record) Record {
	rec := Record{
		ID:        p.ID,
		Name:      p.Name,
		Command:   p.Command,
		PID:       p.PID,
		Status:    p.Status.String(),
		Success:   p.Success,
		StartedAt: p.StartTime,
	}
	if p.ExitCode != nil {
		rec.ExitCode = sql.NullInt64{Int64: int64(*p.ExitCode), Valid: true}
	}
	if !p.EndTime.IsZero() {
		rec.EndedAt = sql.NullTime{Time: p.EndTime, Valid: true}
	}
	return rec
}
