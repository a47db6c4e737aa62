package proc

import "time"

// Spec describes a command to launch in the background.
type Spec struct {
	Name           string   `json:"name"`
	Command        string   `json:"command"`
	WorkDir        string   `json:"work_dir,omitempty"`
	Env            []string `json:"env,omitempty"` // extra KEY=VALUE overrides
	AlertOnSuccess bool     `json:"alert_on_success"`
	AlertOnFailure bool     `json:"alert_on_failure"`
	AlertOnKill    bool     `json:"alert_on_kill"`
}

// Record is a snapshot of one tracked process. It is a value type; the
// manager owns the mutable original and hands out copies.
type Record struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Command string `json:"command"`
	PID     int    `json:"pid"` // process-group leader PID

	Status   Status `json:"status"`
	ExitCode *int   `json:"exit_code,omitempty"` // set only when Status == exited
	Success  bool   `json:"success"`             // meaningful only when Status == exited

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitzero"` // zero while alive

	AlertOnSuccess bool `json:"alert_on_success"`
	AlertOnFailure bool `json:"alert_on_failure"`
	AlertOnKill    bool `json:"alert_on_kill"`

	StdoutLog string `json:"stdout_log"`
	StderrLog string `json:"stderr_log"`
}

// Runtime returns how long the process has been running, or its total
// runtime once it reached a terminal status.
func (r Record) Runtime() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}
