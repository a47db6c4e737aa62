package proc

// Status is the lifecycle state of a tracked process.
//
// Transitions:
//
//	running -> exited                         (process exits on its own)
//	running -> terminating                    (explicit kill requested)
//	running -> killed                         (group died to an external signal)
//	terminating -> killed                     (group gone within the grace period)
//	terminating -> terminate_timeout          (grace period elapsed)
//	terminate_timeout -> killed               (group gone after SIGKILL)
//
// exited and killed are terminal; no transition ever leaves them.
type Status string

const (
	StatusRunning          Status = "running"
	StatusTerminating      Status = "terminating"
	StatusTerminateTimeout Status = "terminate_timeout"
	StatusKilled           Status = "killed"
	StatusExited           Status = "exited"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusExited || s == StatusKilled
}

// Alive reports whether the process group may still be running.
func (s Status) Alive() bool { return !s.Terminal() }

func (s Status) String() string { return string(s) }
