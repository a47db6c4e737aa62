package proc

import "fmt"

// SpawnError reports that the shell wrapper or command could not be
// launched at all. A spawn failure never registers a process record.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
