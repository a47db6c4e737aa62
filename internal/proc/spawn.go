package proc

import (
	"errors"
	"io"
	"os/exec"
	"strings"
)

// Spawn launches spec.Command through a login shell in a fresh process
// group and wires the child's stdout/stderr into the given writers. The
// returned *exec.Cmd has been started; its Process.Pid is the group
// leader PID. The caller owns Wait.
//
// The login shell wrapper is deliberate: shell builtins, aliases and
// rc-file-configured tooling behave the way the user expects them to in
// their terminal.
func Spawn(spec Spec, stdout, stderr io.Writer) (*exec.Cmd, error) {
	cmd := loginShellCommand(strings.TrimSpace(spec.Command))
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = spec.Env
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	configureSysProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Command: spec.Command, Err: err}
	}
	return cmd, nil
}

// ExitInfo describes how a reaped process ended.
type ExitInfo struct {
	Code     int  // exit code when Signaled is false
	Signaled bool // the process died to a signal instead of exiting
}

// Reap interprets the error returned by cmd.Wait.
func Reap(waitErr error) ExitInfo {
	if waitErr == nil {
		return ExitInfo{Code: 0}
	}
	var ee *exec.ExitError
	if errors.As(waitErr, &ee) {
		if exitSignaled(ee) {
			return ExitInfo{Signaled: true}
		}
		return ExitInfo{Code: ee.ExitCode()}
	}
	// Wait failed for a reason other than process exit; treat it as a
	// signal-style death so the record still reaches a terminal state.
	return ExitInfo{Signaled: true}
}
