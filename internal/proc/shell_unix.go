//go:build !windows

package proc

import (
	"os"
	"os/exec"
)

// loginShellCommand wraps script in the user's login shell so that
// builtins, aliases and rc-configured PATH entries work. Falls back to
// /bin/bash then /bin/sh when $SHELL is unset or missing.
func loginShellCommand(script string) *exec.Cmd {
	shell := os.Getenv("SHELL")
	if shell == "" || !isExecutable(shell) {
		shell = "/bin/bash"
		if !isExecutable(shell) {
			shell = "/bin/sh"
		}
	}
	// #nosec G204
	return exec.Command(shell, "-l", "-c", script)
}

func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// exitSignaled reports whether the reaped process died to a signal.
func exitSignaled(ee *exec.ExitError) bool {
	if ws, ok := ee.Sys().(interface{ Signaled() bool }); ok {
		return ws.Signaled()
	}
	return false
}
