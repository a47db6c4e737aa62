//go:build windows

package proc

import "os/exec"

// loginShellCommand runs script through cmd.exe. Windows has no login
// shell notion; this keeps the package compiling with the same surface.
func loginShellCommand(script string) *exec.Cmd {
	// #nosec G204
	return exec.Command("cmd", "/C", script)
}

// exitSignaled reports whether the reaped process died to a signal.
// Windows has no POSIX signals; a non-zero exit is always an exit.
func exitSignaled(_ *exec.ExitError) bool { return false }
