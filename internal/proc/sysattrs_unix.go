//go:build !windows

package proc

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr places the child in its own process group so a
// single group signal reaches every descendant the command forks. The
// child's PID becomes the group ID.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
