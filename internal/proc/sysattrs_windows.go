//go:build windows

package proc

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr creates the child in a new process group so
// TerminateGroup can address it and its console descendants.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
