//go:build !windows

package proc

import "syscall"

// TerminateGroup sends SIGTERM to the whole process group led by pgid.
func TerminateGroup(pgid int) error {
	return syscall.Kill(-pgid, syscall.SIGTERM)
}

// KillGroup sends SIGKILL to the whole process group led by pgid.
func KillGroup(pgid int) error {
	return syscall.Kill(-pgid, syscall.SIGKILL)
}

// GroupAlive probes the process group with signal 0. It returns true
// while any member of the group (including unreaped zombies) remains.
func GroupAlive(pgid int) bool {
	return syscall.Kill(-pgid, 0) == nil
}
