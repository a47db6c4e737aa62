//go:build windows

package proc

import (
	"errors"
	"syscall"
)

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess      = kernel32.NewProc("OpenProcess")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procCloseHandle      = kernel32.NewProc("CloseHandle")
)

const (
	processTerminate        = 0x0001
	processQueryInformation = 0x0400
)

// TerminateGroup has no graceful signal on Windows; it behaves like
// KillGroup so the two-phase protocol degrades to a single phase.
func TerminateGroup(pgid int) error { return KillGroup(pgid) }

// KillGroup terminates the group-leader process by PID.
func KillGroup(pgid int) error {
	if pgid <= 0 {
		return errors.New("invalid pid")
	}
	h, err := openProcess(processTerminate, uint32(pgid))
	if err != nil {
		// Process already gone; treat as terminated.
		return nil
	}
	defer closeHandle(h)
	ret, _, callErr := procTerminateProcess.Call(uintptr(h), uintptr(1))
	if ret == 0 {
		return callErr
	}
	return nil
}

// GroupAlive reports whether the leader process still exists.
func GroupAlive(pgid int) bool {
	h, err := openProcess(processQueryInformation, uint32(pgid))
	if err != nil {
		return false
	}
	defer closeHandle(h)
	return true
}

func openProcess(access uint32, pid uint32) (syscall.Handle, error) {
	ret, _, err := procOpenProcess.Call(uintptr(access), 0, uintptr(pid))
	if ret == 0 {
		return 0, err
	}
	return syscall.Handle(ret), nil
}

func closeHandle(h syscall.Handle) {
	_, _, _ = procCloseHandle.Call(uintptr(h))
}
