package manager

import (
	"log/slog"
	"time"

	"github.com/loykin/bgproc/internal/metrics"
	"github.com/loykin/bgproc/internal/proc"
)

// watch reaps the group leader and records how it ended. Exactly one
// watcher runs per entry, started at registration.
//
// On the explicit-kill path the terminal transition belongs to the
// escalation loop, which waits for the whole group (descendants
// included) to disappear; the watcher only reaps and interprets
// self-initiated deaths.
func (m *Manager) watch(e *entry) {
	waitErr := e.cmd.Wait()
	info := proc.Reap(waitErr)
	e.store.Close()
	close(e.reaped)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e.rec.Status.Terminal() || e.killRequested {
		return
	}
	if info.Signaled {
		// The group disappeared without a kill request in flight:
		// externally signaled death, modeled as running -> killed.
		m.endLocked(e, proc.StatusKilled, nil)
		return
	}
	m.endLocked(e, proc.StatusExited, &info)
}

// escalate drives the explicit-kill protocol after SIGTERM was sent:
// poll group liveness during the grace period, escalate to SIGKILL via
// terminate_timeout when the group outlives it, and record killed once
// the group is confirmed gone.
func (m *Manager) escalate(e *entry) {
	grace := m.cfg.GracePeriod
	poll := m.cfg.PollInterval
	deadline := time.Now().Add(grace)

	t := time.NewTicker(poll)
	defer t.Stop()
	for range t.C {
		if !proc.GroupAlive(e.pid) {
			m.confirmKilled(e)
			return
		}
		if time.Now().After(deadline) {
			break
		}
	}

	// Grace period elapsed with the group still alive.
	m.mu.Lock()
	if e.rec.Status == proc.StatusTerminating {
		m.transitionLocked(e, proc.StatusTerminateTimeout)
	}
	m.mu.Unlock()
	metrics.IncKillEscalation()
	_ = proc.KillGroup(e.pid)

	// SIGKILL cannot be caught; poll until the group is gone, bounded
	// in case of unreapable members stuck in the kernel.
	confirmBy := time.Now().Add(killConfirmTimeout)
	for proc.GroupAlive(e.pid) && time.Now().Before(confirmBy) {
		time.Sleep(poll)
	}
	if proc.GroupAlive(e.pid) {
		slog.Warn("process group survived SIGKILL confirmation window",
			"id", e.rec.ID, "pid", e.pid)
	}
	m.confirmKilled(e)
}

func (m *Manager) confirmKilled(e *entry) {
	m.mu.Lock()
	if !e.rec.Status.Terminal() {
		m.endLocked(e, proc.StatusKilled, nil)
	}
	m.mu.Unlock()
}
