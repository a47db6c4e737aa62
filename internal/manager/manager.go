package manager

import (
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/loykin/bgproc/internal/env"
	"github.com/loykin/bgproc/internal/event"
	"github.com/loykin/bgproc/internal/logger"
	"github.com/loykin/bgproc/internal/logstore"
	"github.com/loykin/bgproc/internal/metrics"
	"github.com/loykin/bgproc/internal/proc"
)

// Config tunes the manager. Zero values fall back to the defaults
// documented on each field.
type Config struct {
	// Log configures the per-process output files (directory, rotation).
	Log logger.Config
	// GracePeriod bounds the wait after SIGTERM before escalating to
	// SIGKILL. Default 5s.
	GracePeriod time.Duration
	// PollInterval is the group-liveness polling cadence during
	// termination. Default 100ms.
	PollInterval time.Duration
	// TailLines bounds the in-memory tail retained per stream.
	// Default 1000.
	TailLines int
}

const (
	defaultGracePeriod  = 5 * time.Second
	defaultPollInterval = 100 * time.Millisecond
	defaultTailLines    = 1000

	// killConfirmTimeout bounds how long we poll for group death after
	// SIGKILL before giving up and recording the terminal state anyway.
	killConfirmTimeout = 2 * time.Second
)

func (c Config) normalized() Config {
	if c.GracePeriod <= 0 {
		c.GracePeriod = defaultGracePeriod
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.TailLines <= 0 {
		c.TailLines = defaultTailLines
	}
	return c
}

// entry pairs the externally visible record with the live resources the
// manager owns for it. rec and killRequested are guarded by Manager.mu;
// pid, cmd and store are immutable after registration.
type entry struct {
	rec           proc.Record
	pid           int
	cmd           *exec.Cmd
	store         *logstore.Store
	killRequested bool
	reaped        chan struct{} // closed once the watcher reaped the leader
}

// Manager owns the registry of tracked processes and drives the state
// machine. All registry mutation is serialized behind mu; I/O (output
// streaming, liveness polling, signaling) happens off the caller path.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	envM    *env.Env
	seq     int
	entries map[string]*entry
	bus     *event.Bus
}

func New(cfg Config) *Manager {
	return &Manager{
		cfg:     cfg.normalized(),
		envM:    env.New(),
		entries: make(map[string]*entry),
		bus:     event.NewBus(),
	}
}

// Bus exposes the lifecycle event bus for subscribers.
func (m *Manager) Bus() *event.Bus { return m.bus }

// Subscribe registers an event subscriber.
func (m *Manager) Subscribe(s event.Subscriber) { m.bus.Subscribe(s) }

// SetGlobalEnv sets manager-wide environment overrides ("KEY=VALUE").
func (m *Manager) SetGlobalEnv(kvs []string) {
	m.mu.Lock()
	for _, kv := range kvs {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				m.envM.Set(kv[:i], kv[i+1:])
				break
			}
		}
	}
	m.mu.Unlock()
}

// Start spawns spec.Command and registers a record in status running.
// The record's pid and startTime are set atomically with registration;
// a spawn failure returns *proc.SpawnError and registers nothing.
func (m *Manager) Start(spec proc.Spec) (proc.Record, error) {
	if spec.Command == "" {
		return proc.Record{}, &proc.SpawnError{Command: spec.Command, Err: fmt.Errorf("empty command")}
	}

	m.mu.Lock()
	m.seq++
	id := fmt.Sprintf("proc_%d", m.seq)
	merged := m.envM.Merge(spec.Env)
	m.mu.Unlock()

	store, err := logstore.Open(m.cfg.Log, id, m.cfg.TailLines)
	if err != nil {
		metrics.IncSpawnFailure()
		return proc.Record{}, &proc.SpawnError{Command: spec.Command, Err: err}
	}

	runSpec := spec
	runSpec.Env = merged
	cmd, err := proc.Spawn(runSpec, store.Stdout(), store.Stderr())
	if err != nil {
		store.Close()
		metrics.IncSpawnFailure()
		return proc.Record{}, err
	}

	e := &entry{
		pid:    cmd.Process.Pid,
		cmd:    cmd,
		store:  store,
		reaped: make(chan struct{}),
	}

	m.mu.Lock()
	e.rec = proc.Record{
		ID:             id,
		Name:           spec.Name,
		Command:        spec.Command,
		PID:            e.pid,
		Status:         proc.StatusRunning,
		StartTime:      time.Now(),
		AlertOnSuccess: spec.AlertOnSuccess,
		AlertOnFailure: spec.AlertOnFailure,
		AlertOnKill:    spec.AlertOnKill,
		StdoutLog:      store.StdoutPath,
		StderrLog:      store.StderrPath,
	}
	m.entries[id] = e
	rec := e.rec
	m.publishLocked(event.Event{Type: event.TypeStarted, Record: rec, To: proc.StatusRunning})
	m.updateTrackedLocked()
	m.mu.Unlock()

	metrics.IncSpawn()
	go m.watch(e)
	return rec, nil
}

// Kill starts the two-phase termination protocol against the matched
// record's process group. It returns immediately after SIGTERM; the
// protocol completes asynchronously and is observed via the ended
// event. Killing an already-terminal record is a no-op, not an error;
// the returned bool reports that case.
func (m *Manager) Kill(pattern string) (proc.Record, bool, error) {
	m.mu.Lock()
	e, err := m.resolveLocked(pattern)
	if err != nil {
		m.mu.Unlock()
		return proc.Record{}, false, err
	}
	if e.rec.Status.Terminal() {
		rec := e.rec
		m.mu.Unlock()
		return rec, true, nil
	}
	if e.killRequested {
		// Termination already in flight; acknowledge without restarting
		// the protocol.
		rec := e.rec
		m.mu.Unlock()
		return rec, false, nil
	}
	e.killRequested = true
	m.transitionLocked(e, proc.StatusTerminating)
	rec := e.rec
	m.mu.Unlock()

	metrics.IncKillRequest()
	if err := proc.TerminateGroup(e.pid); err != nil {
		// Group may already be gone; the escalation loop will confirm.
		slog.Debug("SIGTERM delivery failed", "id", rec.ID, "pid", e.pid, "error", err)
	}
	go m.escalate(e)
	return rec, false, nil
}

// List returns a snapshot of all tracked records, alive ones first
// (oldest start first), then terminal ones by most recent end time.
func (m *Manager) List() []proc.Record {
	m.mu.Lock()
	out := make([]proc.Record, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.rec)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].Status.Alive(), out[j].Status.Alive()
		if ai != aj {
			return ai
		}
		if ai {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].EndTime.After(out[j].EndTime)
	})
	return out
}

// Get returns the snapshot of the record matching pattern.
func (m *Manager) Get(pattern string) (proc.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.resolveLocked(pattern)
	if err != nil {
		return proc.Record{}, err
	}
	return e.rec, nil
}

// Output returns the matched record plus a snapshot of its in-memory
// tails. Rendering (truncation, ANSI stripping) is the caller's
// concern; the manager hands out raw tails.
func (m *Manager) Output(pattern string) (proc.Record, logstore.Snapshot, error) {
	m.mu.Lock()
	e, err := m.resolveLocked(pattern)
	if err != nil {
		m.mu.Unlock()
		return proc.Record{}, logstore.Snapshot{}, err
	}
	rec := e.rec
	store := e.store
	m.mu.Unlock()
	return rec, store.Snapshot(), nil
}

// Logs returns only the log file paths for the matched record, so the
// caller can read the files directly for deep inspection.
func (m *Manager) Logs(pattern string) (proc.Record, error) {
	return m.Get(pattern)
}

// Clear removes all terminal records from the registry and reports how
// many were removed and how many were skipped because they are still
// alive. Log files on disk are untouched.
func (m *Manager) Clear() (removed, skipped int) {
	m.mu.Lock()
	for id, e := range m.entries {
		if e.rec.Status.Terminal() {
			delete(m.entries, id)
			removed++
		} else {
			skipped++
		}
	}
	m.updateTrackedLocked()
	m.mu.Unlock()
	return removed, skipped
}

// LiveNameCount reports how many non-terminal records carry name.
// Used for the duplicate-name soft hint; names are never required to
// be unique.
func (m *Manager) LiveNameCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.rec.Name == name && e.rec.Status.Alive() {
			n++
		}
	}
	return n
}

// Shutdown skips the graceful phase and SIGKILLs every live process
// group immediately, trading cleanliness for host exit latency. It
// waits briefly for reaps, records terminal states, and closes the bus.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	live := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.rec.Status.Alive() {
			e.killRequested = true
			if e.rec.Status == proc.StatusRunning {
				m.transitionLocked(e, proc.StatusTerminating)
			}
			live = append(live, e)
		}
	}
	m.mu.Unlock()

	for _, e := range live {
		_ = proc.KillGroup(e.pid)
	}
	deadline := time.After(killConfirmTimeout)
	for _, e := range live {
		select {
		case <-e.reaped:
		case <-deadline:
		}
	}
	m.mu.Lock()
	for _, e := range live {
		if !e.rec.Status.Terminal() {
			m.endLocked(e, proc.StatusKilled, nil)
		}
	}
	m.mu.Unlock()
	m.bus.Close()
}

// --- internal transitions (mu held) ---

func (m *Manager) publishLocked(e event.Event) {
	e.At = time.Now()
	m.bus.Publish(e)
}

func (m *Manager) transitionLocked(e *entry, to proc.Status) {
	from := e.rec.Status
	e.rec.Status = to
	metrics.RecordStateTransition(from.String(), to.String())
	m.publishLocked(event.Event{
		Type:         event.TypeStatusChanged,
		Record:       e.rec,
		From:         from,
		To:           to,
		ExplicitKill: e.killRequested,
	})
}

// endLocked moves e into a terminal status, setting endTime exactly
// once, and emits both status_changed and ended.
func (m *Manager) endLocked(e *entry, to proc.Status, exit *proc.ExitInfo) {
	if e.rec.Status.Terminal() {
		return
	}
	if to == proc.StatusExited && exit != nil {
		code := exit.Code
		e.rec.ExitCode = &code
		e.rec.Success = code == 0
	}
	e.rec.EndTime = time.Now()
	from := e.rec.Status
	e.rec.Status = to
	metrics.RecordStateTransition(from.String(), to.String())
	metrics.IncEnd(to.String())
	m.publishLocked(event.Event{
		Type:         event.TypeStatusChanged,
		Record:       e.rec,
		From:         from,
		To:           to,
		ExplicitKill: e.killRequested,
	})
	m.publishLocked(event.Event{
		Type:         event.TypeEnded,
		Record:       e.rec,
		From:         from,
		To:           to,
		ExplicitKill: e.killRequested,
	})
	m.updateTrackedLocked()
}

func (m *Manager) updateTrackedLocked() {
	alive, terminal := 0, 0
	for _, e := range m.entries {
		if e.rec.Status.Alive() {
			alive++
		} else {
			terminal++
		}
	}
	metrics.SetTracked(alive, terminal)
}
