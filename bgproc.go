package bgproc

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/bgproc/internal/action"
	cfg "github.com/loykin/bgproc/internal/config"
	"github.com/loykin/bgproc/internal/event"
	"github.com/loykin/bgproc/internal/history"
	historyfactory "github.com/loykin/bgproc/internal/history/factory"
	"github.com/loykin/bgproc/internal/logger"
	"github.com/loykin/bgproc/internal/logstore"
	"github.com/loykin/bgproc/internal/manager"
	"github.com/loykin/bgproc/internal/metrics"
	"github.com/loykin/bgproc/internal/notify"
	"github.com/loykin/bgproc/internal/proc"
	iapi "github.com/loykin/bgproc/internal/server"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = proc.Spec

type Record = proc.Record

type Status = proc.Status

const (
	StatusRunning          = proc.StatusRunning
	StatusTerminating      = proc.StatusTerminating
	StatusExited           = proc.StatusExited
	StatusKilled           = proc.StatusKilled
	StatusTerminateTimeout = proc.StatusTerminateTimeout
)

type Event = event.Event

type Subscriber = event.Subscriber

type SubscriberFunc = event.SubscriberFunc

type Message = notify.Message

type Messenger = notify.Messenger

type StatusLine = notify.StatusLine

type StartRequest = action.StartRequest

type OutputCaps = logstore.Caps

type LogConfig = logger.Config

type HistorySink = history.Sink

// ManagerConfig tunes the embedded manager: log file destination and
// rotation, termination grace period, and tail sizes.
type ManagerConfig = manager.Config

// Manager is a thin facade over internal/manager.Manager.
// It provides a stable public API for embedding.

type Manager struct{ inner *manager.Manager }

func New(c ManagerConfig) *Manager { return &Manager{inner: manager.New(c)} }

func (m *Manager) SetGlobalEnv(kvs []string) { m.inner.SetGlobalEnv(kvs) }
func (m *Manager) Subscribe(s Subscriber)    { m.inner.Subscribe(s) }

// Start spawns spec.Command as a tracked background process.
func (m *Manager) Start(s Spec) (Record, error) { return m.inner.Start(s) }

// Kill begins two-phase termination of the matched process group. The
// bool reports a no-op kill on an already-finished process.
func (m *Manager) Kill(pattern string) (Record, bool, error) { return m.inner.Kill(pattern) }

func (m *Manager) List() []Record                  { return m.inner.List() }
func (m *Manager) Get(pattern string) (Record, error) { return m.inner.Get(pattern) }

// Output returns the matched record and its recent output rendered for
// agent consumption: ANSI-stripped and truncated to caps.
func (m *Manager) Output(pattern string, caps OutputCaps) (Record, string, error) {
	rec, snap, err := m.inner.Output(pattern)
	if err != nil {
		return Record{}, "", err
	}
	return rec, logstore.Render(snap, caps), nil
}

func (m *Manager) Clear() (removed, skipped int) { return m.inner.Clear() }

// Shutdown SIGKILLs every live process group and closes the event bus.
func (m *Manager) Shutdown() { m.inner.Shutdown() }

// NewTurnNotifier wires a Messenger to the manager's lifecycle events,
// applying the per-process alert flags to decide reactive turns.
func NewTurnNotifier(m *Manager, host Messenger) {
	m.inner.Subscribe(notify.NewTurnNotifier(host))
}

// NewStatusLine subscribes a width-bounded status widget to the
// manager's lifecycle events. Read the current summary with Line();
// width <= 0 uses the default of 80 runes.
func NewStatusLine(m *Manager, width int) *StatusLine {
	s := notify.NewStatusLine(width, m.inner.List)
	m.inner.Subscribe(s)
	return s
}

// NewHistoryRecorder subscribes lifecycle audit sinks to the manager.
// The returned closer flushes and closes all sinks.
func NewHistoryRecorder(m *Manager, sinks ...HistorySink) func() {
	r := history.NewRecorder(sinks...)
	m.inner.Subscribe(r)
	return r.Close
}

// NewHistorySink creates a sink from a DSN: clickhouse://, postgres://,
// sqlite:// or a bare SQLite file path.
func NewHistorySink(dsn string) (HistorySink, error) {
	return historyfactory.NewSinkFromDSN(dsn)
}

func LoadConfig(path string) (*cfg.Config, error) {
	return cfg.Load(path)
}

// NewHTTPServer starts an HTTP server exposing the REST API using the
// given manager.
func NewHTTPServer(addr, basePath string, m *Manager, caps OutputCaps) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, action.New(m.inner, caps))
}

// NewHTTPHandler returns the REST API as an http.Handler for mounting
// into an existing server or framework.
func NewHTTPHandler(basePath string, m *Manager, caps OutputCaps) http.Handler {
	return iapi.NewRouter(action.New(m.inner, caps), basePath).Handler()
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
