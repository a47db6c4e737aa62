package bgproc

import (
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process-group semantics are POSIX-only")
	}
}

func newSmokeManager(t *testing.T) *Manager {
	t.Helper()
	m := New(ManagerConfig{
		Log:          LogConfig{Dir: t.TempDir()},
		GracePeriod:  500 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
	})
	t.Cleanup(m.Shutdown)
	return m
}

func waitTerminal(t *testing.T, m *Manager, id string) Record {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := m.Get(id)
		require.NoError(t, err)
		if rec.Status.Terminal() {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("record %s never reached a terminal status", id)
	return Record{}
}

type captureMessenger struct {
	mu   sync.Mutex
	msgs []Message
}

func (c *captureMessenger) Deliver(m Message) {
	c.mu.Lock()
	c.msgs = append(c.msgs, m)
	c.mu.Unlock()
}

func (c *captureMessenger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestEmbeddedLifecycleSmoke(t *testing.T) {
	requireUnix(t)
	m := newSmokeManager(t)

	host := &captureMessenger{}
	NewTurnNotifier(m, host)

	rec, err := m.Start(Spec{Name: "smoke", Command: "echo from-facade"})
	require.NoError(t, err)
	final := waitTerminal(t, m, rec.ID)
	assert.Equal(t, StatusExited, final.Status)
	assert.True(t, final.Success)

	_, text, err := m.Output(rec.ID, OutputCaps{})
	require.NoError(t, err)
	assert.True(t, strings.Contains(text, "from-facade"), "output = %q", text)

	assert.Len(t, m.List(), 1)
	removed, skipped := m.Clear()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, skipped)

	deadline := time.Now().Add(2 * time.Second)
	for host.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, host.count(), 2, "expected started and ended messages")
}

func TestEmbeddedKill(t *testing.T) {
	requireUnix(t)
	m := newSmokeManager(t)

	rec, err := m.Start(Spec{Name: "long", Command: "sleep 30"})
	require.NoError(t, err)
	_, already, err := m.Kill("long")
	require.NoError(t, err)
	assert.False(t, already)
	final := waitTerminal(t, m, rec.ID)
	assert.Equal(t, StatusKilled, final.Status)
}

func TestStatusLineFacade(t *testing.T) {
	requireUnix(t)
	m := newSmokeManager(t)
	sl := NewStatusLine(m, 80)

	rec, err := m.Start(Spec{Name: "widget", Command: "sleep 30"})
	require.NoError(t, err)

	waitForLine := func(substr string) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for !strings.Contains(sl.Line(), substr) && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		assert.Contains(t, sl.Line(), substr)
	}
	waitForLine("widget(running)")

	_, _, err = m.Kill(rec.ID)
	require.NoError(t, err)
	waitTerminal(t, m, rec.ID)
	waitForLine("widget(killed)")
}

func TestHistorySinkFacade(t *testing.T) {
	sink, err := NewHistorySink(":memory:")
	require.NoError(t, err)
	require.NoError(t, sink.Close())
}
