package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/bgproc/internal/action"
	"github.com/loykin/bgproc/internal/logger"
	"github.com/loykin/bgproc/internal/logstore"
	"github.com/loykin/bgproc/internal/manager"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process-group semantics are POSIX-only")
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	m := manager.New(manager.Config{
		Log:          logger.Config{Dir: t.TempDir()},
		GracePeriod:  500 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
	})
	t.Cleanup(m.Shutdown)
	r := NewRouter(action.New(m, logstore.Caps{}), "/api")
	ts := httptest.NewServer(r.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func startProc(t *testing.T, ts *httptest.Server, name, command string) action.StartResult {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/start", action.StartRequest{Name: name, Command: command})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[action.StartResult](t, resp)
}

func waitServerTerminal(t *testing.T, ts *httptest.Server, id string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/list")
		require.NoError(t, err)
		list := decode[action.ListResult](t, resp)
		for _, r := range list.Records {
			if r.ID == id && r.Status.Terminal() {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("record %s never reached a terminal status", id)
}

func TestStartListOutputRoundtrip(t *testing.T) {
	requireUnix(t)
	ts := newTestServer(t)

	started := startProc(t, ts, "echoer", "echo over-http")
	waitServerTerminal(t, ts, started.Record.ID)

	resp, err := http.Get(ts.URL + "/api/output?id=" + started.Record.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[action.OutputResult](t, resp)
	assert.Contains(t, out.Text, "over-http")

	resp, err = http.Get(ts.URL + "/api/logs?id=" + started.Record.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decode[action.LogsResult](t, resp)
	assert.NotEmpty(t, logs.StdoutLog)
	assert.NotEmpty(t, logs.StderrLog)
}

func TestKillAndClearRoundtrip(t *testing.T) {
	requireUnix(t)
	ts := newTestServer(t)

	started := startProc(t, ts, "victim", "sleep 30")
	resp := postJSON(t, ts.URL+"/api/kill?id="+started.Record.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	kill := decode[action.KillResult](t, resp)
	assert.False(t, kill.AlreadyTerminal)

	waitServerTerminal(t, ts, started.Record.ID)

	resp = postJSON(t, ts.URL+"/api/clear", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := decode[action.ClearResult](t, resp)
	assert.Equal(t, 1, cleared.Removed)
}

func TestStartValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/start", action.StartRequest{Name: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/start", action.StartRequest{Name: "../evil", Command: "echo"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/start", action.StartRequest{Command: "echo", WorkDir: "relative"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err := http.Post(ts.URL+"/api/start", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestErrorStatusMapping(t *testing.T) {
	requireUnix(t)
	ts := newTestServer(t)

	// Unknown target -> 404.
	resp, err := http.Get(ts.URL + "/api/output?id=ghost")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	// Ambiguous name -> 409.
	startProc(t, ts, "twin", "sleep 30")
	startProc(t, ts, "twin", "sleep 30")
	resp = postJSON(t, ts.URL+"/api/kill?id=twin", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Spawn failure -> 400.
	resp = postJSON(t, ts.URL+"/api/start", action.StartRequest{Command: "echo", WorkDir: "/nonexistent-bgproc-dir"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	// Missing id query param -> 400.
	resp = postJSON(t, ts.URL+"/api/kill", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMetricsEndpointMounted(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}
