package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/doridoridoriand/pingtray/internal/probe"
	"github.com/doridoridoriand/pingtray/internal/session"
	"github.com/doridoridoriand/pingtray/internal/state"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

type fakeMonitor struct {
	snap   state.Snapshot
	probes atomic.Int32
}

func (m *fakeMonitor) Snapshot() state.Snapshot { return m.snap }
func (m *fakeMonitor) ProbeNow()                { m.probes.Add(1) }

func newTestServer(t *testing.T) (*httptest.Server, *fakeMonitor, *targets.Store) {
	t.Helper()
	store := targets.NewStore(filepath.Join(t.TempDir(), targets.DefaultFileName))
	monitor := &fakeMonitor{snap: state.Initial()}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pingtray_cycles_total 0\n"))
	})
	srv := httptest.NewServer(NewServer(zap.NewNop(), session.New(store, monitor, zap.NewNop()), monitor, metrics).Router())
	t.Cleanup(srv.Close)
	return srv, monitor, store
}

func do(t *testing.T, method, target, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusInitializing(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "INITIALIZING", body.Overall)
	require.Empty(t, body.LastUpdated)
	require.Empty(t, body.Targets)
}

func TestStatusAfterCycle(t *testing.T) {
	srv, monitor, _ := newTestServer(t)
	at := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	list := []targets.Target{{Address: "a.com", Label: "A"}, {Address: "b.com"}}
	snap := state.Aggregate([]probe.Outcome{
		{Address: "a.com", Reachable: true, Latency: 12 * time.Millisecond, Timestamp: at, Detail: "12 ms"},
		probe.Unreachable("b.com", "timeout", at),
	}, list, at)
	snap.Cycle = 4
	monitor.snap = snap

	resp := do(t, http.MethodGet, srv.URL+"/status", "")
	var body statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "SOME_DOWN", body.Overall)
	require.Equal(t, uint64(4), body.Cycle)
	require.Equal(t, "2026-10-16T10:00:00Z", body.LastUpdated)
	require.Equal(t, 1, body.Up)
	require.Equal(t, 1, body.Down)
	require.Len(t, body.Targets, 2)
	require.NotNil(t, body.Targets[0].LatencyMS)
	require.Equal(t, 12.0, *body.Targets[0].LatencyMS)
	require.Equal(t, "12 ms", body.Targets[0].Latency)
	require.Nil(t, body.Targets[1].LatencyMS)
	require.Equal(t, "timeout", body.Targets[1].Detail)
}

func TestAddTargetStatusCodes(t *testing.T) {
	srv, monitor, store := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/targets", `{"address":"a.com","label":"Alpha"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created targets.Target
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Equal(t, targets.Target{Address: "a.com", Label: "Alpha"}, created)
	require.Equal(t, int32(1), monitor.probes.Load())

	resp = do(t, http.MethodPost, srv.URL+"/targets", `{"address":"A.COM"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/targets", `{"address":"not a host!"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/targets", `{`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	list, err := store.Load()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int32(1), monitor.probes.Load())
}

func TestAddTargetUnwritable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	store := targets.NewStore(filepath.Join(blocker, "sites.json"))
	monitor := &fakeMonitor{snap: state.Initial()}
	srv := httptest.NewServer(NewServer(nil, session.New(store, monitor, nil), monitor, nil).Router())
	defer srv.Close()

	resp := do(t, http.MethodPost, srv.URL+"/targets", `{"address":"a.com"}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestListAndRemoveTargets(t *testing.T) {
	srv, _, store := newTestServer(t)
	require.NoError(t, store.Save([]targets.Target{{Address: "a.com"}, {Address: "https://example.com/health"}}))

	resp := do(t, http.MethodGet, srv.URL+"/targets", "")
	var list []targets.Target
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)

	resp = do(t, http.MethodDelete, srv.URL+"/targets/A.com", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/targets/a.com", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/targets?address="+url.QueryEscape("https://example.com/health"), "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/targets", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	remaining, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestProbeEndpoint(t *testing.T) {
	srv, monitor, _ := newTestServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/probe", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, int32(1), monitor.probes.Load())
}

func TestMetricsMounted(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSHeaders(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/status", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Serve(ctx, addr, http.NotFoundHandler(), zap.NewNop()) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
