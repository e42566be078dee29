package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membrain/pkg/pipeline"
)

type fakeConfig struct {
	listen  string
	timeout time.Duration
}

func (f *fakeConfig) GetServerConfig() (string, time.Duration) { return f.listen, f.timeout }

type fakeStats struct {
	batches []pipeline.BatchStat
}

func (f *fakeStats) Stats() []pipeline.BatchStat { return f.batches }

func TestServer_New(t *testing.T) {
	srv := New(&fakeConfig{listen: ":8080", timeout: 30 * time.Second}, &fakeStats{}, "1.0.0", false)
	assert.NotNil(t, srv)
	assert.Equal(t, "1.0.0", srv.version)
	assert.False(t, srv.debug)
}

func TestServer_StatusHandler(t *testing.T) {
	stats := &fakeStats{batches: []pipeline.BatchStat{
		{Collector: "reddit-memes-hot", Total: 10, Ready: 8, Loaded: 7},
		{Collector: "rss-funnies", Total: 5, Ready: 5, Loaded: 5},
	}}
	srv := New(&fakeConfig{listen: ":8080", timeout: 30 * time.Second}, stats, "1.2.3", false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", http.NoBody)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body struct {
		Status  string               `json:"status"`
		Version string               `json:"version"`
		Uptime  string               `json:"uptime"`
		Batches []pipeline.BatchStat `json:"batches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.NotEmpty(t, body.Uptime)
	require.Len(t, body.Batches, 2)
	assert.Equal(t, "reddit-memes-hot", body.Batches[0].Collector)
	assert.Equal(t, 7, body.Batches[0].Loaded)
}

func TestServer_Ping(t *testing.T) {
	srv := New(&fakeConfig{listen: ":8080", timeout: 30 * time.Second}, &fakeStats{}, "test", false)

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_Run(t *testing.T) {
	// find free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	cfg := &fakeConfig{listen: fmt.Sprintf("127.0.0.1:%d", port), timeout: 30 * time.Second}
	srv := New(cfg, &fakeStats{}, "1.0.0", false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	// wait for server to start
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/status", port)) //nolint:gosec
		return err == nil
	}, 2*time.Second, 50*time.Millisecond)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close() //nolint:errcheck

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
