package status

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/getclawkit/clawkit/internal/cache"
	"github.com/stretchr/testify/require"
)

func testTargets(t *testing.T) ([]Target, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"tag_name":"v1.0.0"}`))
		}
	}))
	t.Cleanup(ok.Close)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(broken.Close)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closed := "http://" + ln.Addr().String()
	require.NoError(t, ln.Close())

	return []Target{
		{ID: "core", Name: "OpenClaw Core", URL: ok.URL, Method: http.MethodGet},
		{ID: "registry", Name: "ClawHub Registry", URL: broken.URL, Method: http.MethodHead},
		{ID: "community", Name: "Discord / Community", URL: closed, Method: http.MethodHead},
	}, &hits
}

func TestCheck(t *testing.T) {
	targets, _ := testTargets(t)
	c := New(nil)
	c.Targets = targets

	snap, err := c.Check(context.Background())
	require.NoError(t, err)
	require.False(t, snap.Operational())
	require.False(t, snap.Meta.Cached)
	require.False(t, snap.UpdatedAt.IsZero())
	require.Len(t, snap.Services, 3)

	require.Equal(t, "core", snap.Services[0].ID)
	require.Equal(t, Operational, snap.Services[0].Status)
	require.Empty(t, snap.Services[0].Message)

	require.Equal(t, Down, snap.Services[1].Status)
	require.Equal(t, "503 Service Unavailable", snap.Services[1].Message)

	require.Equal(t, Down, snap.Services[2].Status)
	require.Zero(t, snap.Services[2].Latency)
	require.NotEmpty(t, snap.Services[2].Message)
}

func TestCheckTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := New(nil)
	c.Timeout = 20 * time.Millisecond
	c.Targets = []Target{{ID: "slow", Name: "Slow", URL: srv.URL}}

	snap, err := c.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, Down, snap.Services[0].Status)
	require.Zero(t, snap.Services[0].Latency)
}

func TestCheckCanceled(t *testing.T) {
	targets, _ := testTargets(t)
	c := New(nil)
	c.Targets = targets

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Check(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotCached(t *testing.T) {
	targets, hits := testTargets(t)
	store, err := cache.NewExpiring[Snapshot](t.TempDir(), cache.StatusCache)
	require.NoError(t, err)

	c := New(store)
	c.Targets = targets

	first, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	require.False(t, first.Meta.Cached)
	require.Equal(t, int32(2), hits.Load())

	second, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	require.True(t, second.Meta.Cached)
	require.Equal(t, int32(2), hits.Load(), "a fresh snapshot is served from the cache")
	require.Equal(t, first.Services, second.Services)
	require.True(t, first.UpdatedAt.Equal(second.UpdatedAt))
}

func TestSnapshotNoCache(t *testing.T) {
	targets, hits := testTargets(t)
	c := New(nil)
	c.Targets = targets

	for range 2 {
		snap, err := c.Snapshot(context.Background())
		require.NoError(t, err)
		require.False(t, snap.Meta.Cached)
	}
	require.Equal(t, int32(4), hits.Load())
}

func TestDefaultTargets(t *testing.T) {
	targets := DefaultTargets()
	require.Len(t, targets, 3)
	require.Equal(t, http.MethodGet, targets[0].Method)
	for _, tg := range targets[1:] {
		require.Equal(t, http.MethodHead, tg.Method)
	}
}
