package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/getclawkit/clawkit/internal/skills"
	"github.com/stretchr/testify/require"
)

func TestLoadFeed(t *testing.T) {
	const content = `[{"id":"a"}]`
	path := filepath.Join(t.TempDir(), "skills.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Run("path", func(t *testing.T) {
		bts, err := loadFeed(t.Context(), path)
		require.NoError(t, err)
		require.Equal(t, content, string(bts))
	})

	t.Run("file", func(t *testing.T) {
		bts, err := loadFeed(t.Context(), "file://"+path)
		require.NoError(t, err)
		require.Equal(t, content, string(bts))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadFeed(t.Context(), filepath.Join(t.TempDir(), "nope.json"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("http url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(content))
		}))
		t.Cleanup(srv.Close)

		bts, err := loadFeed(t.Context(), srv.URL+"/skills.json")
		require.NoError(t, err)
		require.Equal(t, content, string(bts))
	})

	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		_, err := loadFeed(t.Context(), srv.URL)
		require.ErrorContains(t, err, "404")
	})
}

func TestPushFeed(t *testing.T) {
	var got struct {
		Skills []json.RawMessage `json:"skills"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/skills/sync" || r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true,"total":2,"created":1,"updated":0,"skipped":1}`))
	}))
	t.Cleanup(srv.Close)

	t.Run("ok", func(t *testing.T) {
		rep, err := pushFeed(t.Context(), srv.URL+"/", "secret", []byte(`[{"id":"a"},{"name":"no id"}]`))
		require.NoError(t, err)
		require.Equal(t, skills.SeedReport{Total: 2, Created: 1, Skipped: 1}, rep)
		require.Len(t, got.Skills, 2)
	})

	t.Run("unauthorized", func(t *testing.T) {
		_, err := pushFeed(t.Context(), srv.URL+"/api/skills/sync", "wrong", []byte(`[{"id":"a"}]`))
		require.ErrorContains(t, err, "Unauthorized")
	})

	t.Run("not an array", func(t *testing.T) {
		_, err := pushFeed(t.Context(), srv.URL, "secret", []byte(`{}`))
		require.Error(t, err)
	})
}
