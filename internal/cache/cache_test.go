package cache

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Name    string
	Latency int64
	Tags    []string
}

func TestExpiringCache(t *testing.T) {
	readString := func(cache *Expiring[string], id string) (string, error) {
		var result string
		err := cache.Read(id, func(r io.Reader) error {
			b, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			result = string(b)
			return nil
		})
		return result, err
	}

	t.Run("write and read", func(t *testing.T) {
		cache, err := NewExpiring[string](t.TempDir(), StatusCache)
		require.NoError(t, err)

		data := "test data"
		expiresAt := time.Now().Add(time.Hour).Unix()
		err = cache.Write("test", expiresAt, func(w io.Writer) error {
			_, err := w.Write([]byte(data))
			return err
		})
		require.NoError(t, err)

		result, err := readString(cache, "test")
		require.NoError(t, err)
		require.Equal(t, data, result)
	})

	t.Run("expired", func(t *testing.T) {
		dir := t.TempDir()
		cache, err := NewExpiring[string](dir, StatusCache)
		require.NoError(t, err)

		expiresAt := time.Now().Add(-time.Hour).Unix()
		err = cache.Write("test", expiresAt, func(w io.Writer) error {
			_, err := w.Write([]byte("test data"))
			return err
		})
		require.NoError(t, err)

		_, err = readString(cache, "test")
		require.ErrorIs(t, err, os.ErrNotExist)

		entries, err := os.ReadDir(filepath.Join(dir, string(StatusCache)))
		require.NoError(t, err)
		require.Empty(t, entries, "expired files are removed on read")
	})

	t.Run("overwrite", func(t *testing.T) {
		cache, err := NewExpiring[string](t.TempDir(), StatusCache)
		require.NoError(t, err)

		for _, data := range []string{"test data 1", "test data 2"} {
			err = cache.Write("test", time.Now().Add(time.Hour).Unix(), func(w io.Writer) error {
				_, err := w.Write([]byte(data))
				return err
			})
			require.NoError(t, err)
		}

		result, err := readString(cache, "test")
		require.NoError(t, err)
		require.Equal(t, "test data 2", result)
	})

	t.Run("typed ttl", func(t *testing.T) {
		cache, err := NewExpiring[snapshot](t.TempDir(), StatusCache)
		require.NoError(t, err)

		now := time.Unix(1_700_000_000, 0)
		cache.now = func() time.Time { return now }

		want := snapshot{Name: "core", Latency: 42}
		require.NoError(t, cache.Put("latest", want, time.Minute))

		got, err := cache.Get("latest")
		require.NoError(t, err)
		require.Equal(t, want, got)

		now = now.Add(2 * time.Minute)
		_, err = cache.Get("latest")
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("dotted id", func(t *testing.T) {
		cache, err := NewExpiring[string](t.TempDir(), StatusCache)
		require.NoError(t, err)
		require.NoError(t, cache.Put("v1.2", "ok", time.Hour))
		got, err := cache.Get("v1.2")
		require.NoError(t, err)
		require.Equal(t, "ok", got)
	})

	t.Run("invalid id", func(t *testing.T) {
		cache, err := NewExpiring[string](t.TempDir(), StatusCache)
		require.NoError(t, err)
		_, err = cache.Get("")
		require.ErrorIs(t, err, errInvalidID)
		require.ErrorIs(t, cache.Delete("a/b"), errInvalidID)
	})
}
