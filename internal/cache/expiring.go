package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Expiring is a cache whose items expire. The expiry is kept in the file
// name, so a stale item is detected without reading it.
type Expiring[T any] struct {
	dir string
	now func() time.Time
}

// NewExpiring creates the cache directory of cacheType under path.
func NewExpiring[T any](path string, cacheType Type) (*Expiring[T], error) {
	dir := filepath.Join(path, string(cacheType))
	if err := os.MkdirAll(dir, 0o700); err != nil { //nolint:mnd
		return nil, fmt.Errorf("create expiring cache: %w", err)
	}
	return &Expiring[T]{dir: dir, now: time.Now}, nil
}

func (c *Expiring[T]) filename(id string, expiresAt int64) string {
	return fmt.Sprintf("%s.%d", id, expiresAt)
}

func (c *Expiring[T]) matches(id string) ([]string, error) {
	if id == "" || strings.ContainsAny(id, `*?[\/`) {
		return nil, errInvalidID
	}
	return filepath.Glob(filepath.Join(c.dir, id+".*")) //nolint:wrapcheck
}

// Get returns the item stored under id, or an error wrapping os.ErrNotExist
// when there is none or it expired.
func (c *Expiring[T]) Get(id string) (T, error) {
	var v T
	err := c.Read(id, func(r io.Reader) error {
		return decode(r, &v)
	})
	return v, err
}

// Put stores the item for ttl.
func (c *Expiring[T]) Put(id string, v T, ttl time.Duration) error {
	return c.Write(id, c.now().Add(ttl).Unix(), func(w io.Writer) error {
		return encode(w, &v)
	})
}

func (c *Expiring[T]) Read(id string, readFn func(io.Reader) error) error {
	matches, err := c.matches(id)
	if err != nil {
		return fmt.Errorf("read expiring cache: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("read expiring cache: %w", os.ErrNotExist)
	}

	name := matches[0]
	dot := strings.LastIndexByte(name, '.')
	expiresAt, err := strconv.ParseInt(name[dot+1:], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiration timestamp in %s", filepath.Base(name))
	}

	if expiresAt < c.now().Unix() {
		if err := os.Remove(name); err != nil {
			return fmt.Errorf("remove expired cache file: %w", err)
		}
		return fmt.Errorf("read expiring cache: %w", os.ErrNotExist)
	}

	file, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("open expiring cache file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	return readFn(file)
}

func (c *Expiring[T]) Write(id string, expiresAt int64, writeFn func(io.Writer) error) error {
	if err := c.Delete(id); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(c.dir, c.filename(id, expiresAt)))
	if err != nil {
		return fmt.Errorf("create expiring cache file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	return writeFn(file)
}

// Delete removes a cached item by its ID, expired or not.
func (c *Expiring[T]) Delete(id string) error {
	matches, err := c.matches(id)
	if err != nil {
		return fmt.Errorf("delete expiring cache: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("delete expiring cache file: %w", err)
		}
	}
	return nil
}
