// Package cache keeps gob encoded values in files under the cache directory.
package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
)

// Type names the directory a kind of item is cached in.
type Type string

// StatusCache holds service status snapshots.
const StatusCache Type = "status"

var errInvalidID = errors.New("invalid id")

func encode[T any](w io.Writer, v *T) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func decode[T any](r io.Reader, v *T) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
