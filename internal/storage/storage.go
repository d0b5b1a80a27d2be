package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable marks read and write failures of a persistence backend.
var ErrUnavailable = errors.New("storage unavailable")

// Backend is a flat key/value store holding serialized records.
type Backend interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
}

// Backend kinds accepted by Open.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns the backend named by kind. path is ignored for memory backends.
// The returned close function is never nil.
func Open(kind, path string) (Backend, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindMemory:
		return NewMemory(), noop, nil
	case "", KindFile:
		f, err := NewFile(path)
		if err != nil {
			return nil, noop, err
		}
		return f, noop, nil
	case KindSQLite:
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		return db, db.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", kind)
	}
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%s %q: %w: %w", op, key, ErrUnavailable, err)
}
