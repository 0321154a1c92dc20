package storage

import (
	"fmt"
	"strings"
)

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

// NewStore builds an uninitialized store; callers run Init before use.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	if store == nil {
		return nil
	}
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
