// Package storage provides the keyed byte stores behind durable and
// session-scoped state.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/zhouzirui/mindbloom/backend/internal/config"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// KV is a keyed store of opaque values. Implementations are safe for
// concurrent use.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Open returns the durable store selected by cfg together with a closer for
// its underlying resources.
func Open(cfg config.StorageConfig) (KV, io.Closer, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return NewMemory(), nopCloser{}, nil
	case config.StorageFile:
		kv, err := NewFile(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return kv, nopCloser{}, nil
	case config.StorageSQLite:
		kv, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
