package statestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avelinelabs/boutiq/pkg/config"
)

// Well-known keys. Each one is independently readable, writable, and absent;
// losing one never touches the others.
const (
	KeyToken        = "auth.token"
	KeyProfile      = "auth.profile"
	KeyCartSnapshot = "cart.snapshot"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("statestore: key not found")

// Store is the durable client-side key-value storage consumed by the session
// and cart managers.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds a store from configuration.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case config.StorageDriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.StorageDriverRedis:
		return OpenRedis(ctx, cfg)
	case config.StorageDriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
