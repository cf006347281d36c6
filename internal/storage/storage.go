// Package storage provides the device-scoped key/value slots the
// application persists into. Exactly two keys are used: the session and the
// property collection. Values are opaque JSON documents.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/assistenteze/agro/internal/config"
	"github.com/assistenteze/agro/internal/database"
)

// Storage keys.
const (
	KeySession    = "authState"
	KeyProperties = "userProperties"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a minimal key/value store. Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the Store selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverFile:
		return NewFileStore(cfg.Storage.DataDir)
	case config.DriverSQLite:
		return NewSQLiteStore(ctx, cfg.Storage.SQLitePath)
	case config.DriverPostgres:
		db, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		store, err := NewPostgresStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
