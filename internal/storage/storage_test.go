package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistenteze/agro/internal/config"
	"github.com/assistenteze/agro/internal/database"
)

// runStoreContract exercises the behaviour every driver must share.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get of absent key is ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, KeySession)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set then get round trips", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, KeySession, []byte(`{"isAuthenticated":true}`)))

		got, err := store.Get(ctx, KeySession)
		require.NoError(t, err)
		assert.JSONEq(t, `{"isAuthenticated":true}`, string(got))
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, KeyProperties, []byte(`[1]`)))
		require.NoError(t, store.Set(ctx, KeyProperties, []byte(`[1,2]`)))

		got, err := store.Get(ctx, KeyProperties)
		require.NoError(t, err)
		assert.JSONEq(t, `[1,2]`, string(got))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, KeyProperties))

		_, err := store.Get(ctx, KeySession)
		assert.NoError(t, err)
		_, err = store.Get(ctx, KeyProperties)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete of absent key is not an error", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, KeySession))
		assert.NoError(t, store.Delete(ctx, KeySession))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	runStoreContract(t, store)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte(`[1]`)
	require.NoError(t, store.Set(ctx, KeyProperties, value))
	value[1] = '9'

	got, err := store.Get(ctx, KeyProperties)
	require.NoError(t, err)
	got[1] = '7'

	again, err := store.Get(ctx, KeyProperties)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(again))
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "data"))
	require.NoError(t, err)
	defer store.Close()

	runStoreContract(t, store)
}

func TestFileStore_LayoutAndNoTempLeftovers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, KeyProperties, []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "userProperties.json", entries[0].Name())
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = store.Set(context.Background(), "../escape", []byte(`{}`))
	assert.Error(t, err)
}

func TestFileStore_PingFailsWhenDirRemoved(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, store.Ping(context.Background()))
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "db", "agro.db"))
	require.NoError(t, err)
	defer store.Close()

	runStoreContract(t, store)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "agro.db")

	store, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeySession, []byte(`{"a":1}`)))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, KeySession)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewPostgresPool(ctx, config.DatabaseConfig{
		Host:        getEnvOrDefault("DB_HOST", "localhost"),
		Port:        getEnvOrDefault("DB_PORT", "5432"),
		Name:        getEnvOrDefault("DB_NAME", "agro"),
		User:        getEnvOrDefault("DB_USER", "postgres"),
		Password:    getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:     1,
		PoolMax:     2,
		ConnectWait: time.Second,
	})
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}

	store, err := NewPostgresStore(ctx, db)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Delete(ctx, KeySession))
	require.NoError(t, store.Delete(ctx, KeyProperties))
	runStoreContract(t, store)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		storage config.StorageConfig
		want    interface{}
		wantErr bool
	}{
		{"memory", config.StorageConfig{Driver: config.DriverMemory}, &MemoryStore{}, false},
		{"file", config.StorageConfig{Driver: config.DriverFile, DataDir: dir}, &FileStore{}, false},
		{"sqlite", config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(dir, "x.db")}, &SQLiteStore{}, false},
		{"unknown", config.StorageConfig{Driver: "redis"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(ctx, &config.Config{Storage: tt.storage})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.want, store)
		})
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
