package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/assistenteze/agro/internal/clock"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/storage"
)

var sampleRing = []models.Position{
	{-46.6333, -23.5505},
	{-46.6300, -23.5505},
	{-46.6300, -23.5470},
	{-46.6333, -23.5470},
	{-46.6333, -23.5505},
}

func newProperty(id, owner string) models.Property {
	area := 1234.5
	geometry := models.NewPolygon(sampleRing)
	return models.Property{
		ID:               id,
		OwnerID:          owner,
		Name:             "Fazenda " + id,
		City:             "Campinas",
		Geometry:         &geometry,
		AreaSquareMeters: &area,
		CreatedAt:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// failingStore returns err from every operation.
type failingStore struct{ err error }

func (s failingStore) Get(context.Context, string) ([]byte, error) { return nil, s.err }
func (s failingStore) Set(context.Context, string, []byte) error   { return s.err }
func (s failingStore) Delete(context.Context, string) error        { return s.err }
func (s failingStore) Ping(context.Context) error                  { return s.err }
func (s failingStore) Close() error                                { return nil }

func TestPropertyRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository(storage.NewMemoryStore(), nil)

	require.NoError(t, repo.Append(ctx, newProperty("a", "u1")))
	require.NoError(t, repo.Append(ctx, newProperty("b", "u2")))
	require.NoError(t, repo.Append(ctx, newProperty("c", "u1")))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, sampleRing, all[0].Geometry.Ring())
	assert.InDelta(t, 1234.5, all[0].Area(), 1e-9)
}

func TestPropertyRepository_AppendRequiresGeometryAndArea(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewPropertyRepository(store, nil)

	noGeometry := newProperty("a", "u1")
	noGeometry.Geometry = nil
	noArea := newProperty("b", "u1")
	noArea.AreaSquareMeters = nil

	for _, p := range []models.Property{noGeometry, noArea} {
		err := repo.Append(ctx, p)
		assert.ErrorIs(t, err, models.ErrValidation)
	}

	_, err := store.Get(ctx, storage.KeyProperties)
	assert.ErrorIs(t, err, storage.ErrNotFound, "rejected appends must not touch storage")
}

func TestPropertyRepository_AppendAllowsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository(storage.NewMemoryStore(), nil)

	require.NoError(t, repo.Append(ctx, newProperty("a", "u1")))
	require.NoError(t, repo.Append(ctx, newProperty("a", "u1")))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPropertyRepository_ListAllFailsOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		repo := NewPropertyRepository(storage.NewMemoryStore(), nil)
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("corrupt", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, storage.KeyProperties, []byte("{not json")))
		repo := NewPropertyRepository(store, nil)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		require.NoError(t, repo.Append(ctx, newProperty("a", "u1")))
		all, err = repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("null", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, storage.KeyProperties, []byte("null")))
		all, err := NewPropertyRepository(store, nil).ListAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
	})
}

func TestPropertyRepository_StorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk unavailable")
	repo := NewPropertyRepository(failingStore{err: boom}, nil)

	_, err := repo.ListAll(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, repo.Append(ctx, newProperty("a", "u1")), boom)
	assert.ErrorIs(t, repo.Clear(ctx), boom)
}

func TestPropertyRepository_FindByID(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository(storage.NewMemoryStore(), nil)
	require.NoError(t, repo.Append(ctx, newProperty("a", "u1")))

	found, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Fazenda a", found.Name)

	missing, err := repo.FindByID(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPropertyRepository_Remove(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository(storage.NewMemoryStore(), nil)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Append(ctx, newProperty(id, "u1")))
	}

	require.NoError(t, repo.Remove(ctx, "b"))
	require.NoError(t, repo.Remove(ctx, "unknown"))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[1].ID)
}

func TestPropertyRepository_RemoveOwned(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository(storage.NewMemoryStore(), nil)
	require.NoError(t, repo.Append(ctx, newProperty("dup", "u2")))
	require.NoError(t, repo.Append(ctx, newProperty("dup", "u1")))
	require.NoError(t, repo.Append(ctx, newProperty("other", "u1")))

	removed, err := repo.RemoveOwned(ctx, "u1", "dup")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = repo.RemoveOwned(ctx, "u1", "dup")
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = repo.RemoveOwned(ctx, "u3", "other")
	require.NoError(t, err)
	assert.Zero(t, removed)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "dup", all[0].ID)
	assert.Equal(t, "u2", all[0].OwnerID)
	assert.Equal(t, "other", all[1].ID)
}

func TestPropertyRepository_Clear(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewPropertyRepository(store, nil)
	require.NoError(t, repo.Append(ctx, newProperty("a", "u1")))

	require.NoError(t, repo.Clear(ctx))

	_, err := store.Get(ctx, storage.KeyProperties)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPropertyRepository_ConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository(storage.NewMemoryStore(), nil)

	const writers = 32
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		id := fmt.Sprintf("p-%02d", i)
		g.Go(func() error {
			return repo.Append(ctx, newProperty(id, "u1"))
		})
	}
	require.NoError(t, g.Wait())

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, writers)
}

func newSessionFixture(t *testing.T) (SessionRepository, PropertyRepository, *storage.MemoryStore, *clock.Fixed) {
	t.Helper()
	store := storage.NewMemoryStore()
	clk := &clock.Fixed{At: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewSessionRepository(store, clk, 0, nil), NewPropertyRepository(store, nil), store, clk
}

func TestSessionRepository_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	sessions, _, _, clk := newSessionFixture(t)

	user := models.User{ID: "u1", Name: "Produtor Rural", Phone: "11987654321", CreatedAt: clk.Now()}
	created, err := sessions.Create(ctx, user)
	require.NoError(t, err)
	assert.True(t, created.IsAuthenticated)
	assert.Equal(t, clk.Now().Add(DefaultSessionTTL), created.ExpiresAt)

	read, err := sessions.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.Equal(t, "u1", read.User.ID)
	assert.Equal(t, created.ExpiresAt, read.ExpiresAt)
}

func TestSessionRepository_CreateOverwrites(t *testing.T) {
	ctx := context.Background()
	sessions, _, _, _ := newSessionFixture(t)

	_, err := sessions.Create(ctx, models.User{ID: "first"})
	require.NoError(t, err)
	_, err = sessions.Create(ctx, models.User{ID: "second"})
	require.NoError(t, err)

	read, err := sessions.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", read.User.ID)
}

func TestSessionRepository_ReadAbsentOrMalformed(t *testing.T) {
	ctx := context.Background()
	sessions, properties, store, _ := newSessionFixture(t)

	read, err := sessions.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, read)

	require.NoError(t, properties.Append(ctx, newProperty("a", "u1")))

	for _, stored := range []string{
		"garbage",
		`null`,
		`{}`,
		`{"user":{"id":"u"},"isAuthenticated":true}`,
	} {
		t.Run(stored, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, storage.KeySession, []byte(stored)))

			read, err := sessions.Read(ctx)
			require.NoError(t, err)
			assert.Nil(t, read)

			all, err := properties.ListAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1, "a malformed session must not drop saved properties")
		})
	}
}

func TestSessionRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	sessions, properties, store, clk := newSessionFixture(t)

	_, err := sessions.Create(ctx, models.User{ID: "u1"})
	require.NoError(t, err)
	require.NoError(t, properties.Append(ctx, newProperty("a", "u1")))

	clk.Advance(DefaultSessionTTL)
	read, err := sessions.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, read, "session is still live exactly at expiry")

	clk.Advance(time.Millisecond)
	read, err = sessions.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, read)

	_, err = store.Get(ctx, storage.KeySession)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.Get(ctx, storage.KeyProperties)
	assert.ErrorIs(t, err, storage.ErrNotFound, "expiry also drops the property collection")
}

func TestSessionRepository_CustomTTL(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	clk := &clock.Fixed{At: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	sessions := NewSessionRepository(store, clk, time.Hour, nil)

	created, err := sessions.Create(ctx, models.User{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), created.ExpiresAt)
}

func TestSessionRepository_Clear(t *testing.T) {
	ctx := context.Background()
	sessions, properties, _, _ := newSessionFixture(t)

	_, err := sessions.Create(ctx, models.User{ID: "u1"})
	require.NoError(t, err)
	require.NoError(t, properties.Append(ctx, newProperty("a", "u1")))

	require.NoError(t, sessions.Clear(ctx))
	require.NoError(t, sessions.Clear(ctx))

	read, err := sessions.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, read)

	all, err := properties.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
