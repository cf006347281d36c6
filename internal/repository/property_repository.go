package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/assistenteze/agro/internal/logger"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/storage"
)

// PropertyRepository defines the data access operations for the saved
// property collection. The collection is device-wide; callers filter by
// owner when they need to.
type PropertyRepository interface {
	// Append adds a property to the end of the collection.
	// Returns a models.ValidationError when geometry or area is missing.
	// Ids are not checked for uniqueness.
	Append(ctx context.Context, property models.Property) error

	// ListAll returns every property in append order.
	// Absent or unreadable collections yield an empty slice, not an error.
	ListAll(ctx context.Context) ([]models.Property, error)

	// FindByID returns nil, nil when no property has the given id.
	FindByID(ctx context.Context, id string) (*models.Property, error)

	// Remove deletes every property with the given id.
	// Removing an unknown id is a no-op.
	Remove(ctx context.Context, id string) error

	// RemoveOwned deletes the properties matching both owner and id and
	// reports how many were removed.
	RemoveOwned(ctx context.Context, ownerID, id string) (int, error)

	// Clear drops the whole collection.
	Clear(ctx context.Context) error
}

// propertyRepository stores the collection as one JSON array under
// storage.KeyProperties. Every mutation rewrites the whole array; mu
// serializes the read-modify-write cycle so concurrent appends are not lost.
type propertyRepository struct {
	store storage.Store
	log   *logger.Logger
	mu    sync.Mutex
}

// NewPropertyRepository creates a PropertyRepository backed by store.
func NewPropertyRepository(store storage.Store, log *logger.Logger) PropertyRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &propertyRepository{store: store, log: log}
}

func (r *propertyRepository) Append(ctx context.Context, property models.Property) error {
	if err := property.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	properties, err := r.load(ctx)
	if err != nil {
		return err
	}
	return r.save(ctx, append(properties, property))
}

func (r *propertyRepository) ListAll(ctx context.Context) ([]models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(ctx)
}

func (r *propertyRepository) FindByID(ctx context.Context, id string) (*models.Property, error) {
	properties, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range properties {
		if properties[i].ID == id {
			return &properties[i], nil
		}
	}
	return nil, nil
}

func (r *propertyRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	properties, err := r.load(ctx)
	if err != nil {
		return err
	}

	kept := properties[:0]
	for _, p := range properties {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return r.save(ctx, kept)
}

func (r *propertyRepository) RemoveOwned(ctx context.Context, ownerID, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	properties, err := r.load(ctx)
	if err != nil {
		return 0, err
	}

	kept := properties[:0]
	for _, p := range properties {
		if p.ID != id || p.OwnerID != ownerID {
			kept = append(kept, p)
		}
	}
	removed := len(properties) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := r.save(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *propertyRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Delete(ctx, storage.KeyProperties); err != nil {
		return fmt.Errorf("failed to clear properties: %w", err)
	}
	return nil
}

// load must be called with mu held.
func (r *propertyRepository) load(ctx context.Context) ([]models.Property, error) {
	raw, err := r.store.Get(ctx, storage.KeyProperties)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.Property{}, nil
		}
		return nil, fmt.Errorf("failed to read properties: %w", err)
	}

	var properties []models.Property
	if err := json.Unmarshal(raw, &properties); err != nil {
		r.log.Warn("Discarding unreadable property collection", map[string]interface{}{
			"error": err.Error(),
			"bytes": len(raw),
		})
		return []models.Property{}, nil
	}
	if properties == nil {
		properties = []models.Property{}
	}
	return properties, nil
}

// save must be called with mu held.
func (r *propertyRepository) save(ctx context.Context, properties []models.Property) error {
	raw, err := json.Marshal(properties)
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}
	if err := r.store.Set(ctx, storage.KeyProperties, raw); err != nil {
		return fmt.Errorf("failed to write properties: %w", err)
	}
	return nil
}
