package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/assistenteze/agro/internal/clock"
	"github.com/assistenteze/agro/internal/logger"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/repository"
	"github.com/assistenteze/agro/internal/wizard"
)

// PropertyDraft is the input for creating a property in one call.
type PropertyDraft struct {
	Name        string            `json:"name"`
	CEP         string            `json:"cep"`
	City        string            `json:"city"`
	Description string            `json:"description"`
	Geometry    []models.Position `json:"geometry"`
}

// PropertyService defines the business operations on saved properties.
type PropertyService interface {
	// Create validates draft with the same rules as the wizard, computes the
	// area from the geometry, and saves a new property owned by ownerID.
	Create(ctx context.Context, ownerID string, draft PropertyDraft) (*models.Property, error)

	// ListForOwner returns the owner's properties in creation order.
	ListForOwner(ctx context.Context, ownerID string) ([]models.Property, error)

	// Get returns ErrPropertyNotFound when the property is absent or owned
	// by someone else.
	Get(ctx context.Context, ownerID, id string) (*models.Property, error)

	// Delete returns ErrPropertyNotFound when the property is absent or
	// owned by someone else.
	Delete(ctx context.Context, ownerID, id string) error
}

type propertyService struct {
	repo     repository.PropertyRepository
	geocoder Geocoder
	clock    clock.Clock
	log      *logger.Logger
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(repo repository.PropertyRepository, geocoder Geocoder, clk clock.Clock, log *logger.Logger) PropertyService {
	return &propertyService{
		repo:     repo,
		geocoder: geocoder,
		clock:    clk,
		log:      log,
	}
}

func (s *propertyService) Create(ctx context.Context, ownerID string, draft PropertyDraft) (*models.Property, error) {
	now := s.clock.Now()

	w := wizard.New("", ownerID, now)
	if err := w.SubmitName(draft.Name); err != nil {
		return nil, err
	}
	if err := w.SubmitLocation(ctx, draft.CEP, draft.City, s.geocoder.CityForCEP); err != nil {
		return nil, err
	}
	if err := w.SubmitDescription(draft.Description); err != nil {
		return nil, err
	}
	if err := w.SubmitGeometry(draft.Geometry); err != nil {
		return nil, err
	}
	if err := w.Confirm(); err != nil {
		return nil, err
	}

	property := w.Property(uuid.NewString(), now)
	if err := s.repo.Append(ctx, property); err != nil {
		s.log.Error("Failed to save property", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, fmt.Errorf("failed to save property: %w", err)
	}

	s.log.Info("Property created", map[string]interface{}{
		"property_id": property.ID,
		"owner_id":    ownerID,
		"area_m2":     property.Area(),
	})
	return &property, nil
}

func (s *propertyService) ListForOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	owned := make([]models.Property, 0, len(all))
	for _, p := range all {
		if p.OwnerID == ownerID {
			owned = append(owned, p)
		}
	}
	return owned, nil
}

func (s *propertyService) Get(ctx context.Context, ownerID, id string) (*models.Property, error) {
	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if property == nil || property.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, id)
	}
	return property, nil
}

func (s *propertyService) Delete(ctx context.Context, ownerID, id string) error {
	removed, err := s.repo.RemoveOwned(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrPropertyNotFound, id)
	}

	s.log.Info("Property deleted", map[string]interface{}{
		"property_id": id,
		"owner_id":    ownerID,
	})
	return nil
}
