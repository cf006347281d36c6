package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/assistenteze/agro/internal/clock"
	"github.com/assistenteze/agro/internal/logger"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/wizard"
)

// DefaultWizardIdleTimeout is how long an untouched wizard is kept.
const DefaultWizardIdleTimeout = 24 * time.Hour

// GeometryInput is the step 4 submission: an explicit ring, or a request
// to use the map drawer.
type GeometryInput struct {
	Ring      []models.Position
	UseSample bool
}

// WizardService keeps in-flight property wizards in memory. Every method
// returns a copy of the wizard; ErrWizardNotFound is returned for unknown
// ids and for wizards owned by someone else.
type WizardService interface {
	Start(ctx context.Context, ownerID string) (*wizard.Wizard, error)
	Get(ctx context.Context, ownerID, id string) (*wizard.Wizard, error)
	SubmitName(ctx context.Context, ownerID, id, name string) (*wizard.Wizard, error)
	SubmitLocation(ctx context.Context, ownerID, id, cep, city string) (*wizard.Wizard, error)
	SubmitDescription(ctx context.Context, ownerID, id, description string) (*wizard.Wizard, error)
	SubmitGeometry(ctx context.Context, ownerID, id string, input GeometryInput) (*wizard.Wizard, error)

	// Back steps back; from the first step the wizard is cancelled and
	// discarded.
	Back(ctx context.Context, ownerID, id string) (*wizard.Wizard, error)

	// Confirm saves the property and discards the wizard.
	Confirm(ctx context.Context, ownerID, id string) (*wizard.Wizard, *models.Property, error)

	Discard(ctx context.Context, ownerID, id string) error

	// Prune drops wizards idle for longer than the idle timeout and reports
	// how many were removed.
	Prune(ctx context.Context) int
}

type wizardService struct {
	properties  PropertyService
	geocoder    Geocoder
	drawer      MapDrawer
	clock       clock.Clock
	idleTimeout time.Duration
	log         *logger.Logger

	mu      sync.Mutex
	wizards map[string]*wizard.Wizard
}

// NewWizardService creates a new instance of WizardService. A non-positive
// idleTimeout falls back to DefaultWizardIdleTimeout.
func NewWizardService(properties PropertyService, geocoder Geocoder, drawer MapDrawer, clk clock.Clock, idleTimeout time.Duration, log *logger.Logger) WizardService {
	if idleTimeout <= 0 {
		idleTimeout = DefaultWizardIdleTimeout
	}
	return &wizardService{
		properties:  properties,
		geocoder:    geocoder,
		drawer:      drawer,
		clock:       clk,
		idleTimeout: idleTimeout,
		log:         log.WithComponent("wizard"),
		wizards:     make(map[string]*wizard.Wizard),
	}
}

func (s *wizardService) Start(ctx context.Context, ownerID string) (*wizard.Wizard, error) {
	w := wizard.New(uuid.NewString(), ownerID, s.clock.Now())

	s.mu.Lock()
	s.wizards[w.ID] = w
	s.mu.Unlock()

	s.log.Debug("Wizard started", map[string]interface{}{"wizard_id": w.ID, "owner_id": ownerID})
	return w.Clone(), nil
}

func (s *wizardService) Get(ctx context.Context, ownerID, id string) (*wizard.Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	return w.Clone(), nil
}

func (s *wizardService) SubmitName(ctx context.Context, ownerID, id, name string) (*wizard.Wizard, error) {
	return s.update(ownerID, id, func(w *wizard.Wizard) error {
		return w.SubmitName(name)
	})
}

func (s *wizardService) SubmitLocation(ctx context.Context, ownerID, id, cep, city string) (*wizard.Wizard, error) {
	return s.update(ownerID, id, func(w *wizard.Wizard) error {
		return w.SubmitLocation(ctx, cep, city, s.geocoder.CityForCEP)
	})
}

func (s *wizardService) SubmitDescription(ctx context.Context, ownerID, id, description string) (*wizard.Wizard, error) {
	return s.update(ownerID, id, func(w *wizard.Wizard) error {
		return w.SubmitDescription(description)
	})
}

func (s *wizardService) SubmitGeometry(ctx context.Context, ownerID, id string, input GeometryInput) (*wizard.Wizard, error) {
	ring := input.Ring
	if input.UseSample {
		drawn, err := s.drawer.Draw(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to draw sample area: %w", err)
		}
		ring = drawn
	}
	return s.update(ownerID, id, func(w *wizard.Wizard) error {
		return w.SubmitGeometry(ring)
	})
}

func (s *wizardService) Back(ctx context.Context, ownerID, id string) (*wizard.Wizard, error) {
	return s.update(ownerID, id, func(w *wizard.Wizard) error {
		return w.Back()
	})
}

func (s *wizardService) Confirm(ctx context.Context, ownerID, id string) (*wizard.Wizard, *models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, nil, err
	}

	next := current.Clone()
	if err := next.Confirm(); err != nil {
		return nil, nil, err
	}

	d := next.Draft
	property, err := s.properties.Create(ctx, ownerID, PropertyDraft{
		Name:        d.Name,
		CEP:         d.CEP,
		City:        d.City,
		Description: d.Description,
		Geometry:    d.Geometry.Ring(),
	})
	if err != nil {
		return nil, nil, err
	}

	next.UpdatedAt = s.clock.Now()
	delete(s.wizards, id)

	s.log.Info("Wizard completed", map[string]interface{}{
		"wizard_id":   id,
		"property_id": property.ID,
	})
	return next, property, nil
}

func (s *wizardService) Discard(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(ownerID, id); err != nil {
		return err
	}
	delete(s.wizards, id)
	return nil
}

func (s *wizardService) Prune(ctx context.Context) int {
	cutoff := s.clock.Now().Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, w := range s.wizards {
		if w.UpdatedAt.Before(cutoff) {
			delete(s.wizards, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Info("Pruned idle wizards", map[string]interface{}{"count": removed})
	}
	return removed
}

// lookup must be called with mu held.
func (s *wizardService) lookup(ownerID, id string) (*wizard.Wizard, error) {
	w, ok := s.wizards[id]
	if !ok || w.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %s", ErrWizardNotFound, id)
	}
	return w, nil
}

// update applies step to a copy and commits it only when step succeeds.
// Wizards that reach a terminal state are discarded.
func (s *wizardService) update(ownerID, id string, step func(*wizard.Wizard) error) (*wizard.Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := step(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.clock.Now()

	if next.State.Terminal() {
		delete(s.wizards, id)
	} else {
		s.wizards[id] = next
	}
	return next.Clone(), nil
}
