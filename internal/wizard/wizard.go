// Package wizard implements the five-step property creation flow as an
// explicit state machine. A Wizard holds the draft collected so far; each
// Submit method validates one step and advances the state.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/assistenteze/agro/internal/geo"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/validation"
)

// State is the position of a wizard in the flow.
type State string

const (
	StateCollectingName        State = "collecting_name"
	StateCollectingLocation    State = "collecting_location"
	StateCollectingDescription State = "collecting_description"
	StateCollectingGeometry    State = "collecting_geometry"
	StateConfirming            State = "confirming"
	StateCompleted             State = "completed"
	StateCancelled             State = "cancelled"
)

// Event drives a transition.
type Event string

const (
	EventNext    Event = "next"
	EventBack    Event = "back"
	EventConfirm Event = "confirm"
	EventCancel  Event = "cancel"
)

// TotalSteps is the number of user-visible steps.
const TotalSteps = 5

// Minimum property name length, counted in characters after trimming.
const MinNameLength = 3

// CityNotInformed is stored when neither a city nor a geocoded city exists.
const CityNotInformed = "Cidade não informada"

var (
	// ErrInvalidTransition is returned when an event does not apply to the
	// current state.
	ErrInvalidTransition = errors.New("invalid wizard transition")
)

// flow lists the collecting states in order.
var flow = []State{
	StateCollectingName,
	StateCollectingLocation,
	StateCollectingDescription,
	StateCollectingGeometry,
	StateConfirming,
}

// Transition returns the state reached from s on e.
//
//	Next     advances one collecting step, ending at Confirming
//	Back     returns one step; from CollectingName it cancels
//	Confirm  only from Confirming, reaching Completed
//	Cancel   from any non-terminal state
func Transition(s State, e Event) (State, error) {
	if s.Terminal() {
		return s, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, s)
	}

	idx := s.index()
	if idx < 0 {
		return s, fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, s)
	}

	switch e {
	case EventNext:
		if s == StateConfirming {
			return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
		}
		return flow[idx+1], nil
	case EventBack:
		if idx == 0 {
			return StateCancelled, nil
		}
		return flow[idx-1], nil
	case EventConfirm:
		if s != StateConfirming {
			return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
		}
		return StateCompleted, nil
	case EventCancel:
		return StateCancelled, nil
	default:
		return s, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, e)
	}
}

func (s State) index() int {
	for i, st := range flow {
		if st == s {
			return i
		}
	}
	return -1
}

// Step returns the 1-based step number for progress display. Completed
// reports the last step; Cancelled reports 0.
func (s State) Step() int {
	switch s {
	case StateCompleted:
		return TotalSteps
	case StateCancelled:
		return 0
	default:
		return s.index() + 1
	}
}

// Terminal reports whether no further events apply.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Progress renders the step counter shown above each form.
func (s State) Progress() string {
	return fmt.Sprintf("Passo %d de %d", s.Step(), TotalSteps)
}

// Draft is the data collected so far.
type Draft struct {
	Geometry         *models.Polygon `json:"geometry,omitempty"`
	AreaSquareMeters *float64        `json:"areaSquareMeters,omitempty"`
	Name             string          `json:"name"`
	CEP              string          `json:"cep"`
	City             string          `json:"city"`
	Description      string          `json:"description"`
}

// CityResolver looks up the city for a valid CEP.
type CityResolver func(ctx context.Context, cep string) (string, error)

// Wizard is one in-flight property creation.
type Wizard struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	State     State     `json:"state"`
	Draft     Draft     `json:"draft"`
}

// New starts a wizard at the name step.
func New(id, ownerID string, now time.Time) *Wizard {
	return &Wizard{
		ID:        id,
		OwnerID:   ownerID,
		State:     StateCollectingName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (w *Wizard) Clone() *Wizard {
	c := *w
	if w.Draft.Geometry != nil {
		g := models.NewPolygon(w.Draft.Geometry.Ring())
		c.Draft.Geometry = &g
	}
	if w.Draft.AreaSquareMeters != nil {
		a := *w.Draft.AreaSquareMeters
		c.Draft.AreaSquareMeters = &a
	}
	return &c
}

func (w *Wizard) expect(s State) error {
	if w.State != s {
		return fmt.Errorf("%w: expected %s, wizard is %s", ErrInvalidTransition, s, w.State)
	}
	return nil
}

func (w *Wizard) advance(e Event) error {
	next, err := Transition(w.State, e)
	if err != nil {
		return err
	}
	w.State = next
	return nil
}

// SubmitName completes step 1.
func (w *Wizard) SubmitName(name string) error {
	if err := w.expect(StateCollectingName); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if len([]rune(name)) < MinNameLength {
		return models.NewValidationError("name", "O nome da propriedade deve ter pelo menos 3 caracteres")
	}
	w.Draft.Name = name
	return w.advance(EventNext)
}

// SubmitLocation completes step 2. A CEP, when given, must be valid and is
// stored formatted. When only a CEP is given the city comes from resolve;
// the city falls back to CityNotInformed when still empty.
func (w *Wizard) SubmitLocation(ctx context.Context, cep, city string, resolve CityResolver) error {
	if err := w.expect(StateCollectingLocation); err != nil {
		return err
	}
	cep = strings.TrimSpace(cep)
	city = strings.TrimSpace(city)

	if cep != "" && !validation.ValidCEP(cep) {
		return models.NewValidationError("cep", "Digite um CEP válido no formato 00000-000")
	}
	if cep == "" && city == "" {
		return models.NewValidationError("location", "Informe o CEP ou o nome da cidade")
	}

	if cep != "" {
		cep = validation.FormatCEP(cep)
		if city == "" && resolve != nil {
			resolved, err := resolve(ctx, cep)
			if err != nil {
				return fmt.Errorf("failed to resolve city for CEP: %w", err)
			}
			city = resolved
		}
	}
	if city == "" {
		city = CityNotInformed
	}

	w.Draft.CEP = cep
	w.Draft.City = city
	return w.advance(EventNext)
}

// SubmitDescription completes step 3. The description is optional.
func (w *Wizard) SubmitDescription(description string) error {
	if err := w.expect(StateCollectingDescription); err != nil {
		return err
	}
	w.Draft.Description = strings.TrimSpace(description)
	return w.advance(EventNext)
}

// SubmitGeometry completes step 4 and computes the area from ring.
func (w *Wizard) SubmitGeometry(ring []models.Position) error {
	if err := w.expect(StateCollectingGeometry); err != nil {
		return err
	}
	if len(ring) == 0 {
		return models.NewValidationError("geometry", "É necessário desenhar a área da propriedade no mapa")
	}
	if err := geo.ValidateRing(ring); err != nil {
		return models.NewValidationError("geometry", err.Error())
	}

	polygon := models.NewPolygon(ring)
	area := geo.EstimateArea(ring)
	w.Draft.Geometry = &polygon
	w.Draft.AreaSquareMeters = &area
	return w.advance(EventNext)
}

// Back returns to the previous step, keeping the collected data.
// Going back from the first step cancels the wizard.
func (w *Wizard) Back() error {
	return w.advance(EventBack)
}

// Cancel abandons the wizard.
func (w *Wizard) Cancel() error {
	return w.advance(EventCancel)
}

// Confirm completes step 5. The draft must carry geometry and area.
func (w *Wizard) Confirm() error {
	if err := w.expect(StateConfirming); err != nil {
		return err
	}
	if w.Draft.Geometry == nil || w.Draft.Geometry.IsEmpty() || w.Draft.AreaSquareMeters == nil {
		return models.NewValidationError("geometry", "Dados incompletos da propriedade")
	}
	return w.advance(EventConfirm)
}

// Property builds the record to persist from a confirmed draft.
func (w *Wizard) Property(id string, createdAt time.Time) models.Property {
	d := w.Clone().Draft
	return models.Property{
		ID:               id,
		OwnerID:          w.OwnerID,
		Name:             d.Name,
		CEP:              d.CEP,
		City:             d.City,
		Description:      d.Description,
		Geometry:         d.Geometry,
		AreaSquareMeters: d.AreaSquareMeters,
		CreatedAt:        createdAt,
	}
}
