package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistenteze/agro/internal/geo"
	"github.com/assistenteze/agro/internal/models"
)

var (
	start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	square = []models.Position{
		{-46.6333, -23.5505},
		{-46.6300, -23.5505},
		{-46.6300, -23.5470},
		{-46.6333, -23.5470},
		{-46.6333, -23.5505},
	}
)

func placeholderCity(context.Context, string) (string, error) {
	return "Cidade (pelo CEP)", nil
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from    State
		event   Event
		want    State
		wantErr bool
	}{
		{StateCollectingName, EventNext, StateCollectingLocation, false},
		{StateCollectingLocation, EventNext, StateCollectingDescription, false},
		{StateCollectingDescription, EventNext, StateCollectingGeometry, false},
		{StateCollectingGeometry, EventNext, StateConfirming, false},
		{StateConfirming, EventNext, StateConfirming, true},

		{StateCollectingName, EventBack, StateCancelled, false},
		{StateCollectingLocation, EventBack, StateCollectingName, false},
		{StateConfirming, EventBack, StateCollectingGeometry, false},

		{StateConfirming, EventConfirm, StateCompleted, false},
		{StateCollectingGeometry, EventConfirm, StateCollectingGeometry, true},

		{StateCollectingDescription, EventCancel, StateCancelled, false},
		{StateCompleted, EventCancel, StateCompleted, true},
		{StateCancelled, EventNext, StateCancelled, true},

		{State("bogus"), EventNext, State("bogus"), true},
		{StateCollectingName, Event("jump"), StateCollectingName, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			got, err := Transition(tt.from, tt.event)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStateStep(t *testing.T) {
	assert.Equal(t, 1, StateCollectingName.Step())
	assert.Equal(t, 2, StateCollectingLocation.Step())
	assert.Equal(t, 3, StateCollectingDescription.Step())
	assert.Equal(t, 4, StateCollectingGeometry.Step())
	assert.Equal(t, 5, StateConfirming.Step())
	assert.Equal(t, 5, StateCompleted.Step())
	assert.Equal(t, 0, StateCancelled.Step())
	assert.Equal(t, "Passo 2 de 5", StateCollectingLocation.Progress())
}

func TestWizard_HappyPath(t *testing.T) {
	ctx := context.Background()
	w := New("w-1", "u-1", start)

	require.NoError(t, w.SubmitName("  Fazenda Boa Vista  "))
	require.NoError(t, w.SubmitLocation(ctx, "01310100", "", placeholderCity))
	require.NoError(t, w.SubmitDescription(" Café e milho "))
	require.NoError(t, w.SubmitGeometry(square))
	require.Equal(t, StateConfirming, w.State)
	require.NoError(t, w.Confirm())
	assert.Equal(t, StateCompleted, w.State)

	area := geo.EstimateArea(square)
	polygon := models.NewPolygon(square)
	want := Draft{
		Name:             "Fazenda Boa Vista",
		CEP:              "01310-100",
		City:             "Cidade (pelo CEP)",
		Description:      "Café e milho",
		Geometry:         &polygon,
		AreaSquareMeters: &area,
	}
	if diff := cmp.Diff(want, w.Draft); diff != "" {
		t.Errorf("draft mismatch (-want +got):\n%s", diff)
	}

	p := w.Property("p-1", start.Add(time.Minute))
	assert.Equal(t, "u-1", p.OwnerID)
	assert.Equal(t, "p-1", p.ID)
	assert.InDelta(t, area, p.Area(), 1e-9)
	assert.NoError(t, p.Validate())
}

func TestWizard_SubmitName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"three characters", "Sol", false},
		{"accented", "Sítio", false},
		{"too short", "ab", true},
		{"short after trim", "  ab  ", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New("w", "u", start)
			err := w.SubmitName(tt.input)
			if tt.wantErr {
				var verr *models.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "name", verr.Field)
				assert.Equal(t, StateCollectingName, w.State)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StateCollectingLocation, w.State)
		})
	}
}

func TestWizard_SubmitLocation(t *testing.T) {
	ctx := context.Background()
	failing := func(context.Context, string) (string, error) { return "", errors.New("lookup down") }

	tests := []struct {
		name      string
		cep       string
		city      string
		resolve   CityResolver
		wantCEP   string
		wantCity  string
		wantField string
		wantErr   bool
	}{
		{name: "cep only uses resolver", cep: "13010-000", resolve: placeholderCity, wantCEP: "13010-000", wantCity: "Cidade (pelo CEP)"},
		{name: "cep digits formatted", cep: "13010000", city: "Campinas", resolve: placeholderCity, wantCEP: "13010-000", wantCity: "Campinas"},
		{name: "city only", city: "Campinas", wantCity: "Campinas"},
		{name: "cep without resolver falls back", cep: "13010-000", wantCEP: "13010-000", wantCity: CityNotInformed},
		{name: "invalid cep", cep: "1301", city: "Campinas", wantField: "cep", wantErr: true},
		{name: "neither", wantField: "location", wantErr: true},
		{name: "resolver failure", cep: "13010-000", resolve: failing, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New("w", "u", start)
			require.NoError(t, w.SubmitName("Fazenda"))

			err := w.SubmitLocation(ctx, tt.cep, tt.city, tt.resolve)
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantField != "" {
					var verr *models.ValidationError
					require.True(t, errors.As(err, &verr))
					assert.Equal(t, tt.wantField, verr.Field)
				}
				assert.Equal(t, StateCollectingLocation, w.State)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCEP, w.Draft.CEP)
			assert.Equal(t, tt.wantCity, w.Draft.City)
		})
	}
}

func TestWizard_SubmitGeometryRejectsBadRings(t *testing.T) {
	open := square[:4]
	degenerate := []models.Position{{0, 0}, {1, 1}, {0, 0}, {1, 1}, {0, 0}}

	for name, ring := range map[string][]models.Position{
		"empty":      nil,
		"open":       open,
		"degenerate": degenerate,
	} {
		t.Run(name, func(t *testing.T) {
			w := atGeometry(t)
			err := w.SubmitGeometry(ring)
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Equal(t, StateCollectingGeometry, w.State)
			assert.Nil(t, w.Draft.Geometry)
		})
	}
}

func TestWizard_StepOutOfOrder(t *testing.T) {
	w := New("w", "u", start)

	assert.ErrorIs(t, w.SubmitDescription("x"), ErrInvalidTransition)
	assert.ErrorIs(t, w.SubmitGeometry(square), ErrInvalidTransition)
	assert.ErrorIs(t, w.Confirm(), ErrInvalidTransition)
	assert.Equal(t, StateCollectingName, w.State)
}

func TestWizard_BackKeepsDraft(t *testing.T) {
	w := atGeometry(t)

	require.NoError(t, w.Back())
	assert.Equal(t, StateCollectingDescription, w.State)
	require.NoError(t, w.Back())
	require.NoError(t, w.Back())
	assert.Equal(t, StateCollectingName, w.State)
	assert.Equal(t, "Fazenda", w.Draft.Name)
	assert.Equal(t, "Campinas", w.Draft.City)

	require.NoError(t, w.Back())
	assert.Equal(t, StateCancelled, w.State)
	assert.ErrorIs(t, w.Back(), ErrInvalidTransition)
}

func TestWizard_ConfirmRequiresGeometry(t *testing.T) {
	w := New("w", "u", start)
	w.State = StateConfirming

	err := w.Confirm()
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, StateConfirming, w.State)
}

func TestWizard_Cancel(t *testing.T) {
	w := atGeometry(t)
	require.NoError(t, w.Cancel())
	assert.Equal(t, StateCancelled, w.State)
	assert.Error(t, w.Cancel())
}

func TestWizard_CloneIsDeep(t *testing.T) {
	w := atGeometry(t)
	require.NoError(t, w.SubmitGeometry(square))

	c := w.Clone()
	*c.Draft.AreaSquareMeters = -1
	c.Draft.Geometry.Coordinates[0][0] = models.Position{0, 0}

	assert.NotEqual(t, -1.0, *w.Draft.AreaSquareMeters)
	assert.Equal(t, square[0], w.Draft.Geometry.Ring()[0])
}

func atGeometry(t *testing.T) *Wizard {
	t.Helper()
	w := New("w", "u", start)
	require.NoError(t, w.SubmitName("Fazenda"))
	require.NoError(t, w.SubmitLocation(context.Background(), "", "Campinas", nil))
	require.NoError(t, w.SubmitDescription(""))
	require.Equal(t, StateCollectingGeometry, w.State)
	return w
}
