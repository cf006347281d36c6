package services

import (
	"context"
	"fmt"

	"github.com/assistenteze/agro/internal/validation"
)

// PlaceholderCity is returned by PlaceholderGeocoder for every valid CEP.
const PlaceholderCity = "Cidade (pelo CEP)"

// Geocoder resolves a postal code to a city name.
type Geocoder interface {
	CityForCEP(ctx context.Context, cep string) (string, error)
}

// PlaceholderGeocoder answers every valid CEP with PlaceholderCity.
type PlaceholderGeocoder struct{}

func (PlaceholderGeocoder) CityForCEP(ctx context.Context, cep string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validation.ValidCEP(cep) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCEP, cep)
	}
	return PlaceholderCity, nil
}
