package models

import (
	"time"
)

// Property is a farm property registered by an authenticated producer.
// AreaSquareMeters is always derived from Geometry when the record is
// created and is never edited on its own.
type Property struct {
	CreatedAt        time.Time `json:"createdAt"`
	Geometry         *Polygon  `json:"geometry,omitempty"`
	AreaSquareMeters *float64  `json:"areaSquareMeters,omitempty"`
	ID               string    `json:"id"`
	OwnerID          string    `json:"ownerId"`
	Name             string    `json:"name"`
	CEP              string    `json:"cep,omitempty"`
	City             string    `json:"city"`
	Description      string    `json:"description,omitempty"`
}

// Area returns the stored area, or zero when it is absent.
func (p *Property) Area() float64 {
	if p.AreaSquareMeters == nil {
		return 0
	}
	return *p.AreaSquareMeters
}

// Validate checks the fields the property store requires before appending.
func (p *Property) Validate() error {
	if p.Geometry == nil || p.Geometry.IsEmpty() {
		return NewValidationError("geometry", "geometry is required")
	}
	if p.AreaSquareMeters == nil {
		return NewValidationError("areaSquareMeters", "area is required")
	}
	if *p.AreaSquareMeters < 0 {
		return NewValidationError("areaSquareMeters", "area must be non-negative")
	}
	return nil
}
