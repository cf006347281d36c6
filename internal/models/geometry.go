package models

import (
	"encoding/json"
	"fmt"
)

// GeometryTypePolygon is the only GeoJSON geometry type a property boundary may have.
const GeometryTypePolygon = "Polygon"

// Position is a single [longitude, latitude] pair in WGS84 degrees.
type Position = [2]float64

// Polygon represents a property boundary drawn on the map.
// It stores coordinates in GeoJSON format: [rings][points][lon,lat]
// Only the first (outer) ring is meaningful; properties never carry holes.
type Polygon struct {
	Coordinates [][]Position // GeoJSON coordinate structure
}

// NewPolygon builds a single-ring polygon from the given ring.
// The ring is copied so later edits by the caller do not leak into the record.
func NewPolygon(ring []Position) Polygon {
	if len(ring) == 0 {
		return Polygon{}
	}
	copied := make([]Position, len(ring))
	copy(copied, ring)
	return Polygon{Coordinates: [][]Position{copied}}
}

// Ring returns the outer ring, or nil when the polygon is empty.
func (p Polygon) Ring() []Position {
	if len(p.Coordinates) == 0 {
		return nil
	}
	return p.Coordinates[0]
}

// IsEmpty reports whether the polygon has no outer ring points.
func (p Polygon) IsEmpty() bool {
	return len(p.Ring()) == 0
}

// MarshalJSON implements json.Marshaler for storage and API responses.
// Returns GeoJSON-compliant format for frontend consumption.
func (p Polygon) MarshalJSON() ([]byte, error) {
	coords := p.Coordinates
	if coords == nil {
		coords = [][]Position{}
	}
	geom := struct {
		Type        string       `json:"type"`
		Coordinates [][]Position `json:"coordinates"`
	}{
		Type:        GeometryTypePolygon,
		Coordinates: coords,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
// A missing type is accepted; any type other than Polygon is rejected.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string       `json:"type"`
		Coordinates [][]Position `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal polygon: %w", err)
	}

	if geom.Type != "" && geom.Type != GeometryTypePolygon {
		return fmt.Errorf("expected Polygon type, got %s", geom.Type)
	}

	if len(geom.Coordinates) > 1 {
		return fmt.Errorf("expected a single ring, got %d", len(geom.Coordinates))
	}

	p.Coordinates = geom.Coordinates

	return nil
}
