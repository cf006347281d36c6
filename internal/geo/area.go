// Package geo estimates the surface area of property boundaries.
//
// The estimate is planar: the shoelace formula is applied directly to
// longitude/latitude degrees and the result is scaled by a fixed
// 111,000 meters per degree on both axes. There is no geodesic or
// latitude correction, so longitudes are overstated away from the
// equator. Values match what the mobile client has always shown.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/assistenteze/agro/internal/models"
)

// MetersPerDegree is the equatorial degree length used for both axes.
const MetersPerDegree = 111000.0

// SquareMetersPerHectare is the threshold above which areas are shown in hectares.
const SquareMetersPerHectare = 10000.0

// Coordinate bounds for WGS84 positions.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Ring validation errors
var (
	ErrRingTooShort      = errors.New("ring must have at least 4 positions")
	ErrRingNotClosed     = errors.New("ring first and last positions must be equal")
	ErrTooFewVertices    = errors.New("ring must have at least 3 distinct vertices")
	ErrCoordinateInvalid = errors.New("coordinate out of range")
)

// EstimateArea returns the approximate area in square meters enclosed by ring.
// Rings with fewer than 3 distinct vertices have zero area. The result is
// never negative and does not depend on winding direction.
func EstimateArea(ring []models.Position) float64 {
	if DistinctVertices(ring) < 3 {
		return 0
	}

	// Pairing the last position with the first closes an open ring; for a
	// closed ring that pair is degenerate and contributes nothing.
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		x1, y1 := ring[i][0], ring[i][1]
		x2, y2 := ring[(i+1)%n][0], ring[(i+1)%n][1]
		sum += x1*y2 - x2*y1
	}

	if sum < 0 {
		sum = -sum
	}
	return sum / 2 * MetersPerDegree * MetersPerDegree
}

// EstimatePolygonArea estimates the area of a polygon's outer ring.
func EstimatePolygonArea(p models.Polygon) float64 {
	return EstimateArea(p.Ring())
}

// FormatArea renders an area for display: hectares with two decimals from
// 10,000 m² upwards, whole square meters below that.
func FormatArea(squareMeters float64) string {
	if squareMeters < SquareMetersPerHectare {
		return fmt.Sprintf("%.0f m²", squareMeters)
	}
	return fmt.Sprintf("%.2f ha", squareMeters/SquareMetersPerHectare)
}

// DistinctVertices counts unique positions in ring.
func DistinctVertices(ring []models.Position) int {
	seen := make(map[models.Position]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// IsClosed reports whether the ring repeats its first position at the end.
func IsClosed(ring []models.Position) bool {
	if len(ring) < 2 {
		return false
	}
	return ring[0] == ring[len(ring)-1]
}

// VertexCount returns the number of drawn vertices, not counting the
// closing repeat of a closed ring.
func VertexCount(ring []models.Position) int {
	if IsClosed(ring) {
		return len(ring) - 1
	}
	return len(ring)
}

// ValidateRing checks that ring can serve as a property boundary.
func ValidateRing(ring []models.Position) error {
	if len(ring) < 4 {
		return fmt.Errorf("%w: got %d", ErrRingTooShort, len(ring))
	}
	if !IsClosed(ring) {
		return ErrRingNotClosed
	}
	for i, p := range ring {
		lng, lat := p[0], p[1]
		if math.IsNaN(lng) || math.IsNaN(lat) || math.IsInf(lng, 0) || math.IsInf(lat, 0) {
			return fmt.Errorf("%w: position %d is not a number", ErrCoordinateInvalid, i)
		}
		if lng < MinLongitude || lng > MaxLongitude || lat < MinLatitude || lat > MaxLatitude {
			return fmt.Errorf("%w: position %d [%f,%f]", ErrCoordinateInvalid, i, lng, lat)
		}
	}
	if DistinctVertices(ring) < 3 {
		return ErrTooFewVertices
	}
	return nil
}
