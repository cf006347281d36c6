package services

import (
	"context"

	"github.com/assistenteze/agro/internal/models"
)

// sampleRing is a small block in central São Paulo, closed.
var sampleRing = []models.Position{
	{-46.6333, -23.5505},
	{-46.6300, -23.5505},
	{-46.6300, -23.5470},
	{-46.6333, -23.5470},
	{-46.6333, -23.5505},
}

// MapDrawer produces the outer ring the user traced on a map.
type MapDrawer interface {
	Draw(ctx context.Context) ([]models.Position, error)
}

// SampleMapDrawer always draws the same sample ring.
type SampleMapDrawer struct{}

func (SampleMapDrawer) Draw(ctx context.Context) ([]models.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ring := make([]models.Position, len(sampleRing))
	copy(ring, sampleRing)
	return ring, nil
}
