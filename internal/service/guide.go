package service

import (
	"context"

	"github.com/yourname/aquaguide/internal"
)

func (m *BatchManager) ListSpecies(ctx context.Context) ([]string, error) {
	return m.catalog.ListSpecies(ctx)
}

func (m *BatchManager) SpeciesInfo(ctx context.Context, species string) (*internal.SpeciesInfo, error) {
	species, err := requireSpecies(species)
	if err != nil {
		return nil, err
	}
	return m.catalog.GetSpeciesInfo(ctx, species)
}

// DayContent returns nil, nil for a day the catalog has no entry for.
func (m *BatchManager) DayContent(ctx context.Context, species string, day any) (*internal.GuideEntry, error) {
	species, err := requireSpecies(species)
	if err != nil {
		return nil, err
	}
	n, err := ParseDayNumber(day)
	if err != nil {
		return nil, err
	}
	return m.catalog.GetGuideDay(ctx, species, n)
}

// Progress reports which curriculum day the user's active batch is on. Day 1 is the start date.
func (m *BatchManager) Progress(ctx context.Context, userID string) (*BatchProgress, error) {
	batch, err := m.Active(ctx, userID)
	if err != nil || batch == nil {
		return nil, err
	}
	elapsed, err := internal.DaysBetween(batch.StartDate, m.today())
	if err != nil {
		return nil, err
	}
	day := elapsed + 1
	if day < 1 {
		day = 1
	}
	entry, err := m.catalog.GetGuideDay(ctx, batch.Species, day)
	if err != nil {
		return nil, err
	}
	return &BatchProgress{Batch: batch, CurrentDay: day, Guide: entry}, nil
}
