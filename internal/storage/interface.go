package storage

import (
	"context"

	"github.com/yourname/aquaguide/internal"
)

// BatchRepository owns the one-active-batch-per-user invariant.
type BatchRepository interface {
	// ReplaceActiveBatch deletes any batch for batch.UserID and inserts batch, atomically per user.
	ReplaceActiveBatch(ctx context.Context, batch *internal.ActiveBatch) error
	// GetActiveBatch returns nil, nil when the user has no batch.
	GetActiveBatch(ctx context.Context, userID string) (*internal.ActiveBatch, error)
	ClearActiveBatch(ctx context.Context, userID string) error
	// CompleteActiveBatch archives rec and deletes rec.UserID's batch as one unit per user.
	// The archive row is written before the delete. It fails with a not-found error when the
	// user has no batch and a validation error when rec.Species is not the active species;
	// neither case changes anything.
	CompleteActiveBatch(ctx context.Context, rec *internal.CompletionRecord) error
}

type GuideCatalog interface {
	ListSpecies(ctx context.Context) ([]string, error)
	GetGuideDay(ctx context.Context, species string, day int) (*internal.GuideEntry, error)
	GetSpeciesInfo(ctx context.Context, species string) (*internal.SpeciesInfo, error)
}

// GuideSeeder loads catalog content out-of-band.
type GuideSeeder interface {
	SeedGuide(ctx context.Context, entries []internal.GuideEntry, infos []internal.SpeciesInfo) error
}

type FeedbackLog interface {
	AppendFeedback(ctx context.Context, rec *internal.FeedbackRecord) error
	// ListFeedback orders by day then creation time. An empty runStartDate matches every run.
	ListFeedback(ctx context.Context, species, runStartDate string) ([]internal.FeedbackRecord, error)
}

// CompletionArchive is appended to only through BatchRepository.CompleteActiveBatch.
type CompletionArchive interface {
	// ListCompletions returns newest completion date first.
	ListCompletions(ctx context.Context, userID string) ([]internal.CompletionRecord, error)
}

// Store is what every backend implements.
type Store interface {
	BatchRepository
	GuideCatalog
	GuideSeeder
	FeedbackLog
	CompletionArchive
	Close() error
}

// checkCompletable is the precondition every backend applies inside its per-user critical section.
func checkCompletable(active *internal.ActiveBatch, species string) error {
	if active == nil {
		return internal.NotFoundf("no active batch to complete")
	}
	if active.Species != species {
		return internal.Validationf("species %q does not match the active %q batch", species, active.Species)
	}
	return nil
}
