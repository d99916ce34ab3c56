package service

import (
	"context"
	"strings"
	"time"

	"github.com/yourname/aquaguide/internal"
	"github.com/yourname/aquaguide/internal/metrics"
	"github.com/yourname/aquaguide/internal/notify"
	"github.com/yourname/aquaguide/internal/storage"
)

type StartBatchRequest struct {
	Species string `json:"species" validate:"required"`
}

type CompleteBatchRequest struct {
	Species string `json:"species" validate:"required"`
}

type FeedbackRequest struct {
	Species      string `json:"species" validate:"required"`
	Day          any    `json:"day" validate:"required"`
	RunStartDate string `json:"run_start_date"`
	Feedback     string `json:"feedback" validate:"required"`
}

type BatchProgress struct {
	Batch      *internal.ActiveBatch `json:"batch"`
	CurrentDay int                   `json:"current_day"`
	Guide      *internal.GuideEntry  `json:"guide"`
}

// BatchManager drives the per-user NoActiveBatch <-> ActiveBatch cycle.
type BatchManager struct {
	batches     storage.BatchRepository
	catalog     storage.GuideCatalog
	feedback    storage.FeedbackLog
	completions storage.CompletionArchive
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	logger      internal.Logger
	now         func() time.Time
}

type Option func(*BatchManager)

func WithClock(now func() time.Time) Option {
	return func(m *BatchManager) { m.now = now }
}

func WithNotifier(n notify.Notifier) Option {
	return func(m *BatchManager) { m.notifier = n }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *BatchManager) { m.metrics = mt }
}

func NewBatchManager(store storage.Store, logger internal.Logger, opts ...Option) *BatchManager {
	m := &BatchManager{
		batches:     store,
		catalog:     store,
		feedback:    store,
		completions: store,
		notifier:    notify.NopNotifier{},
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *BatchManager) today() string {
	return internal.FormatDate(m.now())
}

func (m *BatchManager) observe(transition string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(internal.KindOf(err))
	}
	m.metrics.ObserveTransition(transition, outcome)
}

// publish is best-effort; a failed notification never fails the transition.
func (m *BatchManager) publish(ctx context.Context, ev notify.Event) {
	ev.At = m.now().UTC()
	if err := m.notifier.Publish(ctx, ev); err != nil {
		m.logger.Warnf("notify %s for user %s: %v", ev.Type, ev.UserID, err)
	}
}

// Start replaces whatever batch the user had. The previous run is abandoned, not archived.
func (m *BatchManager) Start(ctx context.Context, userID, species string) (batch *internal.ActiveBatch, err error) {
	defer func() { m.observe("start", err) }()
	if userID, err = requireUser(userID); err != nil {
		return nil, err
	}
	if species, err = requireSpecies(species); err != nil {
		return nil, err
	}
	batch = &internal.ActiveBatch{UserID: userID, Species: species, StartDate: m.today()}
	if err = m.batches.ReplaceActiveBatch(ctx, batch); err != nil {
		return nil, err
	}
	m.logger.Infof("user %s started %s batch on %s", userID, species, batch.StartDate)
	m.publish(ctx, notify.Event{Type: notify.EventBatchStarted, UserID: userID, Species: species, Date: batch.StartDate})
	return batch, nil
}

// Active returns nil, nil when the user has no batch.
func (m *BatchManager) Active(ctx context.Context, userID string) (*internal.ActiveBatch, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	batch, err := m.batches.GetActiveBatch(ctx, userID)
	if err != nil || batch == nil {
		return nil, err
	}
	if batch.StartDate, err = internal.NormalizeDate(batch.StartDate); err != nil {
		return nil, internal.StorageError("normalize start date", err)
	}
	return batch, nil
}

func (m *BatchManager) Clear(ctx context.Context, userID string) (err error) {
	defer func() { m.observe("clear", err) }()
	if userID, err = requireUser(userID); err != nil {
		return err
	}
	if err = m.batches.ClearActiveBatch(ctx, userID); err != nil {
		return err
	}
	m.publish(ctx, notify.Event{Type: notify.EventBatchCleared, UserID: userID, Date: m.today()})
	return nil
}

// Complete archives the user's active batch and removes it in one store operation, so a
// concurrent Start for the same user is either rejected as a species mismatch or survives.
// A failed archive leaves the batch in place for a retry.
func (m *BatchManager) Complete(ctx context.Context, userID, species string) (rec *internal.CompletionRecord, err error) {
	defer func() { m.observe("complete", err) }()
	if userID, err = requireUser(userID); err != nil {
		return nil, err
	}
	if species, err = requireSpecies(species); err != nil {
		return nil, err
	}
	rec = &internal.CompletionRecord{UserID: userID, Species: species, CompletionDate: m.today()}
	if err = m.batches.CompleteActiveBatch(ctx, rec); err != nil {
		return nil, err
	}
	m.logger.Infof("user %s completed %s batch on %s", userID, species, rec.CompletionDate)
	m.publish(ctx, notify.Event{Type: notify.EventBatchCompleted, UserID: userID, Species: species, Date: rec.CompletionDate})
	return rec, nil
}

func (m *BatchManager) ListCompleted(ctx context.Context, userID string) ([]internal.CompletionRecord, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	return m.completions.ListCompletions(ctx, userID)
}

// RecordFeedback does not look at the active batch; the caller names the run by its start date.
func (m *BatchManager) RecordFeedback(ctx context.Context, req *FeedbackRequest) (rec *internal.FeedbackRecord, err error) {
	defer func() { m.observe("feedback", err) }()
	req.Species = strings.TrimSpace(req.Species)
	req.Feedback = strings.TrimSpace(req.Feedback)
	if err = validateStruct(req); err != nil {
		return nil, err
	}
	day, err := ParseDayNumber(req.Day)
	if err != nil {
		return nil, err
	}
	runStart, err := internal.NormalizeDate(req.RunStartDate)
	if err != nil {
		return nil, internal.Validationf("run_start_date must be YYYY-MM-DD")
	}
	rec = &internal.FeedbackRecord{
		Species:      req.Species,
		DayNumber:    day,
		RunStartDate: runStart,
		FeedbackText: req.Feedback,
	}
	if err = m.feedback.AppendFeedback(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (m *BatchManager) ListFeedback(ctx context.Context, species, runStartDate string) ([]internal.FeedbackRecord, error) {
	species, err := requireSpecies(species)
	if err != nil {
		return nil, err
	}
	runStart, err := internal.NormalizeDate(runStartDate)
	if err != nil {
		return nil, internal.Validationf("run_start_date must be YYYY-MM-DD")
	}
	return m.feedback.ListFeedback(ctx, species, runStart)
}
