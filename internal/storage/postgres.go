package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourname/aquaguide/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, internal.StorageError("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Errorf("failed to ping postgres: %v", err)
		return nil, internal.StorageError("ping", err)
	}
	p := &PostgresStorage{pool: pool, logger: logger}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		logger.Errorf("failed to migrate postgres: %v", err)
		return nil, internal.StorageError("migrate", err)
	}
	return p, nil
}

func (p *PostgresStorage) migrate(ctx context.Context) error {
	files, err := loadMigrations("postgres")
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, schemaMigrationsDDL); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	for _, mf := range files {
		err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING`, mf.name)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			_, err = tx.Exec(ctx, string(mf.data))
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", mf.name, err)
		}
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- BatchRepository ---

// ReplaceActiveBatch takes a per-user advisory lock so concurrent starts for one user queue
// behind each other instead of racing on the primary key.
func (p *PostgresStorage) ReplaceActiveBatch(ctx context.Context, batch *internal.ActiveBatch) error {
	start, err := dateParam(batch.StartDate)
	if err != nil {
		return err
	}
	err = pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, batch.UserID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM active_batches WHERE user_id = $1`, batch.UserID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO active_batches (user_id, species, start_date) VALUES ($1, $2, $3)`,
			batch.UserID, batch.Species, start)
		return err
	})
	if err != nil {
		p.logger.Errorf("failed to replace active batch: %v", err)
		return internal.StorageError("replace batch", err)
	}
	return nil
}

func (p *PostgresStorage) GetActiveBatch(ctx context.Context, userID string) (*internal.ActiveBatch, error) {
	row := p.pool.QueryRow(ctx, `SELECT user_id, species, start_date FROM active_batches WHERE user_id = $1 LIMIT 1`, userID)
	var b internal.ActiveBatch
	var start time.Time
	if err := row.Scan(&b.UserID, &b.Species, &start); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		p.logger.Errorf("failed to read active batch: %v", err)
		return nil, internal.StorageError("get batch", err)
	}
	b.StartDate = internal.FormatDate(start)
	return &b, nil
}

func (p *PostgresStorage) ClearActiveBatch(ctx context.Context, userID string) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM active_batches WHERE user_id = $1`, userID)
		return err
	})
	if err != nil {
		p.logger.Errorf("failed to clear active batch: %v", err)
		return internal.StorageError("clear batch", err)
	}
	return nil
}

// CompleteActiveBatch holds the same advisory lock as ReplaceActiveBatch, so a start for the
// user either lands before the check or after the delete.
func (p *PostgresStorage) CompleteActiveBatch(ctx context.Context, rec *internal.CompletionRecord) error {
	date, err := dateParam(rec.CompletionDate)
	if err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	err = pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rec.UserID); err != nil {
			return err
		}
		var active *internal.ActiveBatch
		var species string
		err := tx.QueryRow(ctx, `SELECT species FROM active_batches WHERE user_id = $1 FOR UPDATE`, rec.UserID).Scan(&species)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return err
		default:
			active = &internal.ActiveBatch{UserID: rec.UserID, Species: species}
		}
		if err := checkCompletable(active, rec.Species); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO completed_batches (id, user_id, species, completion_date) VALUES ($1, $2, $3, $4)`,
			rec.ID, rec.UserID, rec.Species, date); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM active_batches WHERE user_id = $1`, rec.UserID)
		return err
	})
	switch internal.KindOf(err) {
	case "":
		return nil
	case internal.KindNotFound, internal.KindValidation:
		return err
	default:
		p.logger.Errorf("failed to complete active batch: %v", err)
		return internal.StorageError("complete batch", err)
	}
}

// --- GuideCatalog ---
func (p *PostgresStorage) ListSpecies(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT DISTINCT species FROM daily_guide ORDER BY species`)
	if err != nil {
		p.logger.Errorf("failed to list species: %v", err)
		return nil, internal.StorageError("list species", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, internal.StorageError("scan species", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (p *PostgresStorage) GetGuideDay(ctx context.Context, species string, day int) (*internal.GuideEntry, error) {
	row := p.pool.QueryRow(ctx, `SELECT species, day_number, water_check, feed_name, fertilizer, care_text, reference_link
		FROM daily_guide WHERE species = $1 AND day_number = $2 LIMIT 1`, species, day)
	var e internal.GuideEntry
	if err := row.Scan(&e.Species, &e.DayNumber, &e.WaterCheck, &e.FeedName, &e.Fertilizer, &e.CareText, &e.ReferenceLink); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		p.logger.Errorf("failed to read guide day: %v", err)
		return nil, internal.StorageError("get guide day", err)
	}
	return &e, nil
}

func (p *PostgresStorage) GetSpeciesInfo(ctx context.Context, species string) (*internal.SpeciesInfo, error) {
	row := p.pool.QueryRow(ctx, `SELECT species, summary, details, fertilizer, food, water FROM species_info WHERE species = $1`, species)
	var info internal.SpeciesInfo
	if err := row.Scan(&info.Species, &info.Summary, &info.Details, &info.Fertilizer, &info.Food, &info.Water); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, internal.StorageError("get species info", err)
	}
	return &info, nil
}

func (p *PostgresStorage) SeedGuide(ctx context.Context, entries []internal.GuideEntry, infos []internal.SpeciesInfo) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range entries {
			batch.Queue(`INSERT INTO daily_guide (species, day_number, water_check, feed_name, fertilizer, care_text, reference_link)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (species, day_number) DO UPDATE SET
					water_check = EXCLUDED.water_check, feed_name = EXCLUDED.feed_name,
					fertilizer = EXCLUDED.fertilizer, care_text = EXCLUDED.care_text,
					reference_link = EXCLUDED.reference_link`,
				e.Species, e.DayNumber, e.WaterCheck, e.FeedName, e.Fertilizer, e.CareText, e.ReferenceLink)
		}
		for _, info := range infos {
			batch.Queue(`INSERT INTO species_info (species, summary, details, fertilizer, food, water)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (species) DO UPDATE SET
					summary = EXCLUDED.summary, details = EXCLUDED.details, fertilizer = EXCLUDED.fertilizer,
					food = EXCLUDED.food, water = EXCLUDED.water`,
				info.Species, info.Summary, info.Details, info.Fertilizer, info.Food, info.Water)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		p.logger.Errorf("failed to seed guide: %v", err)
		return internal.StorageError("seed guide", err)
	}
	return nil
}

// --- FeedbackLog ---
func (p *PostgresStorage) AppendFeedback(ctx context.Context, rec *internal.FeedbackRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	var runStart any
	if rec.RunStartDate != "" {
		d, err := dateParam(rec.RunStartDate)
		if err != nil {
			return err
		}
		runStart = d
	}
	row := p.pool.QueryRow(ctx, `INSERT INTO daily_feedback (id, species, day_number, run_start_date, feedback_text)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		rec.ID, rec.Species, rec.DayNumber, runStart, rec.FeedbackText)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		p.logger.Errorf("failed to insert feedback: %v", err)
		return internal.StorageError("insert feedback", err)
	}
	return nil
}

func (p *PostgresStorage) ListFeedback(ctx context.Context, species, runStartDate string) ([]internal.FeedbackRecord, error) {
	var runStart any
	if runStartDate != "" {
		d, err := dateParam(runStartDate)
		if err != nil {
			return nil, err
		}
		runStart = d
	}
	rows, err := p.pool.Query(ctx, `SELECT id::text, species, day_number, run_start_date, feedback_text, created_at
		FROM daily_feedback
		WHERE species = $1 AND ($2::date IS NULL OR run_start_date = $2::date)
		ORDER BY day_number, seq`, species, runStart)
	if err != nil {
		p.logger.Errorf("failed to query feedback: %v", err)
		return nil, internal.StorageError("list feedback", err)
	}
	defer rows.Close()
	out := []internal.FeedbackRecord{}
	for rows.Next() {
		var f internal.FeedbackRecord
		var start *time.Time
		if err := rows.Scan(&f.ID, &f.Species, &f.DayNumber, &start, &f.FeedbackText, &f.CreatedAt); err != nil {
			return nil, internal.StorageError("scan feedback", err)
		}
		if start != nil {
			f.RunStartDate = internal.FormatDate(*start)
		}
		out = append(out, f)
	}
	return out, internal.StorageError("list feedback", rows.Err())
}

// --- CompletionArchive ---
func (p *PostgresStorage) ListCompletions(ctx context.Context, userID string) ([]internal.CompletionRecord, error) {
	rows, err := p.pool.Query(ctx, `SELECT id::text, user_id, species, completion_date FROM completed_batches
		WHERE user_id = $1 ORDER BY completion_date DESC, seq DESC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query completions: %v", err)
		return nil, internal.StorageError("list completions", err)
	}
	defer rows.Close()
	out := []internal.CompletionRecord{}
	for rows.Next() {
		var c internal.CompletionRecord
		var date time.Time
		if err := rows.Scan(&c.ID, &c.UserID, &c.Species, &date); err != nil {
			return nil, internal.StorageError("scan completion", err)
		}
		c.CompletionDate = internal.FormatDate(date)
		out = append(out, c)
	}
	return out, internal.StorageError("list completions", rows.Err())
}

// dateParam parses a YYYY-MM-DD string for a DATE column.
func dateParam(s string) (time.Time, error) {
	t, err := time.Parse(internal.DateLayout, s)
	if err != nil {
		return time.Time{}, internal.Validationf("invalid date %q", s)
	}
	return t, nil
}

// --- Compile-time assertions ---
var _ Store = (*PostgresStorage)(nil)
