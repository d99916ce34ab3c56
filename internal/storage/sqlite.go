package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/aquaguide/internal"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStorage is the embedded backend. The pool is capped at one connection, so every
// statement and transaction is serialised.
type SQLiteStorage struct {
	db     *sql.DB
	logger internal.Logger
}

func NewSQLiteStorage(dbPath string, logger internal.Logger) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, internal.StorageError("open", errors.New("empty db path"))
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, internal.StorageError("create db dir", err)
	}
	dsn := "file:" + dbPath + "?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Errorf("failed to open sqlite: %v", err)
		return nil, internal.StorageError("open", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, internal.StorageError("ping", err)
	}
	s := &SQLiteStorage{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		logger.Errorf("failed to migrate sqlite: %v", err)
		return nil, internal.StorageError("migrate", err)
	}
	return s, nil
}

func (s *SQLiteStorage) migrate(ctx context.Context) error {
	files, err := loadMigrations("sqlite")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	for _, mf := range files {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, mf.name).Scan(&n); err != nil {
			return fmt.Errorf("check migration %s: %w", mf.name, err)
		}
		if n > 0 {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", mf.name, err)
		}
		if _, err := tx.ExecContext(ctx, string(mf.data)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", mf.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES (?)`, mf.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", mf.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", mf.name, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return internal.StorageError("close", s.db.Close())
}

// --- BatchRepository ---
func (s *SQLiteStorage) ReplaceActiveBatch(ctx context.Context, batch *internal.ActiveBatch) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internal.StorageError("begin replace batch", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM active_batches WHERE user_id = ?`, batch.UserID); err != nil {
		s.logger.Errorf("failed to delete active batch: %v", err)
		return internal.StorageError("delete batch", err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO active_batches (user_id, species, start_date) VALUES (?, ?, ?)`,
		batch.UserID, batch.Species, batch.StartDate); err != nil {
		s.logger.Errorf("failed to insert active batch: %v", err)
		return internal.StorageError("insert batch", err)
	}
	if err = tx.Commit(); err != nil {
		return internal.StorageError("commit replace batch", err)
	}
	return nil
}

func (s *SQLiteStorage) GetActiveBatch(ctx context.Context, userID string) (*internal.ActiveBatch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT user_id, species, start_date FROM active_batches WHERE user_id = ? LIMIT 1`, userID)
	var b internal.ActiveBatch
	var start any
	if err := row.Scan(&b.UserID, &b.Species, &start); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Errorf("failed to read active batch: %v", err)
		return nil, internal.StorageError("get batch", err)
	}
	d, err := internal.NormalizeDate(start)
	if err != nil {
		return nil, internal.StorageError("decode start_date", err)
	}
	b.StartDate = d
	return &b, nil
}

func (s *SQLiteStorage) ClearActiveBatch(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM active_batches WHERE user_id = ?`, userID); err != nil {
		s.logger.Errorf("failed to clear active batch: %v", err)
		return internal.StorageError("clear batch", err)
	}
	return nil
}

// CompleteActiveBatch runs in one transaction; the single-connection pool keeps any other
// statement for the user out until it commits.
func (s *SQLiteStorage) CompleteActiveBatch(ctx context.Context, rec *internal.CompletionRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internal.StorageError("begin complete batch", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	var active *internal.ActiveBatch
	var species string
	err = tx.QueryRowContext(ctx, `SELECT species FROM active_batches WHERE user_id = ?`, rec.UserID).Scan(&species)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		s.logger.Errorf("failed to read active batch: %v", err)
		return internal.StorageError("get batch", err)
	default:
		active = &internal.ActiveBatch{UserID: rec.UserID, Species: species}
	}
	if err = checkCompletable(active, rec.Species); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO completed_batches (id, user_id, species, completion_date) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Species, rec.CompletionDate); err != nil {
		s.logger.Errorf("failed to insert completion: %v", err)
		return internal.StorageError("insert completion", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM active_batches WHERE user_id = ?`, rec.UserID); err != nil {
		s.logger.Errorf("failed to delete active batch: %v", err)
		return internal.StorageError("delete batch", err)
	}
	if err = tx.Commit(); err != nil {
		return internal.StorageError("commit complete batch", err)
	}
	return nil
}

// --- GuideCatalog ---
func (s *SQLiteStorage) ListSpecies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT species FROM daily_guide ORDER BY species`)
	if err != nil {
		s.logger.Errorf("failed to list species: %v", err)
		return nil, internal.StorageError("list species", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var sp string
		if err := rows.Scan(&sp); err != nil {
			return nil, internal.StorageError("scan species", err)
		}
		out = append(out, sp)
	}
	return out, internal.StorageError("list species", rows.Err())
}

func (s *SQLiteStorage) GetGuideDay(ctx context.Context, species string, day int) (*internal.GuideEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT species, day_number, water_check, feed_name, fertilizer, care_text, reference_link
		FROM daily_guide WHERE species = ? AND day_number = ? LIMIT 1`, species, day)
	var e internal.GuideEntry
	if err := row.Scan(&e.Species, &e.DayNumber, &e.WaterCheck, &e.FeedName, &e.Fertilizer, &e.CareText, &e.ReferenceLink); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Errorf("failed to read guide day: %v", err)
		return nil, internal.StorageError("get guide day", err)
	}
	return &e, nil
}

func (s *SQLiteStorage) GetSpeciesInfo(ctx context.Context, species string) (*internal.SpeciesInfo, error) {
	row := s.db.QueryRowContext(ctx, `SELECT species, summary, details, fertilizer, food, water FROM species_info WHERE species = ?`, species)
	var info internal.SpeciesInfo
	if err := row.Scan(&info.Species, &info.Summary, &info.Details, &info.Fertilizer, &info.Food, &info.Water); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, internal.StorageError("get species info", err)
	}
	return &info, nil
}

func (s *SQLiteStorage) SeedGuide(ctx context.Context, entries []internal.GuideEntry, infos []internal.SpeciesInfo) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internal.StorageError("begin seed", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, e := range entries {
		if _, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO daily_guide
			(species, day_number, water_check, feed_name, fertilizer, care_text, reference_link)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.Species, e.DayNumber, e.WaterCheck, e.FeedName, e.Fertilizer, e.CareText, e.ReferenceLink); err != nil {
			return internal.StorageError("seed guide entry", err)
		}
	}
	for _, info := range infos {
		if _, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO species_info (species, summary, details, fertilizer, food, water)
			VALUES (?, ?, ?, ?, ?, ?)`,
			info.Species, info.Summary, info.Details, info.Fertilizer, info.Food, info.Water); err != nil {
			return internal.StorageError("seed species info", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return internal.StorageError("commit seed", err)
	}
	return nil
}

// --- FeedbackLog ---
func (s *SQLiteStorage) AppendFeedback(ctx context.Context, rec *internal.FeedbackRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO daily_feedback (id, species, day_number, run_start_date, feedback_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Species, rec.DayNumber, rec.RunStartDate, rec.FeedbackText, rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Errorf("failed to insert feedback: %v", err)
		return internal.StorageError("insert feedback", err)
	}
	return nil
}

func (s *SQLiteStorage) ListFeedback(ctx context.Context, species, runStartDate string) ([]internal.FeedbackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, species, day_number, run_start_date, feedback_text, created_at
		FROM daily_feedback
		WHERE species = ? AND (? = '' OR run_start_date = ?)
		ORDER BY day_number, rowid`, species, runStartDate, runStartDate)
	if err != nil {
		s.logger.Errorf("failed to query feedback: %v", err)
		return nil, internal.StorageError("list feedback", err)
	}
	defer rows.Close()
	out := []internal.FeedbackRecord{}
	for rows.Next() {
		var f internal.FeedbackRecord
		var runStart, created any
		if err := rows.Scan(&f.ID, &f.Species, &f.DayNumber, &runStart, &f.FeedbackText, &created); err != nil {
			return nil, internal.StorageError("scan feedback", err)
		}
		if f.RunStartDate, err = internal.NormalizeDate(runStart); err != nil {
			return nil, internal.StorageError("decode run_start_date", err)
		}
		if f.CreatedAt, err = decodeTimestamp(created); err != nil {
			return nil, internal.StorageError("decode created_at", err)
		}
		out = append(out, f)
	}
	return out, internal.StorageError("list feedback", rows.Err())
}

// --- CompletionArchive ---
func (s *SQLiteStorage) ListCompletions(ctx context.Context, userID string) ([]internal.CompletionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, species, completion_date FROM completed_batches
		WHERE user_id = ? ORDER BY completion_date DESC, seq DESC`, userID)
	if err != nil {
		s.logger.Errorf("failed to query completions: %v", err)
		return nil, internal.StorageError("list completions", err)
	}
	defer rows.Close()
	out := []internal.CompletionRecord{}
	for rows.Next() {
		var c internal.CompletionRecord
		var date any
		if err := rows.Scan(&c.ID, &c.UserID, &c.Species, &date); err != nil {
			return nil, internal.StorageError("scan completion", err)
		}
		if c.CompletionDate, err = internal.NormalizeDate(date); err != nil {
			return nil, internal.StorageError("decode completion_date", err)
		}
		out = append(out, c)
	}
	return out, internal.StorageError("list completions", rows.Err())
}

func decodeTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp %T", v)
	}
}

// --- Compile-time assertions ---
var _ Store = (*SQLiteStorage)(nil)
