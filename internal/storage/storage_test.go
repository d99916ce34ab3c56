package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/aquaguide/internal"
	"github.com/yourname/aquaguide/internal/config"
)

type backend struct {
	name string
	open func(t *testing.T, dir string) Store
}

var backends = []backend{
	{"file", func(t *testing.T, dir string) Store {
		s, err := NewFileStorage(dir, internal.NopLogger())
		require.NoError(t, err)
		return s
	}},
	{"sqlite", func(t *testing.T, dir string) Store {
		s, err := NewSQLiteStorage(filepath.Join(dir, "test.db"), internal.NopLogger())
		require.NoError(t, err)
		return s
	}},
}

// Postgres joins the backend table when POSTGRES_TEST_DSN points at a disposable database.
// Its tables are truncated before every subtest.
func init() {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		return
	}
	backends = append(backends, backend{"postgres", func(t *testing.T, dir string) Store {
		ctx := context.Background()
		s, err := NewPostgresStorage(ctx, dsn, internal.NopLogger())
		require.NoError(t, err)
		_, err = s.pool.Exec(ctx, `TRUNCATE daily_guide, species_info, active_batches, daily_feedback, completed_batches`)
		require.NoError(t, err)
		return s
	}})
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, t.TempDir())
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func TestReplaceActiveBatch_Overwrites(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.ReplaceActiveBatch(ctx, &internal.ActiveBatch{UserID: "u1", Species: "Koi", StartDate: "2024-01-01"}))
		require.NoError(t, s.ReplaceActiveBatch(ctx, &internal.ActiveBatch{UserID: "u1", Species: "Tilapia", StartDate: "2024-02-01"}))

		got, err := s.GetActiveBatch(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, internal.ActiveBatch{UserID: "u1", Species: "Tilapia", StartDate: "2024-02-01"}, *got)

		other, err := s.GetActiveBatch(ctx, "u2")
		assert.NoError(t, err)
		assert.Nil(t, other)
	})
}

func TestClearActiveBatch_Idempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		assert.NoError(t, s.ClearActiveBatch(ctx, "u1"))
		require.NoError(t, s.ReplaceActiveBatch(ctx, &internal.ActiveBatch{UserID: "u1", Species: "Koi", StartDate: "2024-01-01"}))
		assert.NoError(t, s.ClearActiveBatch(ctx, "u1"))
		assert.NoError(t, s.ClearActiveBatch(ctx, "u1"))
		got, err := s.GetActiveBatch(ctx, "u1")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestReplaceActiveBatch_ConcurrentKeepsOneRow(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		species := []string{"Catla", "Koi", "Pangasius", "Shrimp", "Tilapia"}
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := s.ReplaceActiveBatch(ctx, &internal.ActiveBatch{UserID: "u1", Species: species[i%len(species)], StartDate: "2024-01-01"})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()
		got, err := s.GetActiveBatch(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Contains(t, species, got.Species)
	})
}

func TestCompleteActiveBatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		err := s.CompleteActiveBatch(ctx, &internal.CompletionRecord{UserID: "u1", Species: "Koi", CompletionDate: "2024-01-16"})
		assert.ErrorIs(t, err, internal.ErrNotFound)

		require.NoError(t, s.ReplaceActiveBatch(ctx, &internal.ActiveBatch{UserID: "u1", Species: "Koi", StartDate: "2024-01-01"}))
		err = s.CompleteActiveBatch(ctx, &internal.CompletionRecord{UserID: "u1", Species: "Tilapia", CompletionDate: "2024-01-16"})
		assert.ErrorIs(t, err, internal.ErrValidation)
		still, err := s.GetActiveBatch(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, still)

		rec := &internal.CompletionRecord{UserID: "u1", Species: "Koi", CompletionDate: "2024-01-16"}
		require.NoError(t, s.CompleteActiveBatch(ctx, rec))
		assert.NotEmpty(t, rec.ID)

		gone, err := s.GetActiveBatch(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, gone)
		done, err := s.ListCompletions(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, internal.CompletionRecord{ID: rec.ID, UserID: "u1", Species: "Koi", CompletionDate: "2024-01-16"}, done[0])
	})
}

// Whatever order a concurrent complete(Koi) and start(Tilapia) run in, the Tilapia batch ends
// up active and Koi is archived at most once.
func TestCompleteActiveBatch_RacingStartKeepsNewBatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		const users = 10
		for i := 0; i < users; i++ {
			uid := fmt.Sprintf("u%d", i)
			require.NoError(t, s.ReplaceActiveBatch(ctx, &internal.ActiveBatch{UserID: uid, Species: "Koi", StartDate: "2024-01-01"}))
		}
		var wg sync.WaitGroup
		for i := 0; i < users; i++ {
			uid := fmt.Sprintf("u%d", i)
			wg.Add(2)
			go func() {
				defer wg.Done()
				err := s.CompleteActiveBatch(ctx, &internal.CompletionRecord{UserID: uid, Species: "Koi", CompletionDate: "2024-01-16"})
				if err != nil {
					assert.ErrorIs(t, err, internal.ErrValidation)
				}
			}()
			go func() {
				defer wg.Done()
				assert.NoError(t, s.ReplaceActiveBatch(ctx, &internal.ActiveBatch{UserID: uid, Species: "Tilapia", StartDate: "2024-01-16"}))
			}()
		}
		wg.Wait()

		for i := 0; i < users; i++ {
			uid := fmt.Sprintf("u%d", i)
			active, err := s.GetActiveBatch(ctx, uid)
			require.NoError(t, err)
			require.NotNil(t, active, uid)
			assert.Equal(t, "Tilapia", active.Species, uid)
			done, err := s.ListCompletions(ctx, uid)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(done), 1, uid)
		}
	})
}

func seedCatalog(t *testing.T, s Store) {
	t.Helper()
	entries := []internal.GuideEntry{
		{Species: "Tilapia", DayNumber: 1, WaterCheck: "pH 6.5-8", FeedName: "starter crumble", CareText: "acclimatise fry"},
		{Species: "Koi", DayNumber: 1, WaterCheck: "pH 7-8", FeedName: "koi pellets"},
		{Species: "Koi", DayNumber: 2, WaterCheck: "pH 7-8", FeedName: "koi pellets", ReferenceLink: "https://example.com/koi/2"},
	}
	infos := []internal.SpeciesInfo{{Species: "Koi", Summary: "ornamental carp", Food: "pellets"}}
	require.NoError(t, s.SeedGuide(context.Background(), entries, infos))
}

func TestGuideCatalog(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		empty, err := s.ListSpecies(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)
		assert.NotNil(t, empty)

		seedCatalog(t, s)

		species, err := s.ListSpecies(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Koi", "Tilapia"}, species)

		day, err := s.GetGuideDay(ctx, "Koi", 2)
		require.NoError(t, err)
		require.NotNil(t, day)
		assert.Equal(t, "https://example.com/koi/2", day.ReferenceLink)

		missing, err := s.GetGuideDay(ctx, "Koi", 99)
		assert.NoError(t, err)
		assert.Nil(t, missing)

		info, err := s.GetSpeciesInfo(ctx, "Koi")
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "ornamental carp", info.Summary)

		none, err := s.GetSpeciesInfo(ctx, "Shrimp")
		assert.NoError(t, err)
		assert.Nil(t, none)
	})
}

func TestSeedGuide_ReplacesSameKey(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedCatalog(t, s)
		require.NoError(t, s.SeedGuide(ctx, []internal.GuideEntry{{Species: "Koi", DayNumber: 1, FeedName: "flakes"}}, nil))
		day, err := s.GetGuideDay(ctx, "Koi", 1)
		require.NoError(t, err)
		require.NotNil(t, day)
		assert.Equal(t, "flakes", day.FeedName)
	})
}

func TestFeedbackLog_AppendAndList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		records := []*internal.FeedbackRecord{
			{Species: "Koi", DayNumber: 3, RunStartDate: "2024-01-01", FeedbackText: "fish active and feeding"},
			{Species: "Koi", DayNumber: 1, RunStartDate: "2024-01-01", FeedbackText: "water cloudy"},
			{Species: "Koi", DayNumber: 3, RunStartDate: "2024-01-01", FeedbackText: "fish active and feeding"},
			{Species: "Koi", DayNumber: 2, RunStartDate: "2024-03-01", FeedbackText: "second run"},
			{Species: "Tilapia", DayNumber: 1, FeedbackText: "no run date"},
		}
		for _, r := range records {
			require.NoError(t, s.AppendFeedback(ctx, r))
			assert.NotEmpty(t, r.ID)
			assert.False(t, r.CreatedAt.IsZero())
		}

		run, err := s.ListFeedback(ctx, "Koi", "2024-01-01")
		require.NoError(t, err)
		require.Len(t, run, 3)
		assert.Equal(t, []int{1, 3, 3}, []int{run[0].DayNumber, run[1].DayNumber, run[2].DayNumber})
		assert.Equal(t, "2024-01-01", run[1].RunStartDate)

		all, err := s.ListFeedback(ctx, "Koi", "")
		require.NoError(t, err)
		assert.Len(t, all, 4)

		tilapia, err := s.ListFeedback(ctx, "Tilapia", "")
		require.NoError(t, err)
		require.Len(t, tilapia, 1)
		assert.Equal(t, "", tilapia[0].RunStartDate)
	})
}

func TestCompletionArchive_NewestFirst(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, c := range []internal.CompletionRecord{
			{UserID: "u1", Species: "Koi", CompletionDate: "2024-01-15"},
			{UserID: "u1", Species: "Tilapia", CompletionDate: "2024-03-02"},
			{UserID: "u2", Species: "Shrimp", CompletionDate: "2024-04-01"},
			{UserID: "u1", Species: "Catla", CompletionDate: "2024-02-10"},
			{UserID: "u1", Species: "Shrimp", CompletionDate: "2024-03-02"},
		} {
			rec := c
			require.NoError(t, s.ReplaceActiveBatch(ctx, &internal.ActiveBatch{UserID: rec.UserID, Species: rec.Species, StartDate: "2024-01-01"}))
			require.NoError(t, s.CompleteActiveBatch(ctx, &rec))
			assert.NotEmpty(t, rec.ID)
		}
		got, err := s.ListCompletions(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, got, 4)
		species := make([]string, len(got))
		for i, c := range got {
			species[i] = c.Species
		}
		assert.Equal(t, []string{"Shrimp", "Tilapia", "Catla", "Koi"}, species)

		none, err := s.ListCompletions(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestFileStorage_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, err := NewFileStorage(dir, internal.NopLogger())
	require.NoError(t, err)
	seedCatalog(t, s)
	require.NoError(t, s.ReplaceActiveBatch(ctx, &internal.ActiveBatch{UserID: "u1", Species: "Catla", StartDate: "2023-12-01"}))
	require.NoError(t, s.CompleteActiveBatch(ctx, &internal.CompletionRecord{UserID: "u1", Species: "Catla", CompletionDate: "2023-12-31"}))
	require.NoError(t, s.ReplaceActiveBatch(ctx, &internal.ActiveBatch{UserID: "u1", Species: "Koi", StartDate: "2024-01-01"}))
	require.NoError(t, s.AppendFeedback(ctx, &internal.FeedbackRecord{Species: "Koi", DayNumber: 1, RunStartDate: "2024-01-01", FeedbackText: "ok"}))
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	reopened, err := NewFileStorage(dir, internal.NopLogger())
	require.NoError(t, err)
	defer reopened.Close()

	b, err := reopened.GetActiveBatch(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "Koi", b.Species)

	fb, err := reopened.ListFeedback(ctx, "Koi", "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, fb, 1)

	done, err := reopened.ListCompletions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, done, 1)

	species, err := reopened.ListSpecies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Koi", "Tilapia"}, species)
}

func TestOpen_FileBackendCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := Open(context.Background(), &config.Config{DBType: "file", DataDir: dir}, internal.NopLogger())
	require.NoError(t, err)
	defer s.Close()
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = Open(context.Background(), &config.Config{DBType: "mysql"}, internal.NopLogger())
	assert.Error(t, err)
}

func TestSQLiteStorage_MigrateIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repeat.db")
	s, err := NewSQLiteStorage(path, internal.NopLogger())
	require.NoError(t, err)
	require.NoError(t, s.ReplaceActiveBatch(context.Background(), &internal.ActiveBatch{UserID: "u1", Species: "Koi", StartDate: "2024-01-01"}))
	require.NoError(t, s.Close())

	again, err := NewSQLiteStorage(path, internal.NopLogger())
	require.NoError(t, err)
	defer again.Close()
	b, err := again.GetActiveBatch(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "2024-01-01", b.StartDate)
}

func TestLoadMigrations(t *testing.T) {
	for _, dialect := range []string{"postgres", "sqlite"} {
		files, err := loadMigrations(dialect)
		require.NoError(t, err)
		require.NotEmpty(t, files)
		assert.Equal(t, "001_init.sql", files[0].name)
	}
	_, err := loadMigrations("mysql")
	assert.Error(t, err)
}
