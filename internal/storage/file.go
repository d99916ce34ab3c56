package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/aquaguide/internal"
)

type guideKey struct {
	species string
	day     int
}

type guideFile struct {
	Entries []*internal.GuideEntry  `json:"entries"`
	Species []*internal.SpeciesInfo `json:"species"`
}

// FileStorage keeps everything in memory and persists each collection to its own JSON file.
// Writes are debounced by one worker per file; Close flushes synchronously.
type FileStorage struct {
	batches         map[string]*internal.ActiveBatch        // userID -> batch
	feedback        []*internal.FeedbackRecord              // insertion order
	completions     []*internal.CompletionRecord            // insertion order
	userCompletions map[string][]*internal.CompletionRecord // userID -> newest first
	guide           map[guideKey]*internal.GuideEntry
	species         map[string]*internal.SpeciesInfo
	mu              sync.RWMutex

	batchesFile     string
	feedbackFile    string
	completionsFile string
	guideFile       string

	saveBatchesChan     chan struct{}
	saveFeedbackChan    chan struct{}
	saveCompletionsChan chan struct{}
	shutdownChan        chan struct{}
	saveDelay           time.Duration
	closeOnce           sync.Once
	wg                  sync.WaitGroup
	logger              internal.Logger
}

func NewFileStorage(dataDir string, logger internal.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logger.Errorf("storage: failed to create data dir: %v", err)
		return nil, internal.StorageError("create data dir", err)
	}
	s := &FileStorage{
		batches:             make(map[string]*internal.ActiveBatch),
		userCompletions:     make(map[string][]*internal.CompletionRecord),
		guide:               make(map[guideKey]*internal.GuideEntry),
		species:             make(map[string]*internal.SpeciesInfo),
		batchesFile:         filepath.Join(dataDir, "batches.json"),
		feedbackFile:        filepath.Join(dataDir, "feedback.json"),
		completionsFile:     filepath.Join(dataDir, "completions.json"),
		guideFile:           filepath.Join(dataDir, "guide.json"),
		saveBatchesChan:     make(chan struct{}, 1),
		saveFeedbackChan:    make(chan struct{}, 1),
		saveCompletionsChan: make(chan struct{}, 1),
		shutdownChan:        make(chan struct{}),
		saveDelay:           500 * time.Millisecond,
		logger:              logger,
	}

	if err := s.load(); err != nil {
		logger.Errorf("storage: failed to load data files: %v", err)
		return nil, internal.StorageError("load", err)
	}

	s.startWorker("batches", s.saveBatchesChan, s.saveBatches)
	s.startWorker("feedback", s.saveFeedbackChan, s.saveFeedback)
	s.startWorker("completions", s.saveCompletionsChan, s.saveCompletions)

	return s, nil
}

// readJSON decodes path into v. A missing or empty file is not an error.
func readJSON(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (s *FileStorage) load() error {
	var batches []*internal.ActiveBatch
	if err := readJSON(s.batchesFile, &batches); err != nil {
		return err
	}
	var feedback []*internal.FeedbackRecord
	if err := readJSON(s.feedbackFile, &feedback); err != nil {
		return err
	}
	var completions []*internal.CompletionRecord
	if err := readJSON(s.completionsFile, &completions); err != nil {
		return err
	}
	var guide guideFile
	if err := readJSON(s.guideFile, &guide); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range batches {
		s.batches[b.UserID] = b
	}
	s.feedback = feedback
	for _, c := range completions {
		s.indexCompletion(c)
	}
	for _, e := range guide.Entries {
		s.guide[guideKey{e.Species, e.DayNumber}] = e
	}
	for _, info := range guide.Species {
		s.species[info.Species] = info
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveBatches() error {
	s.mu.RLock()
	batches := make([]*internal.ActiveBatch, 0, len(s.batches))
	for _, b := range s.batches {
		batches = append(batches, b)
	}
	s.mu.RUnlock()
	sort.Slice(batches, func(i, j int) bool { return batches[i].UserID < batches[j].UserID })
	return atomicWriteFileJSON(s.batchesFile, batches)
}

func (s *FileStorage) saveFeedback() error {
	s.mu.RLock()
	feedback := append(make([]*internal.FeedbackRecord, 0, len(s.feedback)), s.feedback...)
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.feedbackFile, feedback)
}

func (s *FileStorage) saveCompletions() error {
	s.mu.RLock()
	completions := append(make([]*internal.CompletionRecord, 0, len(s.completions)), s.completions...)
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.completionsFile, completions)
}

func (s *FileStorage) saveGuide() error {
	s.mu.RLock()
	out := guideFile{
		Entries: make([]*internal.GuideEntry, 0, len(s.guide)),
		Species: make([]*internal.SpeciesInfo, 0, len(s.species)),
	}
	for _, e := range s.guide {
		out.Entries = append(out.Entries, e)
	}
	for _, info := range s.species {
		out.Species = append(out.Species, info)
	}
	s.mu.RUnlock()
	sort.Slice(out.Entries, func(i, j int) bool {
		if out.Entries[i].Species != out.Entries[j].Species {
			return out.Entries[i].Species < out.Entries[j].Species
		}
		return out.Entries[i].DayNumber < out.Entries[j].DayNumber
	})
	sort.Slice(out.Species, func(i, j int) bool { return out.Species[i].Species < out.Species[j].Species })
	return atomicWriteFileJSON(s.guideFile, out)
}

// startWorker batches save operations for one file to avoid frequent disk writes.
func (s *FileStorage) startWorker(name string, signal <-chan struct{}, save func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(s.saveDelay)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-signal:
				timer.Reset(s.saveDelay)
			case <-timer.C:
				if err := save(); err != nil {
					s.logger.Errorf("storage: error saving %s: %v", name, err)
				}
			case <-s.shutdownChan:
				return
			}
		}
	}()
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
		s.wg.Wait()

		// Save pending data synchronously on shutdown
		for _, save := range []func() error{s.saveBatches, s.saveFeedback, s.saveCompletions} {
			if e := save(); e != nil && err == nil {
				err = internal.StorageError("flush", e)
			}
		}
	})
	return err
}

// --- BatchRepository ---
func (s *FileStorage) ReplaceActiveBatch(ctx context.Context, batch *internal.ActiveBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, batch.UserID)
	b := *batch
	s.batches[batch.UserID] = &b
	notify(s.saveBatchesChan)
	return nil
}

func (s *FileStorage) GetActiveBatch(ctx context.Context, userID string) (*internal.ActiveBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[userID]
	if !ok {
		return nil, nil
	}
	out := *b
	return &out, nil
}

func (s *FileStorage) ClearActiveBatch(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[userID]; !ok {
		return nil
	}
	delete(s.batches, userID)
	notify(s.saveBatchesChan)
	return nil
}

func (s *FileStorage) CompleteActiveBatch(ctx context.Context, rec *internal.CompletionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCompletable(s.batches[rec.UserID], rec.Species); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	r := *rec
	s.indexCompletion(&r)
	delete(s.batches, rec.UserID)
	notify(s.saveCompletionsChan)
	notify(s.saveBatchesChan)
	return nil
}

// --- GuideCatalog ---
func (s *FileStorage) ListSpecies(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for k := range s.guide {
		seen[k.species] = struct{}{}
	}
	s.mu.RUnlock()
	out := make([]string, 0, len(seen))
	for sp := range seen {
		out = append(out, sp)
	}
	sort.Strings(out)
	return out, nil
}

func (s *FileStorage) GetGuideDay(ctx context.Context, species string, day int) (*internal.GuideEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.guide[guideKey{species, day}]
	if !ok {
		return nil, nil
	}
	out := *e
	return &out, nil
}

func (s *FileStorage) GetSpeciesInfo(ctx context.Context, species string) (*internal.SpeciesInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.species[species]
	if !ok {
		return nil, nil
	}
	out := *info
	return &out, nil
}

func (s *FileStorage) SeedGuide(ctx context.Context, entries []internal.GuideEntry, infos []internal.SpeciesInfo) error {
	s.mu.Lock()
	for i := range entries {
		e := entries[i]
		s.guide[guideKey{e.Species, e.DayNumber}] = &e
	}
	for i := range infos {
		info := infos[i]
		s.species[info.Species] = &info
	}
	s.mu.Unlock()
	return internal.StorageError("save guide", s.saveGuide())
}

// --- FeedbackLog ---
func (s *FileStorage) AppendFeedback(ctx context.Context, rec *internal.FeedbackRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *rec
	s.feedback = append(s.feedback, &r)
	notify(s.saveFeedbackChan)
	return nil
}

func (s *FileStorage) ListFeedback(ctx context.Context, species, runStartDate string) ([]internal.FeedbackRecord, error) {
	s.mu.RLock()
	out := []internal.FeedbackRecord{}
	for _, f := range s.feedback {
		if f.Species != species {
			continue
		}
		if runStartDate != "" && f.RunStartDate != runStartDate {
			continue
		}
		out = append(out, *f)
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })
	return out, nil
}

// --- CompletionArchive ---

// indexCompletion must be called with mu held. Ties on date put the newer insert first.
func (s *FileStorage) indexCompletion(rec *internal.CompletionRecord) {
	s.completions = append(s.completions, rec)
	list := s.userCompletions[rec.UserID]
	i := sort.Search(len(list), func(i int) bool { return list[i].CompletionDate <= rec.CompletionDate })
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = rec
	s.userCompletions[rec.UserID] = list
}

func (s *FileStorage) ListCompletions(ctx context.Context, userID string) ([]internal.CompletionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.userCompletions[userID]
	out := make([]internal.CompletionRecord, len(list))
	for i, c := range list {
		out[i] = *c
	}
	return out, nil
}

// --- Compile-time assertions ---
var _ Store = (*FileStorage)(nil)
