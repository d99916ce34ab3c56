// Command seed-guide loads the species curriculum from a YAML file into the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/yourname/aquaguide/internal"
	"github.com/yourname/aquaguide/internal/config"
	"github.com/yourname/aquaguide/internal/storage"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	SpeciesInfo []internal.SpeciesInfo `yaml:"species_info"`
	Guide       []internal.GuideEntry  `yaml:"guide"`
}

func loadCatalog(path string) (*catalogFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat catalogFile
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	seen := make(map[string]bool, len(cat.Guide))
	for i, e := range cat.Guide {
		if e.Species == "" || e.DayNumber < 1 {
			return nil, fmt.Errorf("guide entry %d: species and day >= 1 are required", i)
		}
		key := fmt.Sprintf("%s/%d", e.Species, e.DayNumber)
		if seen[key] {
			return nil, fmt.Errorf("guide entry %d: duplicate %s day %d", i, e.Species, e.DayNumber)
		}
		seen[key] = true
	}
	for i, info := range cat.SpeciesInfo {
		if info.Species == "" {
			return nil, fmt.Errorf("species_info entry %d: species is required", i)
		}
	}
	return &cat, nil
}

func main() {
	path := flag.String("file", "data/guide.example.yaml", "YAML catalog to load")
	flag.Parse()

	cfg := config.Load()
	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	cat, err := loadCatalog(*path)
	if err != nil {
		logger.Fatalf("failed to load catalog: %v", err)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer store.Close()

	if err := store.SeedGuide(ctx, cat.Guide, cat.SpeciesInfo); err != nil {
		_ = store.Close()
		logger.Fatalf("seed failed: %v", err)
	}
	logger.Infof("seeded %d guide entries and %d species from %s", len(cat.Guide), len(cat.SpeciesInfo), *path)
}
