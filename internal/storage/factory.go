package storage

import (
	"context"
	"fmt"

	"github.com/yourname/aquaguide/internal"
	"github.com/yourname/aquaguide/internal/config"
)

func NewFileRepositories(dataDir string, logger internal.Logger) (Store, error) {
	return NewFileStorage(dataDir, logger)
}

func NewSQLiteRepositories(path string, logger internal.Logger) (Store, error) {
	return NewSQLiteStorage(path, logger)
}

func NewPostgresRepositories(ctx context.Context, dsn string, logger internal.Logger) (Store, error) {
	return NewPostgresStorage(ctx, dsn, logger)
}

// Open picks the backend named by cfg.DBType.
func Open(ctx context.Context, cfg *config.Config, logger internal.Logger) (Store, error) {
	switch cfg.DBType {
	case "file":
		return NewFileRepositories(cfg.DataDir, logger)
	case "sqlite":
		return NewSQLiteRepositories(cfg.SQLitePath, logger)
	case "postgres":
		return NewPostgresRepositories(ctx, cfg.DBDSN, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.DBType)
	}
}
