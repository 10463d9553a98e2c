package dataset

import (
	"context"
	"fmt"

	"github.com/rewired-gh/landoracle/internal/config"
	"github.com/rewired-gh/landoracle/internal/models"
)

// Load builds the index from the source named in cfg.
func Load(ctx context.Context, cfg config.DatasetConfig) (*Index, error) {
	switch cfg.Source {
	case config.SourceCSV:
		return LoadCSV(cfg.Path)
	case config.SourceSQLite:
		return LoadSQL(ctx, "sqlite", cfg.Path, cfg.Table)
	case config.SourcePostgres:
		return LoadSQL(ctx, "postgres", cfg.DSN, cfg.Table)
	default:
		return nil, &models.DataLoadError{Path: cfg.Path, Err: fmt.Errorf("unknown dataset source %q", cfg.Source)}
	}
}
