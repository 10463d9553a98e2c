// Package storage keeps the history of served estimates in a SQLite
// database. The history is bounded: RotateEstimates trims it to the newest
// maxEstimates rows, mirroring how the service caps every store it owns.
//
// The database handle is pinned to a single connection, so a Storage can be
// shared between the prediction service, the bot and the CLI without extra
// locking.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/rewired-gh/landoracle/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS estimates (
	id             TEXT PRIMARY KEY,
	district       TEXT NOT NULL,
	locality       TEXT NOT NULL,
	total_price    REAL NOT NULL,
	price_per_cent REAL,
	avg_cents      REAL NOT NULL,
	log_catboost   REAL NOT NULL,
	log_lightgbm   REAL NOT NULL,
	log_meta       REAL NOT NULL,
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS estimates_created_at ON estimates (created_at);
`

// ErrNotFound is returned when an estimate ID is not in the history.
var ErrNotFound = errors.New("estimate not found")

// Storage is the estimate history.
type Storage struct {
	db           *sqlx.DB
	maxEstimates int
}

// estimateRow is the on-disk shape of models.Estimate. Timestamps are
// stored as unix nanoseconds so ordering is a plain integer compare.
type estimateRow struct {
	ID           string          `db:"id"`
	District     string          `db:"district"`
	Locality     string          `db:"locality"`
	TotalPrice   float64         `db:"total_price"`
	PricePerCent sql.NullFloat64 `db:"price_per_cent"`
	AvgCents     float64         `db:"avg_cents"`
	LogCatBoost  float64         `db:"log_catboost"`
	LogLightGBM  float64         `db:"log_lightgbm"`
	LogMeta      float64         `db:"log_meta"`
	CreatedAt    int64           `db:"created_at"`
}

// New opens (creating if needed) the history database at dbPath.
func New(dbPath string, maxEstimates int) (*Storage, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open estimate history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create estimate history schema: %w", err)
	}

	return &Storage{db: db, maxEstimates: maxEstimates}, nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

// AddEstimate appends an estimate to the history.
func (s *Storage) AddEstimate(ctx context.Context, e *models.Estimate) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid estimate: %w", err)
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO estimates (id, district, locality, total_price, price_per_cent, avg_cents,
			log_catboost, log_lightgbm, log_meta, created_at)
		VALUES (:id, :district, :locality, :total_price, :price_per_cent, :avg_cents,
			:log_catboost, :log_lightgbm, :log_meta, :created_at)`, toRow(e))
	if err != nil {
		return fmt.Errorf("failed to insert estimate %s: %w", e.ID, err)
	}
	return nil
}

// GetEstimate retrieves an estimate by ID.
func (s *Storage) GetEstimate(ctx context.Context, id string) (*models.Estimate, error) {
	var row estimateRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM estimates WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read estimate %s: %w", id, err)
	}
	e := row.toEstimate()
	return &e, nil
}

// RecentEstimates returns up to limit estimates, newest first.
func (s *Storage) RecentEstimates(ctx context.Context, limit int) ([]models.Estimate, error) {
	if limit <= 0 {
		return []models.Estimate{}, nil
	}

	var rows []estimateRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM estimates ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}

	estimates := make([]models.Estimate, 0, len(rows))
	for _, row := range rows {
		estimates = append(estimates, row.toEstimate())
	}
	return estimates, nil
}

// CountEstimates returns the number of estimates in the history.
func (s *Storage) CountEstimates(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM estimates`); err != nil {
		return 0, fmt.Errorf("failed to count estimates: %w", err)
	}
	return n, nil
}

// RotateEstimates removes the oldest estimates exceeding the max limit.
func (s *Storage) RotateEstimates(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM estimates WHERE id NOT IN (
			SELECT id FROM estimates ORDER BY created_at DESC, id DESC LIMIT ?
		)`, s.maxEstimates)
	if err != nil {
		return fmt.Errorf("failed to rotate estimates: %w", err)
	}
	return nil
}

func toRow(e *models.Estimate) estimateRow {
	row := estimateRow{
		ID:          e.ID,
		District:    e.District,
		Locality:    e.Locality,
		TotalPrice:  e.TotalPrice,
		AvgCents:    e.AvgCents,
		LogCatBoost: e.LogCatBoost,
		LogLightGBM: e.LogLightGBM,
		LogMeta:     e.LogMeta,
		CreatedAt:   e.CreatedAt.UnixNano(),
	}
	if e.PricePerCent != nil {
		row.PricePerCent = sql.NullFloat64{Float64: *e.PricePerCent, Valid: true}
	}
	return row
}

func (r estimateRow) toEstimate() models.Estimate {
	e := models.Estimate{
		ID:          r.ID,
		District:    r.District,
		Locality:    r.Locality,
		TotalPrice:  r.TotalPrice,
		AvgCents:    r.AvgCents,
		LogCatBoost: r.LogCatBoost,
		LogLightGBM: r.LogLightGBM,
		LogMeta:     r.LogMeta,
		CreatedAt:   time.Unix(0, r.CreatedAt),
	}
	if r.PricePerCent.Valid {
		v := r.PricePerCent.Float64
		e.PricePerCent = &v
	}
	return e
}
