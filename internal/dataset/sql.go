package dataset

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	// Postgres driver for dataset.source=postgres.
	_ "github.com/lib/pq"
	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/rewired-gh/landoracle/internal/models"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// LoadSQL reads the dataset from table through the given database/sql
// driver ("sqlite" or "postgres"). Rows go through the same normalization
// and validation as LoadCSV. Every failure is a *models.DataLoadError.
func LoadSQL(ctx context.Context, driver, dsn, table string) (*Index, error) {
	source := dataSource(driver, dsn)
	if !tableName.MatchString(table) {
		return nil, &models.DataLoadError{Path: source, Err: fmt.Errorf("invalid table name %q", table)}
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, &models.DataLoadError{Path: source, Err: fmt.Errorf("failed to connect: %w", err)}
	}
	defer db.Close()

	return loadFromDB(ctx, db, source, table)
}

// dataSource names a connection for errors and logs. Postgres DSNs are
// reduced to host and database so credentials never reach the logs.
func dataSource(driver, dsn string) string {
	if driver != "postgres" {
		return dsn
	}

	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		return u.Host + u.Path
	}

	// key=value form, e.g. "host=db user=land password=secret dbname=land"
	var host, dbname string
	for _, field := range strings.Fields(dsn) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, "'")
		switch key {
		case "host":
			host = value
		case "dbname":
			dbname = value
		}
	}
	return host + "/" + dbname
}

func loadFromDB(ctx context.Context, db *sqlx.DB, source, table string) (*Index, error) {
	query := fmt.Sprintf(`
		SELECT
			district,
			locality,
			COALESCE(location, '') AS location,
			area_sqft,
			cents,
			price_num
		FROM %s`, table)

	var rows []models.HistoricalRecord
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, &models.DataLoadError{Path: source, Err: fmt.Errorf("failed to query %s: %w", table, err)}
	}

	for i := range rows {
		rows[i].District = models.NormalizeKey(rows[i].District)
		rows[i].Locality = models.NormalizeKey(rows[i].Locality)
		if err := rows[i].Validate(); err != nil {
			return nil, &models.DataLoadError{Path: source, Err: fmt.Errorf("row %d: invalid record: %w", i+1, err)}
		}
	}

	return NewIndex(rows), nil
}
