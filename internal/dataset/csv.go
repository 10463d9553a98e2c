package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rewired-gh/landoracle/internal/models"
)

// RequiredColumns are the dataset columns the feature synthesizer reads.
var RequiredColumns = []string{"district", "locality", "location", "area_sqft", "cents", "price_num"}

// LoadCSV reads a headed CSV file into an Index. Columns may appear in any
// order and extra columns are ignored. Every failure is a *models.DataLoadError.
func LoadCSV(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.DataLoadError{Path: path, Err: err}
	}
	defer f.Close()

	records, err := readCSV(f)
	if err != nil {
		return nil, &models.DataLoadError{Path: path, Err: err}
	}

	return NewIndex(records), nil
}

func readCSV(r io.Reader) ([]models.HistoricalRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := columnPositions(header)
	if err != nil {
		return nil, err
	}

	var records []models.HistoricalRecord
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// columnPositions maps each required column to its position in header.
func columnPositions(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(RequiredColumns))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int) (models.HistoricalRecord, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	rec := models.HistoricalRecord{
		District: models.NormalizeKey(field("district")),
		Locality: models.NormalizeKey(field("locality")),
		Location: field("location"),
	}

	var err error
	if rec.AreaSqft, err = parseNumber("area_sqft", field("area_sqft")); err != nil {
		return rec, err
	}
	if rec.Cents, err = parseNumber("cents", field("cents")); err != nil {
		return rec, err
	}
	if rec.PriceNum, err = parseNumber("price_num", field("price_num")); err != nil {
		return rec, err
	}

	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("invalid record: %w", err)
	}
	return rec, nil
}

func parseNumber(col, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is empty", col)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", col, raw, err)
	}
	return v, nil
}
