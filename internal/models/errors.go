package models

import (
	"errors"
	"fmt"
)

// DataLoadError reports a missing or malformed reference dataset.
// It is fatal: the estimator cannot start without its dataset.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("failed to load dataset %s: %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// ModelLoadError reports a missing or corrupt model artifact.
// It is fatal: the estimator cannot start without all three models.
type ModelLoadError struct {
	Model string
	Path  string
	Err   error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load %s model %s: %v", e.Model, e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// NoMatchingRecordsError means the dataset has no record for the requested
// district and locality. It is local to one request and not retryable.
type NoMatchingRecordsError struct {
	District string
	Locality string
}

func (e *NoMatchingRecordsError) Error() string {
	return fmt.Sprintf("no records found for district='%s', locality='%s'", e.District, e.Locality)
}

// IsNoMatch reports whether err carries a NoMatchingRecordsError.
func IsNoMatch(err error) bool {
	var nm *NoMatchingRecordsError
	return errors.As(err, &nm)
}
