// Package models defines the domain entities of the land price estimator.
// These models describe historical valuation records, the feature vector the
// base learners were trained against, and the estimate returned to callers.
// Records carry built-in validation so malformed rows never reach the index.
//
// Terminology:
//   - District: the administrative district of a parcel.
//   - Locality: the sub-district locality (sub-registrar area) within a district.
//   - Cents: a South-Indian land-area unit used as the per-unit price denominator.
package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// HistoricalRecord is one row of the reference valuation dataset.
// District and Locality are stored normalized (see NormalizeKey); Location is
// kept exactly as it appears in the source.
type HistoricalRecord struct {
	District string  `json:"district" db:"district"`
	Locality string  `json:"locality" db:"locality"`
	Location string  `json:"location" db:"location"`
	AreaSqft float64 `json:"area_sqft" db:"area_sqft"`
	Cents    float64 `json:"cents" db:"cents"`
	PriceNum float64 `json:"price_num" db:"price_num"`
}

// Validate checks that all record fields are valid.
// Zero cents is accepted: the estimator reports price per cent as absent
// for such subsets instead of rejecting the dataset.
func (r *HistoricalRecord) Validate() error {
	if r.District == "" {
		return errors.New("district must not be empty")
	}
	if r.Locality == "" {
		return errors.New("locality must not be empty")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"area_sqft", r.AreaSqft}, {"cents", r.Cents}, {"price_num", r.PriceNum}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
	}
	if r.AreaSqft < 0 {
		return errors.New("area_sqft must not be negative")
	}
	if r.Cents < 0 {
		return errors.New("cents must not be negative")
	}
	if r.PriceNum < 0 {
		return errors.New("price_num must not be negative")
	}
	return nil
}

// NormalizeKey turns a district or locality into its lookup form:
// surrounding whitespace trimmed, lower-cased.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
