package models

import (
	"errors"
	"time"
)

// PredictionResult is the estimate handed back to callers.
// PricePerCent is nil when the matched records average zero cents.
type PredictionResult struct {
	TotalPrice   float64  `json:"total_price"`
	PricePerCent *float64 `json:"price_per_cent"`
	AvgCents     float64  `json:"avg_cents"`
	District     string   `json:"district"` // display cased
	Locality     string   `json:"locality"` // display cased
}

// Estimate is a served prediction as kept in the estimate history.
type Estimate struct {
	ID           string    `json:"id"`
	District     string    `json:"district"`
	Locality     string    `json:"locality"`
	TotalPrice   float64   `json:"total_price"`
	PricePerCent *float64  `json:"price_per_cent,omitempty"`
	AvgCents     float64   `json:"avg_cents"`
	LogCatBoost  float64   `json:"log_catboost"`
	LogLightGBM  float64   `json:"log_lightgbm"`
	LogMeta      float64   `json:"log_meta"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks that all estimate fields are valid
func (e *Estimate) Validate() error {
	if e.ID == "" {
		return errors.New("estimate ID must not be empty")
	}
	if e.District == "" {
		return errors.New("district must not be empty")
	}
	if e.Locality == "" {
		return errors.New("locality must not be empty")
	}
	if e.AvgCents < 0 {
		return errors.New("avg cents must not be negative")
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created at must be set")
	}
	if e.CreatedAt.After(time.Now()) {
		return errors.New("created at must not be in the future")
	}
	return nil
}
