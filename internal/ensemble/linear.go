// Package ensemble combines the base learners' log-price predictions
// through a linear meta model, following stacked generalization: the meta
// model was fit on out-of-fold base predictions in log1p space, so its
// output is mapped back to a price with expm1.
package ensemble

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/rewired-gh/landoracle/internal/models"
)

// MetaName is the model name used in errors and metrics.
const MetaName = "meta"

// Linear is a two-input linear meta model (ridge regression weights).
type Linear struct {
	coef      [2]float64
	intercept float64
}

type linearArtifact struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// LoadLinear reads {"coef": [a, b], "intercept": c} from path. The input
// order is fixed: coef[0] weighs the CatBoost prediction, coef[1] LightGBM.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ModelLoadError{Model: MetaName, Path: path, Err: err}
	}

	var art linearArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, &models.ModelLoadError{Model: MetaName, Path: path, Err: fmt.Errorf("failed to decode artifact: %w", err)}
	}
	if len(art.Coef) != 2 {
		return nil, &models.ModelLoadError{Model: MetaName, Path: path, Err: fmt.Errorf("expected 2 coefficients, got %d", len(art.Coef))}
	}

	return NewLinear(art.Coef[0], art.Coef[1], art.Intercept), nil
}

// NewLinear builds a meta model from explicit weights.
func NewLinear(coefA, coefB, intercept float64) *Linear {
	return &Linear{coef: [2]float64{coefA, coefB}, intercept: intercept}
}

// Predict combines the two base log predictions into a log price.
func (l *Linear) Predict(logA, logB float64) float64 {
	return l.coef[0]*logA + l.coef[1]*logB + l.intercept
}

// ToPrice inverts the log1p target transform used at training time.
func ToPrice(logPrice float64) float64 {
	return math.Expm1(logPrice)
}

// ToLog applies the training-time target transform.
func ToLog(price float64) float64 {
	return math.Log1p(price)
}
