// Package learner implements inference for the two pretrained base
// regressors of the price ensemble. Both map a models.FeatureVector to a
// log-scale price. They share the vector schema but not its encoding: the
// CatBoost learner reads categorical labels as raw strings, the LightGBM
// learner first encodes them to the integer codes seen at training time.
//
// Learners are immutable after loading and safe for concurrent use.
package learner

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rewired-gh/landoracle/internal/models"
)

// Learner is a pretrained base regressor.
type Learner interface {
	// Predict returns the log-scale price for fv. fv is never mutated.
	Predict(fv models.FeatureVector) (float64, error)
	// Name identifies the learner in logs, metrics and errors.
	Name() string
}

// readArtifact decodes a JSON model artifact. Failures are reported as
// *models.ModelLoadError tagged with the model name.
func readArtifact(model, path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &models.ModelLoadError{Model: model, Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &models.ModelLoadError{Model: model, Path: path, Err: fmt.Errorf("failed to decode artifact: %w", err)}
	}
	return nil
}

// checkSchema verifies that an artifact was trained on exactly the feature
// schema the synthesizer produces, in the same order.
func checkSchema(names []string) error {
	want := models.FeatureNames()
	if len(names) != len(want) {
		return fmt.Errorf("artifact declares %d features, expected %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			return fmt.Errorf("feature %d is %q, expected %q", i, names[i], want[i])
		}
	}
	return nil
}

// schemaColumns splits the schema indexes by kind, preserving order.
// CatBoost addresses features by their position within each kind.
func schemaColumns() (categorical, numeric []int) {
	for i, f := range models.FeatureSchema {
		switch f.Kind {
		case models.Categorical:
			categorical = append(categorical, i)
		case models.Numeric:
			numeric = append(numeric, i)
		}
	}
	return categorical, numeric
}
