package learner

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rewired-gh/landoracle/internal/models"
)

// CatBoostName is the model name used in errors and metrics.
const CatBoostName = "catboost"

// Split types understood by the CatBoost learner.
const (
	splitFloat  = "FloatFeature"
	splitOneHot = "OneHotFeature"
)

// CatBoost evaluates a CatBoost oblivious-tree ensemble from a JSON artifact.
//
// The artifact is the layout written by save_model(format="json") with one
// conversion applied: a OneHotFeature split's "value" holds the raw category
// label instead of CatBoost's 32-bit category hash. Feature names come from
// features_info (feature_id, in flat_feature_index order), or from a
// top-level "feature_names" list when the converter writes one. Only
// FloatFeature and OneHotFeature splits are evaluated, so the model has to be
// trained with one_hot_max_size covering every categorical feature.
type CatBoost struct {
	trees []obliviousTree
	scale float64
	bias  float64

	catCols   []int
	floatCols []int
}

type obliviousTree struct {
	Splits     []obliviousSplit `json:"splits"`
	LeafValues []float64        `json:"leaf_values"`
}

type obliviousSplit struct {
	SplitType         string          `json:"split_type"`
	FloatFeatureIndex int             `json:"float_feature_index"`
	Border            float64         `json:"border"`
	CatFeatureIndex   int             `json:"cat_feature_index"`
	Value             json.RawMessage `json:"value"`

	label string
}

type catBoostFeature struct {
	FeatureID        string `json:"feature_id"`
	FlatFeatureIndex int    `json:"flat_feature_index"`
}

type catBoostFeaturesInfo struct {
	FloatFeatures       []catBoostFeature `json:"float_features"`
	CategoricalFeatures []catBoostFeature `json:"categorical_features"`
}

type catBoostArtifact struct {
	FeatureNames   []string             `json:"feature_names"`
	FeaturesInfo   catBoostFeaturesInfo `json:"features_info"`
	ObliviousTrees []obliviousTree      `json:"oblivious_trees"`
	ScaleAndBias   []json.RawMessage    `json:"scale_and_bias"`
}

// featureNames returns the artifact's features in flat order.
func (art catBoostArtifact) featureNames() ([]string, error) {
	if len(art.FeatureNames) > 0 {
		return art.FeatureNames, nil
	}

	info := art.FeaturesInfo
	n := len(info.FloatFeatures) + len(info.CategoricalFeatures)
	names := make([]string, n)
	place := func(f catBoostFeature, kind models.FeatureKind) error {
		if f.FlatFeatureIndex < 0 || f.FlatFeatureIndex >= n || names[f.FlatFeatureIndex] != "" {
			return fmt.Errorf("feature %q has invalid flat_feature_index %d", f.FeatureID, f.FlatFeatureIndex)
		}
		if f.FlatFeatureIndex < len(models.FeatureSchema) && models.FeatureSchema[f.FlatFeatureIndex].Kind != kind {
			return fmt.Errorf("feature %q at %d has the wrong kind", f.FeatureID, f.FlatFeatureIndex)
		}
		names[f.FlatFeatureIndex] = f.FeatureID
		return nil
	}
	for _, f := range info.FloatFeatures {
		if err := place(f, models.Numeric); err != nil {
			return nil, err
		}
	}
	for _, f := range info.CategoricalFeatures {
		if err := place(f, models.Categorical); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// LoadCatBoost reads a CatBoost JSON export from path.
func LoadCatBoost(path string) (*CatBoost, error) {
	var art catBoostArtifact
	if err := readArtifact(CatBoostName, path, &art); err != nil {
		return nil, err
	}

	m, err := newCatBoost(art)
	if err != nil {
		return nil, &models.ModelLoadError{Model: CatBoostName, Path: path, Err: err}
	}
	return m, nil
}

func newCatBoost(art catBoostArtifact) (*CatBoost, error) {
	names, err := art.featureNames()
	if err != nil {
		return nil, err
	}
	if err := checkSchema(names); err != nil {
		return nil, err
	}
	if len(art.ObliviousTrees) == 0 {
		return nil, errors.New("ensemble has no trees")
	}

	m := &CatBoost{trees: art.ObliviousTrees, scale: 1}
	m.catCols, m.floatCols = schemaColumns()

	if err := m.parseScaleAndBias(art.ScaleAndBias); err != nil {
		return nil, err
	}

	for i, tree := range m.trees {
		if want := 1 << len(tree.Splits); len(tree.LeafValues) != want {
			return nil, fmt.Errorf("tree %d: %d leaf values for %d splits, expected %d", i, len(tree.LeafValues), len(tree.Splits), want)
		}
		for j := range tree.Splits {
			s := &tree.Splits[j]
			switch s.SplitType {
			case splitFloat:
				if s.FloatFeatureIndex < 0 || s.FloatFeatureIndex >= len(m.floatCols) {
					return nil, fmt.Errorf("tree %d split %d: float feature index %d out of range", i, j, s.FloatFeatureIndex)
				}
			case splitOneHot:
				if s.CatFeatureIndex < 0 || s.CatFeatureIndex >= len(m.catCols) {
					return nil, fmt.Errorf("tree %d split %d: categorical feature index %d out of range", i, j, s.CatFeatureIndex)
				}
				if err := json.Unmarshal(s.Value, &s.label); err != nil {
					return nil, fmt.Errorf("tree %d split %d: one-hot value %s is not a category label (hashed values must be converted to labels)", i, j, string(s.Value))
				}
			default:
				return nil, fmt.Errorf("tree %d split %d: unsupported split type %q", i, j, s.SplitType)
			}
		}
	}

	return m, nil
}

// parseScaleAndBias decodes the [scale, [bias]] pair. Absent means 1 and 0.
func (m *CatBoost) parseScaleAndBias(raw []json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	if len(raw) != 2 {
		return fmt.Errorf("scale_and_bias must have 2 entries, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &m.scale); err != nil {
		return fmt.Errorf("invalid scale: %w", err)
	}
	var bias []float64
	if err := json.Unmarshal(raw[1], &bias); err != nil {
		return fmt.Errorf("invalid bias: %w", err)
	}
	if len(bias) > 1 {
		return fmt.Errorf("expected a single bias for regression, got %d", len(bias))
	}
	if len(bias) == 1 {
		m.bias = bias[0]
	}
	return nil
}

// Name implements Learner.
func (m *CatBoost) Name() string { return CatBoostName }

// Predict implements Learner.
func (m *CatBoost) Predict(fv models.FeatureVector) (float64, error) {
	var sum float64
	for _, tree := range m.trees {
		leaf := 0
		for bit, s := range tree.Splits {
			if m.splitTaken(fv, s) {
				leaf |= 1 << bit
			}
		}
		sum += tree.LeafValues[leaf]
	}
	return m.scale*sum + m.bias, nil
}

func (m *CatBoost) splitTaken(fv models.FeatureVector, s obliviousSplit) bool {
	if s.SplitType == splitOneHot {
		label, _ := fv.Categorical(m.catCols[s.CatFeatureIndex])
		return label == s.label
	}
	v, _ := fv.Numeric(m.floatCols[s.FloatFeatureIndex])
	return v > s.Border
}
