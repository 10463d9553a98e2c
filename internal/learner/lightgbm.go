package learner

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rewired-gh/landoracle/internal/models"
)

// LightGBMName is the model name used in errors and metrics.
const LightGBMName = "lightgbm"

// zeroThreshold is LightGBM's kZeroThreshold: values this close to zero
// count as zero for missing_type "Zero".
const zeroThreshold = 1e-35

// LightGBM evaluates a LightGBM tree ensemble exported with dump_model.
// Categorical labels are encoded to their training-time pandas category
// codes before traversal; labels unseen in training encode to NaN.
type LightGBM struct {
	trees []*lgbNode

	// Per categorical schema column: label -> category code.
	codes map[int]map[string]int
}

type lgbNode struct {
	SplitFeature *int            `json:"split_feature"`
	Threshold    json.RawMessage `json:"threshold"`
	DecisionType string          `json:"decision_type"`
	DefaultLeft  bool            `json:"default_left"`
	MissingType  string          `json:"missing_type"`
	LeftChild    *lgbNode        `json:"left_child"`
	RightChild   *lgbNode        `json:"right_child"`
	LeafValue    *float64        `json:"leaf_value"`

	threshold  float64
	categories map[int]bool
}

type lgbTreeInfo struct {
	TreeStructure *lgbNode `json:"tree_structure"`
}

type lightGBMArtifact struct {
	FeatureNames      []string      `json:"feature_names"`
	TreeInfo          []lgbTreeInfo `json:"tree_info"`
	PandasCategorical [][]string    `json:"pandas_categorical"`
}

// LoadLightGBM reads a LightGBM JSON dump from path.
func LoadLightGBM(path string) (*LightGBM, error) {
	var art lightGBMArtifact
	if err := readArtifact(LightGBMName, path, &art); err != nil {
		return nil, err
	}

	m, err := newLightGBM(art)
	if err != nil {
		return nil, &models.ModelLoadError{Model: LightGBMName, Path: path, Err: err}
	}
	return m, nil
}

func newLightGBM(art lightGBMArtifact) (*LightGBM, error) {
	if err := checkSchema(art.FeatureNames); err != nil {
		return nil, err
	}
	if len(art.TreeInfo) == 0 {
		return nil, errors.New("ensemble has no trees")
	}

	catCols, _ := schemaColumns()
	if len(art.PandasCategorical) != len(catCols) {
		return nil, fmt.Errorf("pandas_categorical has %d columns, expected %d", len(art.PandasCategorical), len(catCols))
	}

	m := &LightGBM{codes: make(map[int]map[string]int, len(catCols))}
	for i, col := range catCols {
		codes := make(map[string]int, len(art.PandasCategorical[i]))
		for code, label := range art.PandasCategorical[i] {
			codes[label] = code
		}
		m.codes[col] = codes
	}

	for i, ti := range art.TreeInfo {
		if ti.TreeStructure == nil {
			return nil, fmt.Errorf("tree %d has no structure", i)
		}
		if err := ti.TreeStructure.compile(len(art.FeatureNames)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		m.trees = append(m.trees, ti.TreeStructure)
	}

	return m, nil
}

// compile validates the subtree and parses thresholds once at load time.
func (n *lgbNode) compile(numFeatures int) error {
	if n.SplitFeature == nil {
		if n.LeafValue == nil {
			return errors.New("leaf without leaf_value")
		}
		return nil
	}

	if *n.SplitFeature < 0 || *n.SplitFeature >= numFeatures {
		return fmt.Errorf("split feature %d out of range", *n.SplitFeature)
	}
	if n.LeftChild == nil || n.RightChild == nil {
		return errors.New("split node missing a child")
	}

	switch n.DecisionType {
	case "<=":
		if err := json.Unmarshal(n.Threshold, &n.threshold); err != nil {
			return fmt.Errorf("invalid numeric threshold %s: %w", string(n.Threshold), err)
		}
	case "==":
		cats, err := parseCategorySet(n.Threshold)
		if err != nil {
			return err
		}
		n.categories = cats
	default:
		return fmt.Errorf("unsupported decision type %q", n.DecisionType)
	}

	if err := n.LeftChild.compile(numFeatures); err != nil {
		return err
	}
	return n.RightChild.compile(numFeatures)
}

// parseCategorySet decodes a categorical threshold such as "1||4||7".
// Older dumps write a single category as a bare number.
func parseCategorySet(raw json.RawMessage) (map[int]bool, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("invalid categorical threshold %s", string(raw))
		}
		s = strconv.Itoa(int(f))
	}

	cats := make(map[int]bool)
	for _, part := range strings.Split(s, "||") {
		code, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid category %q: %w", part, err)
		}
		cats[code] = true
	}
	return cats, nil
}

// Name implements Learner.
func (m *LightGBM) Name() string { return LightGBMName }

// Predict implements Learner.
func (m *LightGBM) Predict(fv models.FeatureVector) (float64, error) {
	row := m.encode(fv)

	var sum float64
	for _, tree := range m.trees {
		sum += tree.eval(row)
	}
	return sum, nil
}

// encode lays fv out as a dense numeric row in schema order.
func (m *LightGBM) encode(fv models.FeatureVector) []float64 {
	row := make([]float64, len(models.FeatureSchema))
	for i, f := range models.FeatureSchema {
		if f.Kind == models.Categorical {
			label, _ := fv.Categorical(i)
			if code, ok := m.codes[i][label]; ok {
				row[i] = float64(code)
			} else {
				row[i] = math.NaN()
			}
			continue
		}
		row[i], _ = fv.Numeric(i)
	}
	return row
}

func (n *lgbNode) eval(row []float64) float64 {
	for n.SplitFeature != nil {
		if n.goLeft(row[*n.SplitFeature]) {
			n = n.LeftChild
		} else {
			n = n.RightChild
		}
	}
	return *n.LeafValue
}

func (n *lgbNode) goLeft(v float64) bool {
	if n.categories != nil {
		if math.IsNaN(v) || v < 0 {
			return false
		}
		return n.categories[int(v)]
	}

	if math.IsNaN(v) {
		if n.MissingType == "NaN" {
			return n.DefaultLeft
		}
		v = 0
	}
	// With zero_as_missing, zero (and NaN mapped to zero) is the missing value.
	if n.MissingType == "Zero" && math.Abs(v) <= zeroThreshold {
		return n.DefaultLeft
	}
	return v <= n.threshold
}
