package cropadvisor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Tree holds the node arrays of one fitted decision tree, in the layout of
// sklearn's tree_ attribute. A node is a leaf when ChildrenLeft is -1.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Forest is an in-process RandomForest evaluated from an exported artifact.
type Forest struct {
	ModelVersion string   `json:"version"`
	FeatureNames []string `json:"feature_names"`
	Classes      []int    `json:"classes"`
	Trees        []Tree   `json:"trees"`
}

// LoadForest reads a forest artifact exported as JSON and validates its shape.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelError{Artifact: "classifier", Err: err}
	}
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ModelError{Artifact: "classifier", Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every tree is well formed so evaluation can never index out
// of range.
func (f *Forest) Validate() error {
	fail := func(format string, args ...any) error {
		return &ModelError{Artifact: "classifier", Err: fmt.Errorf(format, args...)}
	}
	if err := checkFeatureOrder(f.FeatureNames); err != nil {
		return &ModelError{Artifact: "classifier", Err: err}
	}
	if len(f.Classes) == 0 {
		return fail("no classes")
	}
	if len(f.Trees) == 0 {
		return fail("no trees")
	}
	for ti, t := range f.Trees {
		n := len(t.ChildrenLeft)
		if n == 0 {
			return fail("tree %d has no nodes", ti)
		}
		if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
			return fail("tree %d has mismatched node arrays", ti)
		}
		for i := 0; i < n; i++ {
			if len(t.Value[i]) != len(f.Classes) {
				return fail("tree %d node %d has %d class values, want %d", ti, i, len(t.Value[i]), len(f.Classes))
			}
			if t.ChildrenLeft[i] == -1 {
				continue
			}
			l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
			if l <= i || l >= n || r <= i || r >= n {
				return fail("tree %d node %d has invalid children %d/%d", ti, i, l, r)
			}
			if t.Feature[i] < 0 || t.Feature[i] >= len(FeatureNames) {
				return fail("tree %d node %d splits on feature %d", ti, i, t.Feature[i])
			}
		}
	}
	return nil
}

func (f *Forest) Version() string { return f.ModelVersion }

func (f *Forest) Engine() string { return "random_forest" }

// Classify returns the class with the highest averaged probability together
// with the full distribution.
func (f *Forest) Classify(ctx context.Context, x []float64) (Prediction, error) {
	classes, probs, err := f.PredictProba(ctx, x)
	if err != nil {
		return Prediction{}, err
	}
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return Prediction{Label: classes[best], Classes: classes, Probabilities: probs}, nil
}

// PredictProba averages the normalized leaf distributions of all trees.
func (f *Forest) PredictProba(_ context.Context, x []float64) ([]int, []float64, error) {
	if len(x) != len(FeatureNames) {
		return nil, nil, fmt.Errorf("forest expects %d features, got %d", len(FeatureNames), len(x))
	}
	probs := make([]float64, len(f.Classes))
	for _, t := range f.Trees {
		leaf := t.leaf(x)
		total := 0.0
		for _, v := range t.Value[leaf] {
			total += v
		}
		if total == 0 {
			continue
		}
		for i, v := range t.Value[leaf] {
			probs[i] += v / total
		}
	}
	for i := range probs {
		probs[i] /= float64(len(f.Trees))
	}
	classes := make([]int, len(f.Classes))
	copy(classes, f.Classes)
	return classes, probs, nil
}

func (t *Tree) leaf(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}
