package cropadvisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalerTransform(t *testing.T) {
	s := &Scaler{
		Version:      "v",
		FeatureNames: FeatureNames,
		Mean:         []float64{10, 0, 0, 0, 0, 0, 100},
		Scale:        []float64{2, 1, 1, 1, 1, 0, 50},
	}
	require.NoError(t, s.Validate())

	out, err := s.Transform([]float64{14, 1, 2, 3, 4, 5, 200})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1, 2, 3, 4, 5, 2}, out)

	_, err = s.Transform([]float64{1, 2})
	assert.Error(t, err)
}

func TestScalerRejectsWrongFeatureOrder(t *testing.T) {
	s := testScaler("v")
	s.FeatureNames = []string{"P", "N", "K", "temperature", "humidity", "ph", "rainfall"}

	var me *ModelError
	assert.True(t, errors.As(s.Validate(), &me))
}

func TestLoadScalerMissingFile(t *testing.T) {
	_, err := LoadScaler(filepath.Join(t.TempDir(), "nope.json"))
	var me *ModelError
	require.True(t, errors.As(err, &me))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadForest(t *testing.T) {
	f, err := LoadForest("testdata/forest.json")
	require.NoError(t, err)
	assert.Equal(t, "crop-rf-test-1", f.Version())
	assert.Len(t, f.Trees, 3)
	assert.Len(t, f.Classes, 22)
}

func TestForestProbabilitiesSumToOne(t *testing.T) {
	f, err := LoadForest("testdata/forest.json")
	require.NoError(t, err)

	_, probs, err := f.PredictProba(context.Background(), []float64{0, 0, 0, 0, 0.5, 0, 2})
	require.NoError(t, err)
	sum := 0.0
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestForestValidateRejectsMalformedTrees(t *testing.T) {
	good := func() *Forest {
		return &Forest{
			ModelVersion: "v",
			Classes:      []int{0, 1},
			Trees: []Tree{{
				ChildrenLeft:  []int{1, -1, -1},
				ChildrenRight: []int{2, -1, -1},
				Feature:       []int{3, -2, -2},
				Threshold:     []float64{0, -2, -2},
				Value:         [][]float64{{1, 1}, {1, 0}, {0, 1}},
			}},
		}
	}
	require.NoError(t, good().Validate())

	cases := map[string]func(f *Forest){
		"no trees":         func(f *Forest) { f.Trees = nil },
		"no classes":       func(f *Forest) { f.Classes = nil },
		"short arrays":     func(f *Forest) { f.Trees[0].Threshold = f.Trees[0].Threshold[:2] },
		"bad child":        func(f *Forest) { f.Trees[0].ChildrenRight[0] = 7 },
		"cycle":            func(f *Forest) { f.Trees[0].ChildrenLeft[0] = 0 },
		"bad feature":      func(f *Forest) { f.Trees[0].Feature[0] = 9 },
		"value width":      func(f *Forest) { f.Trees[0].Value[1] = []float64{1} },
		"feature order":    func(f *Forest) { f.FeatureNames = []string{"rainfall"} },
		"negative feature": func(f *Forest) { f.Trees[0].Feature[0] = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := good()
			mutate(f)
			var me *ModelError
			assert.True(t, errors.As(f.Validate(), &me))
		})
	}
}

func TestForestClassifyRejectsWrongWidth(t *testing.T) {
	f, err := LoadForest("testdata/forest.json")
	require.NoError(t, err)
	_, err = f.Classify(context.Background(), []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestLoadModelInfo(t *testing.T) {
	info, err := LoadModelInfo(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Nil(t, info)

	path := filepath.Join(t.TempDir(), "model_info.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"crop-rf-test-1","accuracy":0.9932}`), 0o644))
	info, err = LoadModelInfo(path)
	require.NoError(t, err)
	require.NotNil(t, info.Accuracy)
	assert.InDelta(t, 0.9932, *info.Accuracy, 1e-9)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = LoadModelInfo(path)
	assert.Error(t, err)
}
