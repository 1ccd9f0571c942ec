package cropadvisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// FeatureNames is the canonical feature order used when the scaler and the
// classifier were fit.
var FeatureNames = []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"}

// Scaler is a fitted standardization transform: (x - mean) / scale per feature.
type Scaler struct {
	Version      string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// LoadScaler reads a scaler artifact exported as JSON.
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelError{Artifact: "scaler", Err: err}
	}
	var s Scaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &ModelError{Artifact: "scaler", Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scaler matches the canonical feature layout.
func (s *Scaler) Validate() error {
	if len(s.Mean) != len(FeatureNames) || len(s.Scale) != len(FeatureNames) {
		return &ModelError{Artifact: "scaler", Err: fmt.Errorf("expected %d features, got mean=%d scale=%d",
			len(FeatureNames), len(s.Mean), len(s.Scale))}
	}
	if err := checkFeatureOrder(s.FeatureNames); err != nil {
		return &ModelError{Artifact: "scaler", Err: err}
	}
	for i := range s.Mean {
		if math.IsNaN(s.Mean[i]) || math.IsInf(s.Mean[i], 0) || math.IsNaN(s.Scale[i]) || math.IsInf(s.Scale[i], 0) {
			return &ModelError{Artifact: "scaler", Err: fmt.Errorf("non-finite parameter for %s", FeatureNames[i])}
		}
	}
	return nil
}

// Transform standardizes a raw feature vector. Zero scales are treated as 1,
// matching how the scaler was fit on constant columns.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

// checkFeatureOrder allows an empty list (older exports) but otherwise requires
// the exact canonical order.
func checkFeatureOrder(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != len(FeatureNames) {
		return fmt.Errorf("feature_names has %d entries, want %d", len(names), len(FeatureNames))
	}
	for i, name := range names {
		if name != FeatureNames[i] {
			return fmt.Errorf("feature %d is %q, want %q", i, name, FeatureNames[i])
		}
	}
	return nil
}

var errVersionMismatch = errors.New("scaler and classifier versions differ")
