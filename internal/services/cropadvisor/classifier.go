package cropadvisor

import "context"

// Prediction is the output of one classifier call. Classes and Probabilities are
// aligned and empty when the classifier does not expose probabilities.
type Prediction struct {
	Label         int
	Classes       []int
	Probabilities []float64
}

// HasProbabilities reports whether the prediction carries a usable distribution.
func (p Prediction) HasProbabilities() bool {
	return len(p.Probabilities) > 0 && len(p.Probabilities) == len(p.Classes)
}

// Classifier predicts a crop label from a scaled feature vector.
type Classifier interface {
	Classify(ctx context.Context, x []float64) (Prediction, error)
	// Version identifies the training run; it must match the paired scaler.
	Version() string
	// Engine is a short name reported in recommendation metadata.
	Engine() string
}
