package cropadvisor

import "fmt"

// FeatureError reports a sample that cannot be turned into a feature vector.
type FeatureError struct {
	Field  string
	Reason string
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("invalid feature %q: %s", e.Field, e.Reason)
}

// ModelError reports a missing or incompatible scaler/classifier artifact.
// It is fatal for the advisor instance.
type ModelError struct {
	Artifact string
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model artifact %s: %v", e.Artifact, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }
