package cropadvisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteClassifier calls a classifier-serving endpoint instead of evaluating the
// forest in process. The scaled vector is sent, so the serving side must host the
// model paired with the local scaler.
type RemoteClassifier struct {
	baseURL string
	client  *resty.Client
	version string
}

type remotePredictRequest struct {
	Features []float64 `json:"features"`
}

type remotePredictResponse struct {
	Label         *int      `json:"label"`
	Classes       []int     `json:"classes"`
	Probabilities []float64 `json:"probabilities"`
	ModelVersion  string    `json:"model_version"`
}

type remoteHealthResponse struct {
	Status       string `json:"status"`
	ModelVersion string `json:"model_version"`
}

// NewRemoteClassifier connects to the serving endpoint and records the model
// version it reports. An unreachable endpoint is a ModelError.
func NewRemoteClassifier(ctx context.Context, baseURL string, timeout time.Duration) (*RemoteClassifier, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")

	rc := &RemoteClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}

	var health remoteHealthResponse
	resp, err := rc.client.R().SetContext(ctx).SetResult(&health).Get(rc.baseURL + "/health")
	if err != nil {
		return nil, &ModelError{Artifact: "classifier", Err: fmt.Errorf("health check: %w", err)}
	}
	if resp.IsError() {
		return nil, &ModelError{Artifact: "classifier", Err: fmt.Errorf("health check (HTTP %d): %s", resp.StatusCode(), resp.String())}
	}
	if health.ModelVersion == "" {
		return nil, &ModelError{Artifact: "classifier", Err: fmt.Errorf("serving endpoint reports no model_version")}
	}
	rc.version = health.ModelVersion
	return rc, nil
}

func (rc *RemoteClassifier) Version() string { return rc.version }

func (rc *RemoteClassifier) Engine() string { return "remote_random_forest" }

// Classify posts the scaled vector. Probabilities are optional in the response.
func (rc *RemoteClassifier) Classify(ctx context.Context, x []float64) (Prediction, error) {
	var out remotePredictResponse
	resp, err := rc.client.R().
		SetContext(ctx).
		SetBody(remotePredictRequest{Features: x}).
		SetResult(&out).
		Post(rc.baseURL + "/predict")
	if err != nil {
		return Prediction{}, fmt.Errorf("classifier request failed: %w", err)
	}
	if resp.IsError() {
		return Prediction{}, fmt.Errorf("classifier failed (HTTP %d): %s", resp.StatusCode(), resp.String())
	}
	if out.Label == nil {
		return Prediction{}, fmt.Errorf("classifier response has no label")
	}
	if out.ModelVersion != "" && out.ModelVersion != rc.version {
		return Prediction{}, fmt.Errorf("classifier switched model version from %s to %s", rc.version, out.ModelVersion)
	}

	pred := Prediction{Label: *out.Label}
	if len(out.Probabilities) > 0 && len(out.Probabilities) == len(out.Classes) {
		pred.Classes = out.Classes
		pred.Probabilities = out.Probabilities
	}
	return pred, nil
}
