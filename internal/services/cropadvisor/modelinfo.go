package cropadvisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ModelInfo is the optional training report written next to the artifacts.
type ModelInfo struct {
	Version   string   `json:"version"`
	Accuracy  *float64 `json:"accuracy"`
	TrainedAt string   `json:"trained_at,omitempty"`
	Samples   int      `json:"samples,omitempty"`
}

// LoadModelInfo reads the training report. A missing file yields nil without
// error; anything else unreadable is an error.
func LoadModelInfo(path string) (*ModelInfo, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read model info: %w", err)
	}
	var info ModelInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode model info %s: %w", path, err)
	}
	return &info, nil
}
