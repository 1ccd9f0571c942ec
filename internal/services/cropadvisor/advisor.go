// Package cropadvisor turns soil and weather measurements into a crop
// recommendation using a fitted scaler and RandomForest classifier.
package cropadvisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Researcher looks up live agronomic notes for a crop. Failures are tolerated.
type Researcher interface {
	Research(ctx context.Context, crop string) (string, error)
}

// Status of a recommendation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Description sources.
const (
	SourceStatic   = "static"
	SourceResearch = "research"
)

// Options tunes the advisor. Zero values fall back to defaults.
type Options struct {
	// ReliabilityThreshold is the confidence percentage above which a result is
	// marked reliable. It must be positive; zero selects the default.
	ReliabilityThreshold float64
	InferenceTimeout     time.Duration
	ResearchTimeout      time.Duration
	MinResearchLength    int
	MaxResearchLength    int
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		ReliabilityThreshold: 75,
		InferenceTimeout:     5 * time.Second,
		ResearchTimeout:      8 * time.Second,
		MinResearchLength:    20,
		MaxResearchLength:    500,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ReliabilityThreshold <= 0 {
		o.ReliabilityThreshold = d.ReliabilityThreshold
	}
	if o.InferenceTimeout <= 0 {
		o.InferenceTimeout = d.InferenceTimeout
	}
	if o.ResearchTimeout <= 0 {
		o.ResearchTimeout = d.ResearchTimeout
	}
	if o.MinResearchLength <= 0 {
		o.MinResearchLength = d.MinResearchLength
	}
	if o.MaxResearchLength <= 0 {
		o.MaxResearchLength = d.MaxResearchLength
	}
	return o
}

// ResultMetadata carries diagnostic fields of a recommendation.
type ResultMetadata struct {
	IsReliable bool   `json:"is_reliable"`
	Engine     string `json:"engine"`
	LabelID    *int   `json:"label_id"`
}

// Alternative is one of the most probable crops.
type Alternative struct {
	CropName        string  `json:"crop_name"`
	LabelID         int     `json:"label_id"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// RecommendationResult is always well formed; Status tells success from error.
type RecommendationResult struct {
	Status            Status         `json:"status"`
	CropName          string         `json:"crop_name,omitempty"`
	Description       string         `json:"description,omitempty"`
	DescriptionSource string         `json:"description_source,omitempty"`
	ConfidenceScore   *float64       `json:"confidence_score"`
	ModelVersion      string         `json:"model_version"`
	Metadata          ResultMetadata `json:"metadata"`
	Crop              *CropMetadata  `json:"crop,omitempty"`
	Alternatives      []Alternative  `json:"alternatives,omitempty"`
	Message           string         `json:"message,omitempty"`

	// Err is the cause of an error result, kept for callers that map it to a
	// transport status.
	Err error `json:"-"`
}

// Advisor is immutable after construction and safe for concurrent use.
type Advisor struct {
	scaler     *Scaler
	classifier Classifier
	labels     LabelMap
	researcher Researcher
	opts       Options
}

// New pairs a scaler with a classifier. Artifacts trained separately are
// rejected with a ModelError. researcher may be nil.
func New(scaler *Scaler, classifier Classifier, labels LabelMap, researcher Researcher, opts Options) (*Advisor, error) {
	if scaler == nil {
		return nil, &ModelError{Artifact: "scaler", Err: errors.New("not loaded")}
	}
	if classifier == nil {
		return nil, &ModelError{Artifact: "classifier", Err: errors.New("not loaded")}
	}
	if err := scaler.Validate(); err != nil {
		return nil, err
	}
	if scaler.Version != classifier.Version() {
		return nil, &ModelError{Artifact: "classifier", Err: fmt.Errorf("%w: scaler=%q classifier=%q",
			errVersionMismatch, scaler.Version, classifier.Version())}
	}
	if labels == nil {
		labels = DefaultLabels
	}
	return &Advisor{
		scaler:     scaler,
		classifier: classifier,
		labels:     labels,
		researcher: researcher,
		opts:       opts.withDefaults(),
	}, nil
}

// ModelVersion reports the paired artifact version.
func (a *Advisor) ModelVersion() string { return a.scaler.Version }

// Engine reports the classifier engine name.
func (a *Advisor) Engine() string { return a.classifier.Engine() }

// Labels exposes the label map for listing.
func (a *Advisor) Labels() LabelMap { return a.labels }

// Recommend runs vectorize, scale, classify, score and enrich for one sample.
// It never panics or returns an error; failures are reported in the result.
func (a *Advisor) Recommend(ctx context.Context, sample Sample) RecommendationResult {
	result := RecommendationResult{
		ModelVersion: a.scaler.Version,
		Metadata:     ResultMetadata{Engine: a.classifier.Engine()},
	}

	x, err := sample.Vector()
	if err != nil {
		return a.fail(result, err, fmt.Sprintf("Invalid input: %v", err))
	}

	scaled, err := a.scaler.Transform(x)
	if err != nil {
		return a.fail(result, err, "Could not prepare the soil and weather features for the model.")
	}

	inferCtx, cancel := context.WithTimeout(ctx, a.opts.InferenceTimeout)
	pred, err := a.classifier.Classify(inferCtx, scaled)
	cancel()
	if err != nil {
		log.Printf("[cropadvisor] classification failed: %v", err)
		return a.fail(result, err, "The crop model could not produce a recommendation right now. Please try again.")
	}

	label := pred.Label
	result.Metadata.LabelID = &label

	if pred.HasProbabilities() {
		score := confidence(pred.Probabilities)
		result.ConfidenceScore = &score
		result.Metadata.IsReliable = score > a.opts.ReliabilityThreshold
		result.Alternatives = a.alternatives(pred, 3)
	}

	meta, known := a.labels.Lookup(label)
	if !known {
		log.Printf("[cropadvisor] label %d is not in the crop map", label)
	}
	result.Status = StatusSuccess
	result.CropName = meta.Name
	result.Crop = &meta
	result.Description = meta.Description
	result.DescriptionSource = SourceStatic

	if known && a.researcher != nil {
		if text, ok := a.research(ctx, meta.Name); ok {
			result.Description = text
			result.DescriptionSource = SourceResearch
		}
	}
	return result
}

func (a *Advisor) fail(result RecommendationResult, err error, message string) RecommendationResult {
	result.Status = StatusError
	result.Message = message
	result.Err = err
	return result
}

// research runs the best-effort lookup under its own deadline. The goroutine
// guards against researchers that ignore context cancellation.
func (a *Advisor) research(ctx context.Context, crop string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.ResearchTimeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		text, err := a.researcher.Research(ctx, crop)
		ch <- reply{text, err}
	}()

	var r reply
	select {
	case r = <-ch:
	case <-ctx.Done():
		log.Printf("[cropadvisor] research for %s degraded: %v", crop, ctx.Err())
		return "", false
	}
	if r.err != nil {
		log.Printf("[cropadvisor] research for %s degraded: %v", crop, r.err)
		return "", false
	}
	text := strings.TrimSpace(r.text)
	if utf8.RuneCountInString(text) < a.opts.MinResearchLength {
		log.Printf("[cropadvisor] research for %s degraded: %d chars below minimum", crop, utf8.RuneCountInString(text))
		return "", false
	}
	return clip(text, a.opts.MaxResearchLength), true
}

func (a *Advisor) alternatives(pred Prediction, n int) []Alternative {
	idx := make([]int, len(pred.Probabilities))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return pred.Probabilities[idx[i]] > pred.Probabilities[idx[j]]
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	out := make([]Alternative, 0, len(idx))
	for _, i := range idx {
		meta, _ := a.labels.Lookup(pred.Classes[i])
		out = append(out, Alternative{
			CropName:        meta.Name,
			LabelID:         pred.Classes[i],
			ConfidenceScore: round2(clampPercent(pred.Probabilities[i] * 100)),
		})
	}
	return out
}

func confidence(probs []float64) float64 {
	best := 0.0
	for _, p := range probs {
		if p > best {
			best = p
		}
	}
	return round2(clampPercent(best * 100))
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max])) + "..."
}
