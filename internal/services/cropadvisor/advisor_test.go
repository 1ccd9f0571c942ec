package cropadvisor

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestAdvisor(t *testing.T, researcher Researcher, opts Options) *Advisor {
	t.Helper()
	scaler, err := LoadScaler("testdata/scaler.json")
	require.NoError(t, err)
	forest, err := LoadForest("testdata/forest.json")
	require.NoError(t, err)
	adv, err := New(scaler, forest, DefaultLabels, researcher, opts)
	require.NoError(t, err)
	return adv
}

func riceSample() Sample {
	return NewSample(90, 42, 43, 20.9, 82, 6.5, 202.9)
}

type stubResearcher struct {
	text  string
	err   error
	delay time.Duration
	calls int
	mu    sync.Mutex
}

func (s *stubResearcher) Research(ctx context.Context, crop string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.text, s.err
}

type fixedClassifier struct {
	pred    Prediction
	err     error
	version string
}

func (f fixedClassifier) Classify(context.Context, []float64) (Prediction, error) { return f.pred, f.err }
func (f fixedClassifier) Version() string                                         { return f.version }
func (f fixedClassifier) Engine() string                                          { return "fixed" }

func testScaler(version string) *Scaler {
	return &Scaler{
		Version:      version,
		FeatureNames: FeatureNames,
		Mean:         make([]float64, 7),
		Scale:        []float64{1, 1, 1, 1, 1, 1, 1},
	}
}

func TestRecommendRiceCluster(t *testing.T) {
	adv := loadTestAdvisor(t, nil, Options{})

	res := adv.Recommend(context.Background(), riceSample())

	require.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.Equal(t, "Rice", res.CropName)
	require.NotNil(t, res.ConfidenceScore)
	assert.GreaterOrEqual(t, *res.ConfidenceScore, 80.0)
	assert.Equal(t, 91.67, *res.ConfidenceScore)
	assert.True(t, res.Metadata.IsReliable)
	assert.Equal(t, "random_forest", res.Metadata.Engine)
	require.NotNil(t, res.Metadata.LabelID)
	assert.Equal(t, 20, *res.Metadata.LabelID)
	assert.Equal(t, "crop-rf-test-1", res.ModelVersion)
	assert.Equal(t, DefaultLabels[20].Description, res.Description)
	assert.Equal(t, SourceStatic, res.DescriptionSource)

	require.Len(t, res.Alternatives, 3)
	assert.Equal(t, "Rice", res.Alternatives[0].CropName)
	assert.Equal(t, "Jute", res.Alternatives[1].CropName)
	assert.Equal(t, 8.33, res.Alternatives[1].ConfidenceScore)
}

func TestRecommendIsDeterministic(t *testing.T) {
	adv := loadTestAdvisor(t, nil, Options{})
	first := adv.Recommend(context.Background(), riceSample())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			again := adv.Recommend(context.Background(), riceSample())
			assert.Equal(t, first.CropName, again.CropName)
			assert.Equal(t, *first.ConfidenceScore, *again.ConfidenceScore)
		}()
	}
	wg.Wait()
}

func TestRecommendLowConfidenceIsNotReliable(t *testing.T) {
	adv := loadTestAdvisor(t, nil, Options{})

	res := adv.Recommend(context.Background(), NewSample(40, 60, 80, 18, 20, 7, 80))

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "Chickpea", res.CropName)
	assert.Equal(t, 33.33, *res.ConfidenceScore)
	assert.False(t, res.Metadata.IsReliable)
}

func TestRecommendReliabilityThresholdIsConfigurable(t *testing.T) {
	adv := loadTestAdvisor(t, nil, Options{ReliabilityThreshold: 95})
	res := adv.Recommend(context.Background(), riceSample())
	assert.False(t, res.Metadata.IsReliable)
}

func TestRecommendMissingFieldIsFeatureError(t *testing.T) {
	clf := &countingClassifier{version: "v1"}
	adv, err := New(testScaler("v1"), clf, DefaultLabels, nil, Options{})
	require.NoError(t, err)

	sample := riceSample()
	sample.Humidity = nil
	res := adv.Recommend(context.Background(), sample)

	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Message, "humidity")
	var fe *FeatureError
	require.True(t, errors.As(res.Err, &fe))
	assert.Equal(t, "humidity", fe.Field)
	assert.Zero(t, clf.calls, "model must not be called")
}

func TestRecommendNonFiniteFieldIsFeatureError(t *testing.T) {
	adv := loadTestAdvisor(t, nil, Options{})
	sample := riceSample()
	nan := math.NaN()
	sample.PH = &nan

	res := adv.Recommend(context.Background(), sample)

	var fe *FeatureError
	require.True(t, errors.As(res.Err, &fe))
	assert.Equal(t, "ph", fe.Field)
}

func TestRecommendClassifierFailureIsErrorResult(t *testing.T) {
	adv, err := New(testScaler("v1"), fixedClassifier{version: "v1", err: errors.New("connection refused")}, nil, nil, Options{})
	require.NoError(t, err)

	res := adv.Recommend(context.Background(), riceSample())

	assert.Equal(t, StatusError, res.Status)
	assert.NotContains(t, res.Message, "connection refused")
	assert.Nil(t, res.ConfidenceScore)
}

func TestRecommendWithoutProbabilitiesReportsUnavailableConfidence(t *testing.T) {
	adv, err := New(testScaler("v1"), fixedClassifier{version: "v1", pred: Prediction{Label: 11}}, nil, nil, Options{})
	require.NoError(t, err)

	res := adv.Recommend(context.Background(), riceSample())

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "Maize", res.CropName)
	assert.Nil(t, res.ConfidenceScore)
	assert.False(t, res.Metadata.IsReliable)
	assert.Empty(t, res.Alternatives)
}

func TestRecommendUnknownLabelUsesPlaceholder(t *testing.T) {
	researcher := &stubResearcher{text: strings.Repeat("notes ", 20)}
	pred := Prediction{Label: 99, Classes: []int{20, 99}, Probabilities: []float64{0.1, 0.9}}
	adv, err := New(testScaler("v1"), fixedClassifier{version: "v1", pred: pred}, nil, researcher, Options{})
	require.NoError(t, err)

	res := adv.Recommend(context.Background(), riceSample())

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "Unmapped (99)", res.CropName)
	assert.Equal(t, UnmappedCategory, res.Crop.Category)
	assert.NotEmpty(t, res.Description)
	assert.Zero(t, researcher.calls)
}

func TestLabelLookupPlaceholder(t *testing.T) {
	meta, ok := DefaultLabels.Lookup(-4)
	assert.False(t, ok)
	assert.Equal(t, "Unmapped (-4)", meta.Name)

	meta, ok = DefaultLabels.Lookup(0)
	assert.True(t, ok)
	assert.Equal(t, "Apple", meta.Name)
	assert.Len(t, DefaultLabels.Labels(), 22)
}

func TestRecommendUsesResearchText(t *testing.T) {
	text := "Recent trials show direct-seeded rice cuts water use by a third while keeping yields stable."
	adv := loadTestAdvisor(t, &stubResearcher{text: "  " + text + "\n"}, Options{})

	res := adv.Recommend(context.Background(), riceSample())

	assert.Equal(t, text, res.Description)
	assert.Equal(t, SourceResearch, res.DescriptionSource)
}

func TestRecommendResearchIsClipped(t *testing.T) {
	adv := loadTestAdvisor(t, &stubResearcher{text: strings.Repeat("a", 80)}, Options{MaxResearchLength: 30})

	res := adv.Recommend(context.Background(), riceSample())

	assert.Equal(t, strings.Repeat("a", 30)+"...", res.Description)
}

func TestRecommendResearchFallback(t *testing.T) {
	static := DefaultLabels[20].Description
	cases := []struct {
		name string
		r    *stubResearcher
		opts Options
	}{
		{"error", &stubResearcher{err: errors.New("search backend returned 502")}, Options{}},
		{"too short", &stubResearcher{text: "Rice: n/a"}, Options{}},
		{"empty", &stubResearcher{text: "   "}, Options{}},
		{"timeout", &stubResearcher{text: strings.Repeat("slow ", 30), delay: 200 * time.Millisecond}, Options{ResearchTimeout: 20 * time.Millisecond}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adv := loadTestAdvisor(t, tc.r, tc.opts)

			res := adv.Recommend(context.Background(), riceSample())

			require.Equal(t, StatusSuccess, res.Status)
			assert.Equal(t, static, res.Description)
			assert.Equal(t, SourceStatic, res.DescriptionSource)
			assert.NotContains(t, res.Description, "502")
		})
	}
}

func TestNewRejectsMismatchedArtifacts(t *testing.T) {
	_, err := New(testScaler("v1"), fixedClassifier{version: "v2"}, nil, nil, Options{})
	var me *ModelError
	require.True(t, errors.As(err, &me))
	assert.True(t, errors.Is(err, errVersionMismatch))

	_, err = New(nil, fixedClassifier{version: "v1"}, nil, nil, Options{})
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "scaler", me.Artifact)

	_, err = New(testScaler("v1"), nil, nil, nil, Options{})
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "classifier", me.Artifact)
}

type countingClassifier struct {
	version string
	calls   int
}

func (c *countingClassifier) Classify(context.Context, []float64) (Prediction, error) {
	c.calls++
	return Prediction{Label: 20}, nil
}
func (c *countingClassifier) Version() string { return c.version }
func (c *countingClassifier) Engine() string  { return "counting" }
