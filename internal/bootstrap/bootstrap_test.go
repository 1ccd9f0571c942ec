package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"agropulse/internal/config"
	"agropulse/internal/services/market"
	"agropulse/internal/services/papers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		ScalerPath:           "../services/cropadvisor/testdata/scaler.json",
		ForestPath:           "../services/cropadvisor/testdata/forest.json",
		ModelInfoPath:        filepath.Join(t.TempDir(), "missing.json"),
		ReliabilityThreshold: 75,
		InferenceTimeoutSec:  5,
		ResearchTimeoutSec:   8,
		MarketDataPath:       filepath.Join(t.TempDir(), "missing.csv"),
		SentimentMode:        "headline",
		SentimentThreshold:   0.02,
		RecentLimit:          4,
		UploadDir:            filepath.Join(t.TempDir(), "uploads"),
	}
}

func TestAdvisorFromLocalArtifacts(t *testing.T) {
	cfg := testConfig(t)
	adv, info, err := Advisor(context.Background(), cfg, Researcher(cfg))
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Equal(t, "crop-rf-test-1", adv.ModelVersion())
	assert.Equal(t, "random_forest", adv.Engine())

	cfg.ScalerPath = "nope.json"
	_, _, err = Advisor(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestResearcherDisabledWithoutKey(t *testing.T) {
	assert.Nil(t, Researcher(&config.Config{}))
}

func TestMarketTableMissingFile(t *testing.T) {
	table, err := MarketTable(testConfig(t))
	require.NoError(t, err)
	assert.Nil(t, table)
}

func TestMarketOptions(t *testing.T) {
	opts, err := MarketOptions(testConfig(t))
	require.NoError(t, err)
	assert.Equal(t, market.SentimentHeadline, opts.Sentiment)
	assert.Equal(t, 4, opts.RecentLimit)
}

func TestBlobStoreLocal(t *testing.T) {
	store, err := BlobStore(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.IsType(t, &papers.LocalStore{}, store)
}

func TestLoggingToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "agropulse.log")
	closeLog, err := Logging(path)
	require.NoError(t, err)
	log.Printf("[test] hello from the log")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[test] hello from the log")
}
