// Package bootstrap builds the long-lived services from configuration. It is
// shared by the server and the one-shot commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"agropulse/internal/config"
	"agropulse/internal/services/cropadvisor"
	"agropulse/internal/services/market"
	"agropulse/internal/services/papers"
	"agropulse/internal/services/research"
)

// Logging sends the standard logger to stdout and, when path is set, to an
// appended log file. The returned func closes the file.
func Logging(path string) (func(), error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if path == "" {
		log.SetOutput(os.Stdout)
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return func() {
		log.SetOutput(os.Stdout)
		f.Close()
	}, nil
}

// Researcher returns the LLM researcher, or nil when no key is configured.
func Researcher(cfg *config.Config) cropadvisor.Researcher {
	r := research.NewAnthropic(research.Config{APIKey: cfg.AnthropicAPIKey, Model: cfg.AnthropicModel})
	if r == nil {
		log.Println("[bootstrap] research enrichment disabled (no ANTHROPIC_API_KEY)")
		return nil
	}
	return r
}

// Advisor loads the scaler and either the local forest or the remote
// classifier, then pairs them. The model info file is optional.
func Advisor(ctx context.Context, cfg *config.Config, researcher cropadvisor.Researcher) (*cropadvisor.Advisor, *cropadvisor.ModelInfo, error) {
	scaler, err := cropadvisor.LoadScaler(cfg.ScalerPath)
	if err != nil {
		return nil, nil, err
	}

	var classifier cropadvisor.Classifier
	if cfg.RemoteClassifierURL != "" {
		rc, err := cropadvisor.NewRemoteClassifier(ctx, cfg.RemoteClassifierURL, cfg.InferenceTimeout())
		if err != nil {
			return nil, nil, err
		}
		classifier = rc
	} else {
		forest, err := cropadvisor.LoadForest(cfg.ForestPath)
		if err != nil {
			return nil, nil, err
		}
		classifier = forest
	}

	adv, err := cropadvisor.New(scaler, classifier, cropadvisor.DefaultLabels, researcher, cropadvisor.Options{
		ReliabilityThreshold: cfg.ReliabilityThreshold,
		InferenceTimeout:     cfg.InferenceTimeout(),
		ResearchTimeout:      cfg.ResearchTimeout(),
	})
	if err != nil {
		return nil, nil, err
	}

	info, err := cropadvisor.LoadModelInfo(cfg.ModelInfoPath)
	if err != nil {
		log.Printf("[bootstrap] model info ignored: %v", err)
		info = nil
	}
	log.Printf("[bootstrap] crop model %s loaded (%s)", adv.ModelVersion(), adv.Engine())
	return adv, info, nil
}

// MarketOptions converts the market settings.
func MarketOptions(cfg *config.Config) (market.Options, error) {
	mode, err := market.ParseSentimentMode(cfg.SentimentMode)
	if err != nil {
		return market.Options{}, err
	}
	return market.Options{
		RecentLimit:        cfg.RecentLimit,
		Sentiment:          mode,
		SentimentThreshold: cfg.SentimentThreshold,
	}, nil
}

// MarketTable loads the price table. A missing file is logged and yields nil,
// which every market query reports as a schema error.
func MarketTable(cfg *config.Config) (*market.Table, error) {
	t, err := market.Load(cfg.MarketDataPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("[bootstrap] market data %s not found; market queries will report errors", cfg.MarketDataPath)
		return nil, nil
	}
	return t, err
}

// BlobStore picks S3 when a bucket is configured, else the upload directory.
func BlobStore(ctx context.Context, cfg *config.Config) (papers.BlobStore, error) {
	if cfg.UseS3() {
		store, err := papers.NewS3Store(ctx, papers.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("[bootstrap] papers stored in s3://%s/%s", cfg.S3Bucket, cfg.S3Prefix)
		return store, nil
	}
	store, err := papers.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	log.Printf("[bootstrap] papers stored in %s", cfg.UploadDir)
	return store, nil
}
