package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	DatabaseURL string `yaml:"database_url"`
	LogFile     string `yaml:"log_file"`
	AdminToken  string `yaml:"admin_token"`

	// Model artifacts
	ScalerPath           string  `yaml:"scaler_path"`
	ForestPath           string  `yaml:"forest_path"`
	ModelInfoPath        string  `yaml:"model_info_path"`
	RemoteClassifierURL  string  `yaml:"remote_classifier_url"`
	ReliabilityThreshold float64 `yaml:"reliability_threshold"`
	InferenceTimeoutSec  int     `yaml:"inference_timeout_seconds"`
	ResearchTimeoutSec   int     `yaml:"research_timeout_seconds"`

	// Research enrichment
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`

	// Market data
	MarketDataPath     string  `yaml:"market_data_path"`
	SentimentMode      string  `yaml:"sentiment_mode"`
	SentimentThreshold float64 `yaml:"sentiment_threshold"`
	RecentLimit        int     `yaml:"recent_limit"`
	ReportSchedule     string  `yaml:"report_schedule"`
	ReportDir          string  `yaml:"report_dir"`

	// Weather
	ForecastURL     string `yaml:"forecast_url"`
	GeocodeURL      string `yaml:"geocode_url"`
	WeatherTimezone string `yaml:"weather_timezone"`

	// Research papers
	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3Prefix    string `yaml:"s3_prefix"`
}

// Load reads the optional YAML file named by CONFIG_PATH (default
// config.yaml), applies environment overrides, fills defaults and validates.
// Call godotenv before Load to pick up a .env file.
func Load() (*Config, error) {
	// Thresholds are seeded before the overlays so an explicit 0 reaches
	// Validate instead of being mistaken for unset.
	cfg := &Config{ReliabilityThreshold: 75, SentimentThreshold: 0.02}

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
		log.Printf("[config] loaded %s", configPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", configPath, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.Port, "PORT")
	envOverride(&cfg.Environment, "ENVIRONMENT")
	envOverride(&cfg.DatabaseURL, "DATABASE_URL")
	envOverride(&cfg.LogFile, "LOG_FILE")
	envOverride(&cfg.AdminToken, "ADMIN_TOKEN")
	envOverride(&cfg.ScalerPath, "SCALER_PATH")
	envOverride(&cfg.ForestPath, "FOREST_PATH")
	envOverride(&cfg.ModelInfoPath, "MODEL_INFO_PATH")
	envOverride(&cfg.RemoteClassifierURL, "REMOTE_CLASSIFIER_URL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.AnthropicModel, "ANTHROPIC_MODEL")
	envOverride(&cfg.MarketDataPath, "MARKET_DATA_PATH")
	envOverride(&cfg.SentimentMode, "SENTIMENT_MODE")
	envOverride(&cfg.ReportSchedule, "REPORT_SCHEDULE")
	envOverride(&cfg.ReportDir, "REPORT_DIR")
	envOverride(&cfg.ForecastURL, "FORECAST_URL")
	envOverride(&cfg.GeocodeURL, "GEOCODE_URL")
	envOverride(&cfg.WeatherTimezone, "WEATHER_TIMEZONE")
	envOverride(&cfg.UploadDir, "UPLOAD_DIR")
	envOverride(&cfg.S3Bucket, "S3_BUCKET")
	envOverride(&cfg.S3Region, "S3_REGION")
	envOverride(&cfg.S3Endpoint, "S3_ENDPOINT")
	envOverride(&cfg.S3Prefix, "S3_PREFIX")

	for _, f := range []func() error{
		func() error { return envOverrideFloat(&cfg.ReliabilityThreshold, "RELIABILITY_THRESHOLD") },
		func() error { return envOverrideInt(&cfg.InferenceTimeoutSec, "INFERENCE_TIMEOUT_SECONDS") },
		func() error { return envOverrideInt(&cfg.ResearchTimeoutSec, "RESEARCH_TIMEOUT_SECONDS") },
		func() error { return envOverrideFloat(&cfg.SentimentThreshold, "SENTIMENT_THRESHOLD") },
		func() error { return envOverrideInt(&cfg.RecentLimit, "RECENT_LIMIT") },
		func() error { return envOverrideInt(&cfg.MaxUploadMB, "MAX_UPLOAD_MB") },
	} {
		if err := f(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Port, "8080")
	setDefault(&c.Environment, "development")
	setDefault(&c.DatabaseURL, "sqlite:data/agropulse.db")
	setDefault(&c.ScalerPath, "models/scaler.json")
	setDefault(&c.ForestPath, "models/forest.json")
	setDefault(&c.ModelInfoPath, "models/model_info.json")
	setDefault(&c.MarketDataPath, "data/mandi_prices.csv")
	setDefault(&c.SentimentMode, "price")
	setDefault(&c.ReportDir, "reports")
	setDefault(&c.UploadDir, "uploads")
	setDefault(&c.WeatherTimezone, "Asia/Kolkata")
	if c.InferenceTimeoutSec == 0 {
		c.InferenceTimeoutSec = 5
	}
	if c.ResearchTimeoutSec == 0 {
		c.ResearchTimeoutSec = 8
	}
	if c.RecentLimit == 0 {
		c.RecentLimit = 10
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 20
	}
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.ReliabilityThreshold <= 0 || c.ReliabilityThreshold > 100 {
		return fmt.Errorf("invalid reliability_threshold %v: must be in (0, 100]", c.ReliabilityThreshold)
	}
	if c.InferenceTimeoutSec < 1 || c.ResearchTimeoutSec < 1 {
		return errors.New("inference and research timeouts must be >= 1 second")
	}
	switch c.SentimentMode {
	case "price", "headline":
	default:
		return fmt.Errorf("invalid sentiment_mode %q: must be 'price' or 'headline'", c.SentimentMode)
	}
	if c.SentimentThreshold <= 0 || c.SentimentThreshold >= 1 {
		return fmt.Errorf("invalid sentiment_threshold %v: must be in (0, 1)", c.SentimentThreshold)
	}
	if c.RecentLimit < 1 {
		return fmt.Errorf("invalid recent_limit %d: must be >= 1", c.RecentLimit)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("invalid max_upload_mb %d", c.MaxUploadMB)
	}
	if c.ReportSchedule != "" {
		if _, err := cron.ParseStandard(c.ReportSchedule); err != nil {
			return fmt.Errorf("invalid report_schedule %q: %w", c.ReportSchedule, err)
		}
	}
	if c.S3Bucket == "" && (c.S3Endpoint != "" || c.S3Prefix != "") {
		return errors.New("s3_endpoint and s3_prefix require s3_bucket")
	}
	if _, err := time.LoadLocation(c.WeatherTimezone); err != nil {
		return fmt.Errorf("invalid weather_timezone %q: %w", c.WeatherTimezone, err)
	}
	return nil
}

// InferenceTimeout and ResearchTimeout convert the configured seconds.
func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutSec) * time.Second
}

func (c *Config) ResearchTimeout() time.Duration {
	return time.Duration(c.ResearchTimeoutSec) * time.Second
}

// MaxUploadBytes is the paper size cap.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// UseS3 reports whether papers go to a bucket instead of UploadDir.
func (c *Config) UseS3() bool { return c.S3Bucket != "" }

// IsProduction gates debug-only behavior such as gin's debug mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func envOverride(field *string, key string) {
	if v := getEnv(key, ""); v != "" {
		*field = v
	}
}

func envOverrideInt(field *int, key string) error {
	if v := getEnv(key, ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*field = n
	}
	return nil
}

func envOverrideFloat(field *float64, key string) error {
	if v := getEnv(key, ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*field = f
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
