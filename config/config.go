package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load, e.g. ECORECEIPT_SERVER_PORT
const EnvPrefix = "ECORECEIPT"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Matching  MatchingConfig
	OCR       OCRConfig
	Report    ReportConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Batch     BatchConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb"`
}

// CatalogConfig locates the product catalog (.csv or .xlsx)
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// MatchingConfig holds normalizer and matcher settings.
// Nil keyword or unit lists fall back to the built-in vocabularies.
type MatchingConfig struct {
	Threshold          float64  `mapstructure:"threshold"`
	HeaderKeywords     []string `mapstructure:"header_keywords"`
	UnitTokens         []string `mapstructure:"unit_tokens"`
	MinCandidateLength int      `mapstructure:"min_candidate_length"`
}

// OCRConfig holds OCR API configuration
type OCRConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Language          string        `mapstructure:"language"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// Enabled reports whether image receipts can be sent to the OCR API
func (c OCRConfig) Enabled() bool {
	return c.APIKey != "" && c.BaseURL != ""
}

// ReportConfig holds the impact report factors
type ReportConfig struct {
	CO2PerImpactPoint   float64 `mapstructure:"co2_per_impact_point"`
	WeeksPerMonth       float64 `mapstructure:"weeks_per_month"`
	HighImpactThreshold int     `mapstructure:"high_impact_threshold"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// LoggingConfig holds slog settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BatchConfig holds settings for multi-receipt analysis
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load loads configuration from a .env file, environment variables and an optional config.yaml
func Load() (*Config, error) {
	return load("")
}

// LoadFile loads configuration like Load but reads the given config file, which must exist
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ecoreceipt/")
	}

	// Environment variable settings: matching.threshold -> ECORECEIPT_MATCHING_THRESHOLD
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Keys without defaults are only seen by Unmarshal when bound explicitly
	for _, key := range []string{"matching.header_keywords", "matching.unit_tokens"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.max_upload_mb", 10)

	v.SetDefault("catalog.path", "data/products.csv")

	// Matching defaults
	v.SetDefault("matching.threshold", 75.0)
	v.SetDefault("matching.min_candidate_length", 3)

	// OCR defaults
	v.SetDefault("ocr.base_url", "https://api.ocr.space")
	v.SetDefault("ocr.api_key", "")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.timeout", "30s")
	v.SetDefault("ocr.requests_per_minute", 60)
	v.SetDefault("ocr.max_retries", 3)

	// Report defaults
	v.SetDefault("report.co2_per_impact_point", 0.5)
	v.SetDefault("report.weeks_per_month", 4.0)
	v.SetDefault("report.high_impact_threshold", 7)

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("batch.concurrency", 4)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required (set %s_CATALOG_PATH)", EnvPrefix)
	}

	// Written as a positive range check so NaN fails it
	if !(config.Matching.Threshold > 0 && config.Matching.Threshold <= 100) {
		return fmt.Errorf("matching threshold must be within (0,100], got: %v", config.Matching.Threshold)
	}

	if config.Matching.MinCandidateLength < 1 {
		return fmt.Errorf("min candidate length must be at least 1, got: %d", config.Matching.MinCandidateLength)
	}

	if !finitePositive(config.Report.CO2PerImpactPoint) {
		return fmt.Errorf("co2 per impact point must be positive, got: %v", config.Report.CO2PerImpactPoint)
	}

	if !finitePositive(config.Report.WeeksPerMonth) {
		return fmt.Errorf("weeks per month must be positive, got: %v", config.Report.WeeksPerMonth)
	}

	if config.Report.HighImpactThreshold < 1 || config.Report.HighImpactThreshold > 10 {
		return fmt.Errorf("high impact threshold must be within [1,10], got: %d", config.Report.HighImpactThreshold)
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got: %s", config.Logging.Level)
	}

	if config.Logging.Format != "console" && config.Logging.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got: %s", config.Logging.Format)
	}

	if config.Batch.Concurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1, got: %d", config.Batch.Concurrency)
	}

	if config.Server.MaxUploadMB < 1 {
		return fmt.Errorf("max upload size must be at least 1 MB, got: %d", config.Server.MaxUploadMB)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("per-IP rate limit must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}

// finitePositive reports whether v is a real number above zero
func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
