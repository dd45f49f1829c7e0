// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"CARDS_HOST" yaml:"host"`
	Port int    `envconfig:"CARDS_PORT" yaml:"port"`

	// Feature flags
	EnableWeb bool `envconfig:"CARDS_ENABLE_WEB" yaml:"enable_web"`

	// GitHub configuration
	GitHub GitHubConfig `yaml:"github"`

	// Scan configuration
	Scan ScanConfig `yaml:"scan"`

	// Card configuration
	Card CardConfig `yaml:"card"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// GitHubConfig holds GitHub API settings.
type GitHubConfig struct {
	Token             string  `envconfig:"CARDS_GITHUB_TOKEN" yaml:"token"`
	APIBaseURL        string  `envconfig:"CARDS_GITHUB_API_URL" yaml:"api_url"`
	RawBaseURL        string  `envconfig:"CARDS_GITHUB_RAW_URL" yaml:"raw_url"`
	RequestsPerSecond float64 `envconfig:"CARDS_GITHUB_RPS" yaml:"requests_per_second"`
	Burst             int     `envconfig:"CARDS_GITHUB_BURST" yaml:"burst"`
	TimeoutSeconds    int     `envconfig:"CARDS_GITHUB_TIMEOUT" yaml:"timeout_seconds"`
}

// ScanConfig holds scan pipeline settings.
type ScanConfig struct {
	MaxRepos           int `envconfig:"CARDS_SCAN_MAX_REPOS" yaml:"max_repos"`
	MaxFilesPerRepo    int `envconfig:"CARDS_SCAN_MAX_FILES_PER_REPO" yaml:"max_files_per_repo"`
	RepoWorkers        int `envconfig:"CARDS_SCAN_REPO_WORKERS" yaml:"repo_workers"`
	FileWorkers        int `envconfig:"CARDS_SCAN_FILE_WORKERS" yaml:"file_workers"`
	FileTimeoutSeconds int `envconfig:"CARDS_SCAN_FILE_TIMEOUT" yaml:"file_timeout_seconds"`
}

// CardConfig holds card rendering settings.
type CardConfig struct {
	DefaultLimit int `envconfig:"CARDS_DEFAULT_LIMIT" yaml:"default_limit"`
	DefaultWidth int `envconfig:"CARDS_DEFAULT_WIDTH" yaml:"default_width"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type     string `envconfig:"CARDS_CACHE_TYPE" yaml:"type"`
	RedisURL string `envconfig:"CARDS_REDIS_URL" yaml:"redis_url"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type            string `envconfig:"CARDS_BUS_TYPE" yaml:"type"`
	KafkaBrokers    string `envconfig:"CARDS_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup      string `envconfig:"CARDS_KAFKA_GROUP" yaml:"kafka_group"`
	EventLogPath    string `envconfig:"CARDS_EVENT_LOG_PATH" yaml:"event_log_path"`
	EventLogEnabled bool   `envconfig:"CARDS_EVENT_LOG_ENABLED" yaml:"event_log_enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"CARDS_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"CARDS_LOG_FORMAT" yaml:"format"`
	File   string `envconfig:"CARDS_LOG_FILE" yaml:"file"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	RateLimit   int    `envconfig:"CARDS_RATE_LIMIT" yaml:"rate_limit"` // 0 = disabled
	CORSOrigins string `envconfig:"CARDS_CORS_ORIGINS" yaml:"cors_origins"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	MetricsEnabled bool   `envconfig:"CARDS_METRICS_ENABLED" yaml:"metrics_enabled"`
	MetricsPath    string `envconfig:"CARDS_METRICS_PATH" yaml:"metrics_path"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080
	cfg.EnableWeb = true

	cfg.GitHub = GitHubConfig{
		APIBaseURL:        "https://api.github.com",
		RawBaseURL:        "https://raw.githubusercontent.com",
		RequestsPerSecond: 10,
		Burst:             20,
		TimeoutSeconds:    10,
	}

	cfg.Scan = ScanConfig{
		MaxRepos:           30,
		MaxFilesPerRepo:    200,
		RepoWorkers:        8,
		FileWorkers:        6,
		FileTimeoutSeconds: 3,
	}

	cfg.Card = CardConfig{
		DefaultLimit: 10,
		DefaultWidth: 480,
	}

	cfg.Cache = CacheConfig{
		Type:     "memory",
		RedisURL: "redis://localhost:6379",
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Security = SecurityConfig{
		RateLimit:   0,
		CORSOrigins: "*",
	}

	cfg.Observability = ObservabilityConfig{
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	// GitHub validation
	if c.GitHub.RequestsPerSecond <= 0 {
		errs = append(errs, "github requests_per_second must be positive")
	}

	if c.GitHub.TimeoutSeconds < 1 {
		errs = append(errs, "github timeout_seconds must be at least 1")
	}

	// Scan validation
	if c.Scan.MaxRepos < 1 {
		errs = append(errs, "max_repos must be positive")
	}

	if c.Scan.RepoWorkers < 1 || c.Scan.FileWorkers < 1 {
		errs = append(errs, "worker counts must be positive")
	}

	if c.Scan.FileTimeoutSeconds < 1 {
		errs = append(errs, "file_timeout_seconds must be at least 1")
	}

	// Card validation
	if c.Card.DefaultLimit < 1 || c.Card.DefaultLimit > 50 {
		errs = append(errs, "default_limit must be between 1 and 50")
	}

	if c.Card.DefaultWidth < 200 {
		errs = append(errs, "default_width must be at least 200")
	}

	// Cache validation
	validCacheTypes := map[string]bool{"none": true, "memory": true, "redis": true}
	if !validCacheTypes[c.Cache.Type] {
		errs = append(errs, fmt.Sprintf("invalid cache type: %s (must be none, memory, or redis)", c.Cache.Type))
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GitHubTimeout returns the per-request GitHub timeout.
func (c *Config) GitHubTimeout() time.Duration {
	return time.Duration(c.GitHub.TimeoutSeconds) * time.Second
}

// FileTimeout returns the per-file processing timeout.
func (c *Config) FileTimeout() time.Duration {
	return time.Duration(c.Scan.FileTimeoutSeconds) * time.Second
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
