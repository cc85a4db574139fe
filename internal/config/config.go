package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

var (
	ErrInvalidRegion   = errors.New("invalid region code")
	ErrInvalidLanguage = errors.New("invalid language tag")
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Detail   DetailConfig   `mapstructure:"detail"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// RateLimitPerMinute caps detail and search requests per client IP.
	// Zero disables the limit.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetadataConfig holds upstream metadata provider configuration.
type MetadataConfig struct {
	TMDB TMDBConfig `mapstructure:"tmdb"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	ImageBaseURL      string  `mapstructure:"image_base_url"`
	Timeout           int     `mapstructure:"timeout"` // seconds
	Language          string  `mapstructure:"language"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	RetryAttempts     int     `mapstructure:"retry_attempts"`
}

// DetailConfig controls how movie detail pages are assembled.
type DetailConfig struct {
	Region         string `mapstructure:"region"`
	VideoSite      string `mapstructure:"video_site"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CacheConfig holds in-memory metadata cache configuration.
type CacheConfig struct {
	TTLMinutes           int `mapstructure:"ttl_minutes"`
	MaxItems             int `mapstructure:"max_items"`
	PruneIntervalMinutes int `mapstructure:"prune_interval_minutes"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8090,
			RateLimitPerMinute: 120,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Metadata: MetadataConfig{
			TMDB: DefaultTMDBConfig(),
		},
		Detail: DetailConfig{
			Region:         "US",
			VideoSite:      "YouTube",
			TimeoutSeconds: 15,
		},
		Cache: CacheConfig{
			TTLMinutes:           15,
			MaxItems:             1000,
			PruneIntervalMinutes: 5,
		},
	}
}

// DefaultTMDBConfig returns TMDB settings pointing at the public v3 API.
func DefaultTMDBConfig() TMDBConfig {
	return TMDBConfig{
		APIKey:            EmbeddedTMDBKey,
		BaseURL:           "https://api.themoviedb.org/3",
		ImageBaseURL:      "https://image.tmdb.org/t/p",
		Timeout:           10,
		Language:          "en-US",
		RequestsPerSecond: 40,
		Burst:             20,
		RetryAttempts:     2,
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env file > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.cinescope")
	}

	v.SetEnvPrefix("CINESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Metadata.TMDB.APIKey == "" {
		cfg.Metadata.TMDB.APIKey = EmbeddedTMDBKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values viper cannot type-check and canonicalises codes.
func (c *Config) Validate() error {
	region, err := NormalizeRegion(c.Detail.Region)
	if err != nil {
		return err
	}
	c.Detail.Region = region

	if c.Metadata.TMDB.Language != "" {
		tag, err := language.Parse(c.Metadata.TMDB.Language)
		if err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidLanguage, c.Metadata.TMDB.Language, err)
		}
		c.Metadata.TMDB.Language = tag.String()
	}

	return nil
}

// NormalizeRegion validates an ISO 3166-1 alpha-2 country code and returns
// it in canonical upper-case form.
func NormalizeRegion(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return "", fmt.Errorf("%w %q: expected a 2-letter country code", ErrInvalidRegion, code)
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidRegion, code, err)
	}
	if !region.IsCountry() {
		return "", fmt.Errorf("%w %q: not a country", ErrInvalidRegion, code)
	}
	return region.String(), nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("metadata.tmdb.api_key", d.Metadata.TMDB.APIKey)
	v.SetDefault("metadata.tmdb.base_url", d.Metadata.TMDB.BaseURL)
	v.SetDefault("metadata.tmdb.image_base_url", d.Metadata.TMDB.ImageBaseURL)
	v.SetDefault("metadata.tmdb.timeout", d.Metadata.TMDB.Timeout)
	v.SetDefault("metadata.tmdb.language", d.Metadata.TMDB.Language)
	v.SetDefault("metadata.tmdb.requests_per_second", d.Metadata.TMDB.RequestsPerSecond)
	v.SetDefault("metadata.tmdb.burst", d.Metadata.TMDB.Burst)
	v.SetDefault("metadata.tmdb.retry_attempts", d.Metadata.TMDB.RetryAttempts)

	v.SetDefault("detail.region", d.Detail.Region)
	v.SetDefault("detail.video_site", d.Detail.VideoSite)
	v.SetDefault("detail.timeout_seconds", d.Detail.TimeoutSeconds)

	v.SetDefault("cache.ttl_minutes", d.Cache.TTLMinutes)
	v.SetDefault("cache.max_items", d.Cache.MaxItems)
	v.SetDefault("cache.prune_interval_minutes", d.Cache.PruneIntervalMinutes)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
