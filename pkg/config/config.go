package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultBaseURL is the default NASA API base URL.
	DefaultBaseURL = "https://api.nasa.gov"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultFireAt is the default daily trigger time (UTC, HH:MM).
	DefaultFireAt = "02:00"

	// DefaultMaxAttempts is the default per-node retry bound.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the default delay between node attempts.
	DefaultRetryDelay = 30 * time.Second

	// DefaultFetchTimeout is the default timeout for one APOD API call.
	DefaultFetchTimeout = 15 * time.Second

	// DefaultLoadTimeout is the default timeout for one storage write.
	DefaultLoadTimeout = 10 * time.Second

	// envPrefix is the prefix for environment variable overrides,
	// e.g. APODSYNC_NASA_API_KEY overrides nasa.api_key.
	envPrefix = "APODSYNC"
)

// Config is the root configuration for apodsync.
type Config struct {
	Global   GlobalConfig   `yaml:"global" mapstructure:"global"`
	NASA     NASAConfig     `yaml:"nasa" mapstructure:"nasa"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
	Archive  ArchiveConfig  `yaml:"archive,omitempty" mapstructure:"archive"`
	Server   ServerConfig   `yaml:"server,omitempty" mapstructure:"server"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// NASAConfig contains APOD API access settings.
type NASAConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteConfig contains SQLite settings.
type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
}

// PipelineConfig contains the per-node retry policy and I/O timeouts.
type PipelineConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	LoadTimeout time.Duration `yaml:"load_timeout,omitempty" mapstructure:"load_timeout"`
}

// ScheduleConfig contains the daily trigger settings.
type ScheduleConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	FireAt         string `yaml:"fire_at,omitempty" mapstructure:"fire_at"`
	CatchupOnStart bool   `yaml:"catchup_on_start,omitempty" mapstructure:"catchup_on_start"`
}

// ArchiveConfig contains S3 media archiving settings.
type ArchiveConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string        `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string        `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string        `yaml:"bucket" mapstructure:"bucket"`
	Prefix          string        `yaml:"prefix,omitempty" mapstructure:"prefix"`
	AccessKeyID     string        `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool          `yaml:"force_path_style" mapstructure:"force_path_style"`
	DownloadTimeout time.Duration `yaml:"download_timeout,omitempty" mapstructure:"download_timeout"`
}

// ServerConfig contains trigger API server settings.
type ServerConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	AuthToken   string          `yaml:"auth_token,omitempty" mapstructure:"auth_token"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting on the trigger API.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// Load reads a configuration file and applies APODSYNC_* environment
// overrides on top of it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind every key present in the file so env overrides are seen
	// during Unmarshal, not just through v.Get.
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %q: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.NASA.BaseURL == "" {
		c.NASA.BaseURL = DefaultBaseURL
	}

	if c.NASA.Timeout <= 0 {
		c.NASA.Timeout = DefaultFetchTimeout
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}

	if c.Database.SQLite.Path == "" {
		c.Database.SQLite.Path = "./apodsync.db"
	}

	if c.Pipeline.MaxAttempts <= 0 {
		c.Pipeline.MaxAttempts = DefaultMaxAttempts
	}

	if c.Pipeline.RetryDelay <= 0 {
		c.Pipeline.RetryDelay = DefaultRetryDelay
	}

	if c.Pipeline.LoadTimeout <= 0 {
		c.Pipeline.LoadTimeout = DefaultLoadTimeout
	}

	if c.Schedule.FireAt == "" {
		c.Schedule.FireAt = DefaultFireAt
	}

	if c.Archive.DownloadTimeout <= 0 {
		c.Archive.DownloadTimeout = 60 * time.Second
	}

	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}

	if c.Server.RateLimit.RequestsPerMinute <= 0 {
		c.Server.RateLimit.RequestsPerMinute = 60
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.NASA.APIKey == "" {
		return fmt.Errorf("nasa.api_key is required")
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Database.Driver == "postgres" {
		if c.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}

		if c.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
	}

	if _, err := ParseFireAt(c.Schedule.FireAt); err != nil {
		return fmt.Errorf("schedule.fire_at: %w", err)
	}

	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required when archiving is enabled")
	}

	return nil
}

// ParseFireAt parses an HH:MM trigger time into an offset from midnight.
func ParseFireAt(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid trigger time %q: expected HH:MM", s)
	}

	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute, nil
}
