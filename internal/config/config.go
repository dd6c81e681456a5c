// Package config provides unified configuration loading for the FAQ engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the FAQ engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	Tokenizer     TokenizerConfig     `yaml:"tokenizer"`
	Matching      MatchingConfig      `yaml:"matching"`
	Session       SessionConfig       `yaml:"session"`
	Contacts      ContactsConfig      `yaml:"contacts"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	JournalMode  string `yaml:"journal_mode"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds dictionary and session cache settings.
type CacheConfig struct {
	Driver string        `yaml:"driver"` // memory or redis
	TTL    time.Duration `yaml:"ttl"`
	Redis  RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// TokenizerConfig holds remote tokenizer settings.
type TokenizerConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// MatchingConfig holds ranking and filtering thresholds.
type MatchingConfig struct {
	// MinTopScore gates the relative cutoff: below it the result set is
	// treated as inconclusive.
	MinTopScore float64 `yaml:"min_top_score"`
	// RelativeCutoff keeps candidates scoring at least this fraction of the
	// top score when no literal keyword hit exists.
	RelativeCutoff float64 `yaml:"relative_cutoff"`
	// MaxResults caps the alternatives returned to the caller.
	MaxResults int `yaml:"max_results"`
	// GenericTerms never trigger specific-term narrowing.
	GenericTerms []string `yaml:"generic_terms"`
}

// SessionConfig holds session negation store settings.
type SessionConfig struct {
	// BlockTTL bounds how long a blocked topic survives without activity.
	// Zero means blocked topics never expire.
	BlockTTL time.Duration `yaml:"block_ttl"`
}

// ContactsConfig holds fallback contact resolution settings.
type ContactsConfig struct {
	// PreferredOfficerName narrows the fallback contact list to a single
	// officer whose name contains this fragment.
	PreferredOfficerName string `yaml:"preferred_officer_name"`
	// PreferredPhonePrefix narrows by phone prefix when no name matches.
	PreferredPhonePrefix string `yaml:"preferred_phone_prefix"`
	// MaxContacts caps the fallback contact list.
	MaxContacts int `yaml:"max_contacts"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8086,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "/tmp/faq-engine.db",
				MaxOpenConns: 1,
				JournalMode:  "WAL",
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver: "memory",
			TTL:    5 * time.Minute,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Tokenizer: TokenizerConfig{
			URL:     "",
			Timeout: 10 * time.Second,
		},
		Matching: MatchingConfig{
			MinTopScore:    5.0,
			RelativeCutoff: 0.7,
			MaxResults:     3,
			GenericTerms:   []string{"สมัครเรียน", "ข้อมูล", "ติดต่อ", "มหาวิทยาลัย"},
		},
		Session: SessionConfig{
			BlockTTL: 0,
		},
		Contacts: ContactsConfig{
			MaxContacts: 50,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "debug",
			LogFormat:   "json",
			ServiceName: "faq-engine",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Matching.RelativeCutoff <= 0 || c.Matching.RelativeCutoff > 1 {
		return fmt.Errorf("relative_cutoff must be in (0, 1]")
	}

	if c.Matching.MaxResults < 1 {
		return fmt.Errorf("max_results must be at least 1")
	}

	if c.Tokenizer.Timeout <= 0 {
		return fmt.Errorf("tokenizer timeout must be positive")
	}

	return nil
}

// DatabaseDSN returns the appropriate database connection string.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLite.Path
	}
	return c.Database.Postgres.DSN
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("TOKENIZER_URL"); v != "" {
		cfg.Tokenizer.URL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	if v := os.Getenv("DEFAULT_CONTACT_OFFICER_NAME"); v != "" {
		cfg.Contacts.PreferredOfficerName = v
	}

	if v := os.Getenv("DEFAULT_CONTACT_PHONE_PREFIX"); v != "" {
		cfg.Contacts.PreferredPhonePrefix = v
	}
}
