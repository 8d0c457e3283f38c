package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Mail          MailConfig          `yaml:"mail"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the API listener configuration.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// RateLimitPerMinute caps submissions per identity. Zero disables limiting.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// JWTConfig holds JWT configuration for the API principal.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// MailConfig holds digest mail delivery configuration.
type MailConfig struct {
	Endpoint     string `yaml:"endpoint"`
	From         string `yaml:"from"`
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// CacheConfig holds shared-cache configuration.
type CacheConfig struct {
	Bucket     string        `yaml:"bucket"`
	TTL        time.Duration `yaml:"ttl"`
	OpTimeout  time.Duration `yaml:"op_timeout"`
	KeyVersion string        `yaml:"key_version"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return &cfg, nil
}

func loadConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when no config file is present")
	}
	return cfg, nil
}

func (cfg *Config) applyEnvOverrides() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("MAIL_ENDPOINT"); v != "" {
		cfg.Mail.Endpoint = v
	}
	if v := os.Getenv("MAIL_TOKEN_URL"); v != "" {
		cfg.Mail.TokenURL = v
	}
	if v := os.Getenv("MAIL_CLIENT_ID"); v != "" {
		cfg.Mail.ClientID = v
	}
	if v := os.Getenv("MAIL_CLIENT_SECRET"); v != "" {
		cfg.Mail.ClientSecret = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.RateLimitPerMinute == 0 {
		cfg.HTTP.RateLimitPerMinute = 30
	}
	if cfg.JWT.DefaultTTL == 0 {
		cfg.JWT.DefaultTTL = 24 * time.Hour
	}
	if cfg.Cache.Bucket == "" {
		cfg.Cache.Bucket = "hearth-cache"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 10 * time.Minute
	}
	if cfg.Cache.OpTimeout == 0 {
		cfg.Cache.OpTimeout = 2 * time.Second
	}
	if cfg.Cache.KeyVersion == "" {
		cfg.Cache.KeyVersion = "v2"
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = "development"
	}
}
