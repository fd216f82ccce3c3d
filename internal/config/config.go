package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	SES      SESConfig      `yaml:"ses"`
	Redis    RedisConfig    `yaml:"redis"`
	Sender   SenderConfig   `yaml:"sender"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the host to bind to. Inside a container we listen on all
// interfaces regardless of what the config file says.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// SESConfig holds AWS SES API configuration. When disabled or missing
// credentials, the server falls back to the log-only sender.
type SESConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Enabled   bool   `yaml:"enabled"`
}

// RedisConfig holds the Redis connection used for send rate limiting.
type RedisConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// SenderConfig holds the from identity stamped on outgoing mail.
type SenderConfig struct {
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
}

// DispatchConfig holds campaign dispatch tunables. Workers caps concurrent
// sends so a large recipient list cannot exhaust connections or provider
// rate limits.
type DispatchConfig struct {
	Workers            int `yaml:"workers"`
	SendTimeoutSeconds int `yaml:"send_timeout_seconds"`
	MaxAttempts        int `yaml:"max_attempts"`
	RatePerSecond      int `yaml:"rate_per_second"`
	RatePerMinute      int `yaml:"rate_per_minute"`
}

// SendTimeout returns the per-delivery timeout as a duration.
func (c DispatchConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSeconds) * time.Second
}

// AuthConfig holds Google OAuth authentication configuration
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	AllowedDomain      string `yaml:"allowed_domain"`
	SessionSecret      string `yaml:"session_secret"`
	CookieName         string `yaml:"cookie_name"`
	CookieMaxAge       int    `yaml:"cookie_max_age"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// RedactEnabled reports whether PII redaction is on. Defaults to on.
func (c LogConfig) RedactEnabled() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-east-1"
	}
	if cfg.Sender.FromName == "" {
		cfg.Sender.FromName = "EmailPro"
	}
	if cfg.Dispatch.Workers == 0 {
		cfg.Dispatch.Workers = 8
	}
	if cfg.Dispatch.SendTimeoutSeconds == 0 {
		cfg.Dispatch.SendTimeoutSeconds = 30
	}
	if cfg.Dispatch.MaxAttempts == 0 {
		cfg.Dispatch.MaxAttempts = 1
	}
	if cfg.Dispatch.RatePerSecond == 0 {
		cfg.Dispatch.RatePerSecond = 50
	}
	if cfg.Dispatch.RatePerMinute == 0 {
		cfg.Dispatch.RatePerMinute = 2000
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "emailpro_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is loaded first when present, so secrets stay out of the
// YAML file. A missing YAML file is fine; defaults plus environment
// variables are enough to run.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
		applyDefaults(cfg)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("SENDER_FROM_EMAIL"); v != "" {
		cfg.Sender.FromEmail = v
	}
	if v := os.Getenv("DISPATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Dispatch.Workers = n
		}
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("AUTH_ALLOWED_DOMAIN"); v != "" {
		cfg.Auth.AllowedDomain = v
	}

	return cfg, nil
}
