// Package config loads the server configuration.
//
// Sources are applied in order, each overriding the last:
//
//  1. built-in defaults
//  2. a YAML file named by --config or PREPWISE_CONFIG
//  3. a .env file (--env-file, default ".env", missing is fine) and then the
//     process environment
//  4. command-line flags that were explicitly set
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds runtime settings for the prepwise server.
type Config struct {
	Environment string        `yaml:"environment"`
	HTTP        HTTPConfig    `yaml:"http"`
	Redis       RedisConfig   `yaml:"redis"`
	Profile     ProfileConfig `yaml:"profile"`
	Auth        AuthConfig    `yaml:"auth"`
	Audit       AuditConfig   `yaml:"audit"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Log         LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// TrustProxy takes the client IP from X-Forwarded-For.
	TrustProxy bool `yaml:"trust_proxy"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Embedded runs an in-process miniredis. Development only.
	Embedded bool `yaml:"embedded"`
}

type ProfileConfig struct {
	Backend         string `yaml:"backend"`
	RedisPrefix     string `yaml:"redis_prefix"`
	PostgresDSN     string `yaml:"postgres_dsn"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
}

type AuthConfig struct {
	SigningSecret     string        `yaml:"signing_secret"`
	Issuer            string        `yaml:"issuer"`
	SessionLifetime   time.Duration `yaml:"session_lifetime"`
	CookieSecure      bool          `yaml:"cookie_secure"`
	SignInMaxAttempts int           `yaml:"sign_in_max_attempts"`
	SignInWindow      time.Duration `yaml:"sign_in_window"`
}

type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns production-leaning defaults. The signing secret has no
// default.
func Defaults() Config {
	return Config{
		Environment: EnvProduction,
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Profile: ProfileConfig{
			Backend:         BackendRedis,
			RedisPrefix:     "pw:users",
			MongoDatabase:   "prepwise",
			MongoCollection: "users",
		},
		Auth: AuthConfig{
			Issuer:            "prepwise",
			SessionLifetime:   7 * 24 * time.Hour,
			CookieSecure:      true,
			SignInMaxAttempts: 5,
			SignInWindow:      15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// IsDevelopment reports whether development conveniences are allowed.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("http.addr is required")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 || c.HTTP.ShutdownTimeout <= 0 {
		return errors.New("http timeouts must be positive")
	}
	if !c.Redis.Embedded && strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("redis.addr is required unless redis.embedded is set")
	}
	if c.Redis.Embedded && !c.IsDevelopment() {
		return errors.New("redis.embedded is only allowed in development")
	}

	switch c.Profile.Backend {
	case BackendRedis:
	case BackendPostgres:
		if c.Profile.PostgresDSN == "" {
			return errors.New("profile.postgres_dsn is required for the postgres backend")
		}
	case BackendMongo:
		if c.Profile.MongoURI == "" || c.Profile.MongoDatabase == "" {
			return errors.New("profile.mongo_uri and profile.mongo_database are required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown profile backend %q", c.Profile.Backend)
	}

	if c.Auth.SigningSecret == "" && !c.IsDevelopment() {
		return errors.New("auth.signing_secret is required")
	}
	if c.Auth.SigningSecret != "" && len(c.Auth.SigningSecret) < 32 {
		return errors.New("auth.signing_secret must be at least 32 bytes")
	}
	if c.Auth.SignInMaxAttempts < 0 {
		return errors.New("auth.sign_in_max_attempts must be >= 0")
	}
	if c.Auth.SignInMaxAttempts > 0 && c.Auth.SignInWindow <= 0 {
		return errors.New("auth.sign_in_window must be positive")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
