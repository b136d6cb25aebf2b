package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// EnvConfigPath names the YAML file when --config is not given.
const EnvConfigPath = "PREPWISE_CONFIG"

// ErrHelp is returned when -h or --help was requested.
var ErrHelp = pflag.ErrHelp

// Getenv looks up one environment variable. Load takes it as a parameter so
// tests do not touch the process environment.
type Getenv func(key string) string

// Load builds a Config from args (without the program name) and getenv.
// A nil getenv uses os.Getenv.
func Load(args []string, getenv Getenv, usage io.Writer) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Defaults()
	fs, fv := newFlagSet(usage)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path := fv.configPath
	if !fs.Changed("config") {
		path = getenv(EnvConfigPath)
	}
	if path != "" {
		if err := loadYAML(&cfg, path); err != nil {
			return nil, err
		}
	}

	dotenv, err := readDotenv(fv.envFile, fs.Changed("env-file"))
	if err != nil {
		return nil, err
	}
	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return nil, err
	}

	applyFlags(&cfg, fs, fv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// readDotenv reads a .env file without exporting it. A missing default file
// is ignored; a missing file named on the command line is an error.
func readDotenv(path string, explicit bool) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return vals, nil
}

type envBinding struct {
	key   string
	apply func(cfg *Config, v string) error
}

func str(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error { *dst(c) = v; return nil }
}

func boolean(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func integer(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func duration(dst func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

var envBindings = []envBinding{
	{"PREPWISE_ENV", str(func(c *Config) *string { return &c.Environment })},
	{"PREPWISE_HTTP_ADDR", str(func(c *Config) *string { return &c.HTTP.Addr })},
	{"PREPWISE_HTTP_TRUST_PROXY", boolean(func(c *Config) *bool { return &c.HTTP.TrustProxy })},
	{"PREPWISE_HTTP_SHUTDOWN_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.HTTP.ShutdownTimeout })},
	{"PREPWISE_REDIS_ADDR", str(func(c *Config) *string { return &c.Redis.Addr })},
	{"PREPWISE_REDIS_PASSWORD", str(func(c *Config) *string { return &c.Redis.Password })},
	{"PREPWISE_REDIS_DB", integer(func(c *Config) *int { return &c.Redis.DB })},
	{"PREPWISE_REDIS_EMBEDDED", boolean(func(c *Config) *bool { return &c.Redis.Embedded })},
	{"PREPWISE_PROFILE_BACKEND", str(func(c *Config) *string { return &c.Profile.Backend })},
	{"PREPWISE_POSTGRES_DSN", str(func(c *Config) *string { return &c.Profile.PostgresDSN })},
	{"PREPWISE_MONGO_URI", str(func(c *Config) *string { return &c.Profile.MongoURI })},
	{"PREPWISE_MONGO_DATABASE", str(func(c *Config) *string { return &c.Profile.MongoDatabase })},
	{"PREPWISE_SIGNING_SECRET", str(func(c *Config) *string { return &c.Auth.SigningSecret })},
	{"PREPWISE_SESSION_LIFETIME", duration(func(c *Config) *time.Duration { return &c.Auth.SessionLifetime })},
	{"PREPWISE_COOKIE_SECURE", boolean(func(c *Config) *bool { return &c.Auth.CookieSecure })},
	{"PREPWISE_AUDIT_ENABLED", boolean(func(c *Config) *bool { return &c.Audit.Enabled })},
	{"PREPWISE_METRICS_ENABLED", boolean(func(c *Config) *bool { return &c.Metrics.Enabled })},
	{"PREPWISE_LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
	{"PREPWISE_LOG_FORMAT", str(func(c *Config) *string { return &c.Log.Format })},
}

func applyEnv(cfg *Config, lookup func(string) string) error {
	for _, b := range envBindings {
		v := lookup(b.key)
		if v == "" {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			return fmt.Errorf("env %s: %w", b.key, err)
		}
	}
	return nil
}

type flagValues struct {
	configPath string
	envFile    string

	env             string
	addr            string
	trustProxy      bool
	redisAddr       string
	redisEmbedded   bool
	profileBackend  string
	postgresDSN     string
	mongoURI        string
	sessionLifetime time.Duration
	cookieSecure    bool
	metrics         bool
	logLevel        string
	logFormat       string
}

func newFlagSet(usage io.Writer) (*pflag.FlagSet, *flagValues) {
	fv := &flagValues{}
	fs := pflag.NewFlagSet("prepwise", pflag.ContinueOnError)
	if usage != nil {
		fs.SetOutput(usage)
	} else {
		fs.SetOutput(io.Discard)
	}

	fs.StringVar(&fv.configPath, "config", "", "path to a YAML config file (env "+EnvConfigPath+")")
	fs.StringVar(&fv.envFile, "env-file", ".env", "dotenv file to read before the environment")
	fs.StringVar(&fv.env, "env", "", "environment: development or production")
	fs.StringVarP(&fv.addr, "addr", "a", "", "HTTP listen address")
	fs.BoolVar(&fv.trustProxy, "trust-proxy", false, "take client IP from X-Forwarded-For")
	fs.StringVar(&fv.redisAddr, "redis-addr", "", "Redis address")
	fs.BoolVar(&fv.redisEmbedded, "redis-embedded", false, "run an in-process Redis (development only)")
	fs.StringVar(&fv.profileBackend, "profile-backend", "", "profile store: redis, postgres or mongo")
	fs.StringVar(&fv.postgresDSN, "postgres-dsn", "", "Postgres connection string")
	fs.StringVar(&fv.mongoURI, "mongo-uri", "", "MongoDB connection URI")
	fs.DurationVar(&fv.sessionLifetime, "session-lifetime", 0, "session cookie lifetime")
	fs.BoolVar(&fv.cookieSecure, "cookie-secure", true, "mark cookies Secure")
	fs.BoolVar(&fv.metrics, "metrics", true, "serve Prometheus metrics")
	fs.StringVar(&fv.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&fv.logFormat, "log-format", "", "json or text")

	return fs, fv
}

// applyFlags copies only flags that were set on the command line.
func applyFlags(cfg *Config, fs *pflag.FlagSet, fv *flagValues) {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("env", func() { cfg.Environment = fv.env })
	set("addr", func() { cfg.HTTP.Addr = fv.addr })
	set("trust-proxy", func() { cfg.HTTP.TrustProxy = fv.trustProxy })
	set("redis-addr", func() { cfg.Redis.Addr = fv.redisAddr })
	set("redis-embedded", func() { cfg.Redis.Embedded = fv.redisEmbedded })
	set("profile-backend", func() { cfg.Profile.Backend = fv.profileBackend })
	set("postgres-dsn", func() { cfg.Profile.PostgresDSN = fv.postgresDSN })
	set("mongo-uri", func() { cfg.Profile.MongoURI = fv.mongoURI })
	set("session-lifetime", func() { cfg.Auth.SessionLifetime = fv.sessionLifetime })
	set("cookie-secure", func() { cfg.Auth.CookieSecure = fv.cookieSecure })
	set("metrics", func() { cfg.Metrics.Enabled = fv.metrics })
	set("log-level", func() { cfg.Log.Level = fv.logLevel })
	set("log-format", func() { cfg.Log.Format = fv.logFormat })
}
