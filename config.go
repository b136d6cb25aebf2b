package prepwise

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultSessionLifetime is one week, 604800 seconds.
	DefaultSessionLifetime = 7 * 24 * time.Hour
	// DefaultCookieName names the session cookie.
	DefaultCookieName = "session"
	// DefaultSignInPath is where the route guard sends anonymous callers.
	DefaultSignInPath = "/sign-in"

	minSessionLifetime = 5 * time.Minute
	maxSessionLifetime = 14 * 24 * time.Hour
)

// Config is the engine configuration. Start from DefaultConfig.
type Config struct {
	Session    SessionConfig
	Cookie     CookieConfig
	SignInPath string
	Audit      AuditConfig
	Metrics    MetricsConfig
}

type SessionConfig struct {
	// Lifetime is both the cookie Max-Age and the session artifact validity.
	Lifetime time.Duration
}

type CookieConfig struct {
	Name   string
	Path   string
	Domain string
	// Secure should only be turned off for plain-HTTP local development.
	Secure   bool
	SameSite http.SameSite
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Lifetime: DefaultSessionLifetime,
		},
		Cookie: CookieConfig{
			Name:     DefaultCookieName,
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
		SignInPath: DefaultSignInPath,
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Session.Lifetime < minSessionLifetime || c.Session.Lifetime > maxSessionLifetime {
		return fmt.Errorf("%w: session lifetime must be between %s and %s", ErrInvalidConfig, minSessionLifetime, maxSessionLifetime)
	}
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return fmt.Errorf("%w: cookie name is required", ErrInvalidConfig)
	}
	if strings.ContainsAny(c.Cookie.Name, " \t\r\n;,=") {
		return fmt.Errorf("%w: cookie name %q contains invalid characters", ErrInvalidConfig, c.Cookie.Name)
	}
	if !strings.HasPrefix(c.Cookie.Path, "/") {
		return fmt.Errorf("%w: cookie path must start with /", ErrInvalidConfig)
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return fmt.Errorf("%w: SameSite=None requires Secure", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.SignInPath, "/") {
		return fmt.Errorf("%w: sign-in path must be an absolute path", ErrInvalidConfig)
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: audit buffer size must be > 0", ErrInvalidConfig)
	}
	return nil
}
