package identity

import (
	"errors"
	"time"

	"github.com/MrEthical07/prepwise/internal/rate"
	"github.com/MrEthical07/prepwise/jwt"
	"github.com/MrEthical07/prepwise/password"
)

// Session cookie lifetime bounds accepted by CreateSessionCookie.
const (
	MinSessionCookieDuration = 5 * time.Minute
	MaxSessionCookieDuration = 14 * 24 * time.Hour
)

// Config wires the Verifier's signing keys, password policy and storage layout.
type Config struct {
	SigningMethod jwt.SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	KeyID         string
	Issuer        string
	Audience      string

	IDTokenTTL time.Duration
	// RecentSignIn bounds how old an id token's sign-in may be when it is
	// exchanged for a session cookie.
	RecentSignIn time.Duration

	Password  password.Config
	RateLimit rate.Config

	// KeyPrefix namespaces every Redis key the Verifier writes.
	KeyPrefix string

	Now func() time.Time
}

// DefaultConfig returns an HS256 configuration. PrivateKey must still be set.
func DefaultConfig() Config {
	return Config{
		SigningMethod: jwt.MethodHS256,
		Issuer:        "prepwise",
		IDTokenTTL:    time.Hour,
		RecentSignIn:  5 * time.Minute,
		Password:      password.DefaultConfig(),
		RateLimit:     rate.DefaultConfig(),
		KeyPrefix:     "pw",
	}
}

// Validate reports the first configuration problem.
func (c Config) Validate() error {
	switch {
	case c.IDTokenTTL <= 0:
		return errors.New("identity: id token ttl must be positive")
	case c.RecentSignIn <= 0:
		return errors.New("identity: recent sign-in window must be positive")
	case c.KeyPrefix == "":
		return errors.New("identity: key prefix is required")
	case c.RateLimit.MaxAttempts < 0:
		return errors.New("identity: rate limit attempts must be >= 0")
	case c.RateLimit.MaxAttempts > 0 && c.RateLimit.Window <= 0:
		return errors.New("identity: rate limit window must be positive")
	}
	return nil
}
