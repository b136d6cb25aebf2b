package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/prepwise/internal/rate"
	"github.com/MrEthical07/prepwise/jwt"
	"github.com/MrEthical07/prepwise/password"
	"github.com/MrEthical07/prepwise/session"
)

// Token is a verified id token or session cookie.
type Token struct {
	UID       string
	Email     string
	SessionID string
	AuthTime  time.Time
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Verifier owns credentials: it creates accounts, checks passwords, mints id
// tokens and session cookies, and verifies or revokes them.
//
// A Verifier is safe for concurrent use.
type Verifier struct {
	accounts *accountStore
	sessions *session.Store
	limiter  *rate.Limiter
	tokens   *jwt.Manager
	hasher   *password.Argon2

	idTokenTTL   time.Duration
	recentSignIn time.Duration
	now          func() time.Time
}

// New builds a Verifier over rdb.
func New(rdb redis.UniversalClient, cfg Config) (*Verifier, error) {
	if rdb == nil {
		return nil, errors.New("identity: redis client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	tokens, err := jwt.NewManager(jwt.Config{
		SigningMethod: cfg.SigningMethod,
		PrivateKey:    cfg.PrivateKey,
		PublicKey:     cfg.PublicKey,
		KeyID:         cfg.KeyID,
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		Now:           cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}

	hasher, err := password.NewArgon2(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}

	rl := cfg.RateLimit
	rl.Prefix = cfg.KeyPrefix + ":rl"

	return &Verifier{
		accounts:     &accountStore{redis: rdb, prefix: cfg.KeyPrefix},
		sessions:     session.NewStore(rdb, cfg.KeyPrefix+":sess", cfg.Now),
		limiter:      rate.New(rdb, rl),
		tokens:       tokens,
		hasher:       hasher,
		idTokenTTL:   cfg.IDTokenTTL,
		recentSignIn: cfg.RecentSignIn,
		now:          cfg.Now,
	}, nil
}

// CreateUser registers email with password and returns the new account.
func (v *Verifier) CreateUser(ctx context.Context, email, pw string) (Account, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Account{}, newError(CodeInvalidEmail, "The email address is improperly formatted.", err)
	}

	hash, err := v.hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return Account{}, newError(CodeWeakPassword,
				fmt.Sprintf("The password must be a string with at least %d characters.", v.hasher.MinLength()), nil)
		}
		if errors.Is(err, password.ErrTooLong) {
			return Account{}, newError(CodeWeakPassword, "The password is too long.", nil)
		}
		return Account{}, newError(CodeInternal, "Failed to hash password.", err)
	}

	acct := &Account{
		UID:          uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    v.now().Unix(),
	}

	reserved, err := v.accounts.reserveEmail(ctx, acct.Email, acct.UID)
	if err != nil {
		return Account{}, newError(CodeInternal, "Failed to create user.", err)
	}
	if !reserved {
		return Account{}, newError(CodeEmailAlreadyExists, "The email address is already in use by another account.", nil)
	}

	if err := v.accounts.put(ctx, acct); err != nil {
		_ = v.accounts.releaseEmail(ctx, acct.Email)
		return Account{}, newError(CodeInternal, "Failed to create user.", err)
	}

	return acct.public(), nil
}

// GetUser loads an account by identifier.
func (v *Verifier) GetUser(ctx context.Context, uid string) (Account, error) {
	acct, err := v.accounts.get(ctx, uid)
	if err != nil {
		return Account{}, v.lookupError(err)
	}
	return acct.public(), nil
}

// GetUserByEmail loads an account by email address.
func (v *Verifier) GetUserByEmail(ctx context.Context, email string) (Account, error) {
	acct, err := v.accounts.getByEmail(ctx, email)
	if err != nil {
		return Account{}, v.lookupError(err)
	}
	return acct.public(), nil
}

// SignInWithPassword checks the credentials and returns a fresh id token.
// Unknown emails and wrong passwords both report CodeInvalidCredential.
func (v *Verifier) SignInWithPassword(ctx context.Context, email, pw string) (string, error) {
	ip := ClientIPFromContext(ctx)

	if err := v.limiter.Check(ctx, email, ip); err != nil {
		return "", v.throttleError(err)
	}

	acct, err := v.accounts.getByEmail(ctx, email)
	if err != nil && !errors.Is(err, errAccountNotFound) {
		return "", newError(CodeInternal, "Failed to look up user.", err)
	}

	ok := false
	if acct != nil {
		ok, err = v.hasher.Verify(pw, acct.PasswordHash)
		if err != nil && !errors.Is(err, password.ErrTooLong) {
			return "", newError(CodeInternal, "Failed to verify password.", err)
		}
	}
	if !ok {
		if err := v.limiter.RecordFailure(ctx, email, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
			return "", newError(CodeInternal, "Failed to record sign-in attempt.", err)
		}
		return "", newError(CodeInvalidCredential, "The supplied auth credential is incorrect, malformed or has expired.", nil)
	}

	if err := v.limiter.Reset(ctx, email); err != nil {
		return "", newError(CodeInternal, "Failed to reset sign-in attempts.", err)
	}

	now := v.now()
	acct.LastSignInAt = now.Unix()
	if upgrade, _ := v.hasher.NeedsUpgrade(acct.PasswordHash); upgrade {
		if rehashed, err := v.hasher.Hash(pw); err == nil {
			acct.PasswordHash = rehashed
		}
	}
	if err := v.accounts.put(ctx, acct); err != nil {
		return "", newError(CodeInternal, "Failed to update user.", err)
	}

	tok, err := v.tokens.Sign(jwt.Claims{
		UID:      acct.UID,
		Email:    acct.Email,
		Kind:     jwt.KindID,
		AuthTime: now.Unix(),
	}, v.idTokenTTL)
	if err != nil {
		return "", newError(CodeInternal, "Failed to mint id token.", err)
	}
	return tok, nil
}

// VerifyIDToken checks an id token's signature and expiry.
func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	claims, err := v.tokens.Parse(idToken, jwt.KindID)
	if err != nil {
		if errors.Is(err, gjwt.ErrTokenExpired) {
			return nil, newError(CodeIDTokenExpired, "ID token has expired.", err)
		}
		return nil, newError(CodeInvalidIDToken, "Decoding ID token failed.", err)
	}
	return tokenFromClaims(claims), nil
}

// CreateSessionCookie exchanges a recent id token for a session cookie valid
// for expiresIn. The cookie's session record expires with it.
func (v *Verifier) CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	if expiresIn < MinSessionCookieDuration || expiresIn > MaxSessionCookieDuration {
		return "", newError(CodeInvalidSessionCookieDuration,
			"The session cookie duration must be a valid number in milliseconds between 5 minutes and 2 weeks.", nil)
	}

	id, err := v.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}

	now := v.now()
	if now.Sub(id.AuthTime) > v.recentSignIn {
		return "", newError(CodeInvalidIDToken, "Recent sign-in required.", nil)
	}

	if _, err := v.accounts.get(ctx, id.UID); err != nil {
		return "", v.lookupError(err)
	}

	sid := uuid.NewString()
	cookie, err := v.tokens.Sign(jwt.Claims{
		UID:      id.UID,
		Email:    id.Email,
		SID:      sid,
		Kind:     jwt.KindSession,
		AuthTime: id.AuthTime.Unix(),
	}, expiresIn)
	if err != nil {
		return "", newError(CodeInternal, "Failed to mint session cookie.", err)
	}

	if err := v.sessions.Save(ctx, &session.Session{
		SessionID: sid,
		UserID:    id.UID,
		AuthTime:  id.AuthTime.Unix(),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(expiresIn).Unix(),
	}, expiresIn); err != nil {
		return "", newError(CodeInternal, "Failed to store session.", err)
	}

	return cookie, nil
}

// VerifySessionCookie checks a session cookie. With checkRevoked it also
// requires the account and the session record to exist, and the cookie to
// postdate the account's last revocation.
func (v *Verifier) VerifySessionCookie(ctx context.Context, cookie string, checkRevoked bool) (*Token, error) {
	claims, err := v.tokens.Parse(cookie, jwt.KindSession)
	if err != nil {
		if errors.Is(err, gjwt.ErrTokenExpired) {
			return nil, newError(CodeSessionCookieExpired, "The session cookie is expired.", err)
		}
		return nil, newError(CodeInvalidSessionCookie, "Decoding session cookie failed.", err)
	}
	if claims.SID == "" {
		return nil, newError(CodeInvalidSessionCookie, "Session cookie has no session id.", nil)
	}
	tok := tokenFromClaims(claims)
	if !checkRevoked {
		return tok, nil
	}

	acct, err := v.accounts.get(ctx, tok.UID)
	if err != nil {
		return nil, v.lookupError(err)
	}
	if acct.TokensValidAfter > 0 && tok.AuthTime.Unix() < acct.TokensValidAfter {
		return nil, newError(CodeSessionCookieRevoked, "The session cookie has been revoked.", nil)
	}

	rec, err := v.sessions.Get(ctx, tok.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, newError(CodeSessionCookieRevoked, "The session cookie has been revoked.", nil)
		}
		return nil, newError(CodeInternal, "Failed to load session.", err)
	}
	if rec.UserID != tok.UID {
		return nil, newError(CodeInvalidSessionCookie, "Session cookie does not match its session.", nil)
	}

	return tok, nil
}

// RevokeSession deletes the record behind cookie. Expired cookies have
// nothing left to revoke and return nil.
func (v *Verifier) RevokeSession(ctx context.Context, cookie string) error {
	tok, err := v.VerifySessionCookie(ctx, cookie, false)
	if err != nil {
		if HasCode(err, CodeSessionCookieExpired) {
			return nil
		}
		return err
	}
	if err := v.sessions.Delete(ctx, tok.SessionID); err != nil {
		return newError(CodeInternal, "Failed to revoke session.", err)
	}
	return nil
}

// RevokeRefreshTokens invalidates every session of uid issued before now.
func (v *Verifier) RevokeRefreshTokens(ctx context.Context, uid string) error {
	acct, err := v.accounts.get(ctx, uid)
	if err != nil {
		return v.lookupError(err)
	}

	// Tokens carry second resolution; a sign-in in this same second stays valid.
	acct.TokensValidAfter = v.now().Unix()
	if err := v.accounts.put(ctx, acct); err != nil {
		return newError(CodeInternal, "Failed to update user.", err)
	}
	if _, err := v.sessions.DeleteAllForUser(ctx, uid); err != nil {
		return newError(CodeInternal, "Failed to revoke sessions.", err)
	}
	return nil
}

// ActiveSessions reports how many session records uid currently holds.
func (v *Verifier) ActiveSessions(ctx context.Context, uid string) (int, error) {
	n, err := v.sessions.ActiveSessionCount(ctx, uid)
	if err != nil {
		return 0, newError(CodeInternal, "Failed to count sessions.", err)
	}
	return n, nil
}

// Ping checks the Redis connection.
func (v *Verifier) Ping(ctx context.Context) error {
	_, err := v.sessions.Ping(ctx)
	return err
}

func (v *Verifier) lookupError(err error) error {
	if errors.Is(err, errAccountNotFound) {
		return newError(CodeUserNotFound, "There is no user record corresponding to the provided identifier.", nil)
	}
	return newError(CodeInternal, "Failed to load user.", err)
}

func (v *Verifier) throttleError(err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		return newError(CodeTooManyRequests, "Too many unsuccessful sign-in attempts. Try again later.", err)
	}
	return newError(CodeInternal, "Failed to check sign-in attempts.", err)
}

func tokenFromClaims(c *jwt.Claims) *Token {
	t := &Token{
		UID:       c.UID,
		Email:     c.Email,
		SessionID: c.SID,
		AuthTime:  time.Unix(c.AuthTime, 0),
	}
	if c.IssuedAt != nil {
		t.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		t.ExpiresAt = c.ExpiresAt.Time
	}
	return t
}
