package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/prepwise/internal/rate"
	"github.com/MrEthical07/prepwise/password"
)

const week = 7 * 24 * time.Hour

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestVerifier(t *testing.T) (*Verifier, *testClock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	cfg := DefaultConfig()
	cfg.PrivateKey = []byte("test-secret-test-secret-test-secret")
	cfg.Password = password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	cfg.RateLimit = rate.Config{MaxAttempts: 3, Window: time.Minute, EnableIPThrottle: true}
	cfg.Now = clock.Now

	v, err := New(rdb, cfg)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v, clock, mr
}

func mustCreate(t *testing.T, v *Verifier, email, pw string) Account {
	t.Helper()
	acct, err := v.CreateUser(context.Background(), email, pw)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return acct
}

func mustSessionCookie(t *testing.T, v *Verifier, email, pw string) string {
	t.Helper()
	ctx := context.Background()
	idTok, err := v.SignInWithPassword(ctx, email, pw)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	cookie, err := v.CreateSessionCookie(ctx, idTok, week)
	if err != nil {
		t.Fatalf("create session cookie: %v", err)
	}
	return cookie
}

func TestCreateUserValidation(t *testing.T) {
	v, _, _ := newTestVerifier(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		email string
		pw    string
		code  string
	}{
		{"bad email", "not-an-email", "secret1", CodeInvalidEmail},
		{"display name form", "Bob <bob@example.com>", "secret1", CodeInvalidEmail},
		{"short password", "bob@example.com", "12345", CodeWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.CreateUser(ctx, tc.email, tc.pw)
			if !HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	v, _, _ := newTestVerifier(t)
	first := mustCreate(t, v, "jane@example.com", "secret1")
	if first.UID == "" || first.PasswordHash != "" {
		t.Fatalf("unexpected account: %+v", first)
	}

	_, err := v.CreateUser(context.Background(), "JANE@example.com", "secret2")
	if !HasCode(err, CodeEmailAlreadyExists) {
		t.Fatalf("expected email-already-exists, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	v, _, _ := newTestVerifier(t)
	ctx := context.Background()
	created := mustCreate(t, v, "jane@example.com", "secret1")

	got, err := v.GetUserByEmail(ctx, "Jane@Example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.UID != created.UID {
		t.Fatalf("expected uid %s, got %s", created.UID, got.UID)
	}

	if _, err := v.GetUserByEmail(ctx, "nobody@example.com"); !HasCode(err, CodeUserNotFound) {
		t.Fatalf("expected user-not-found, got %v", err)
	}
}

func TestSignInWithPassword(t *testing.T) {
	v, _, _ := newTestVerifier(t)
	ctx := context.Background()
	created := mustCreate(t, v, "jane@example.com", "secret1")

	idTok, err := v.SignInWithPassword(ctx, "jane@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	tok, err := v.VerifyIDToken(ctx, idTok)
	if err != nil {
		t.Fatalf("verify id token: %v", err)
	}
	if tok.UID != created.UID || tok.Email != "jane@example.com" {
		t.Fatalf("unexpected token: %+v", tok)
	}

	if _, err := v.SignInWithPassword(ctx, "jane@example.com", "wrong-pw"); !HasCode(err, CodeInvalidCredential) {
		t.Fatalf("expected invalid-credential, got %v", err)
	}
	if _, err := v.SignInWithPassword(ctx, "ghost@example.com", "secret1"); !HasCode(err, CodeInvalidCredential) {
		t.Fatalf("expected invalid-credential for unknown email, got %v", err)
	}
}

func TestSignInThrottled(t *testing.T) {
	v, _, _ := newTestVerifier(t)
	ctx := WithClientIP(context.Background(), "10.1.1.1")
	mustCreate(t, v, "jane@example.com", "secret1")

	for i := 0; i < 3; i++ {
		if _, err := v.SignInWithPassword(ctx, "jane@example.com", "nope-nope"); !HasCode(err, CodeInvalidCredential) {
			t.Fatalf("attempt %d: expected invalid-credential, got %v", i+1, err)
		}
	}
	_, err := v.SignInWithPassword(ctx, "jane@example.com", "secret1")
	if !HasCode(err, CodeTooManyRequests) {
		t.Fatalf("expected too-many-requests, got %v", err)
	}
}

func TestVerifyIDTokenExpired(t *testing.T) {
	v, clock, _ := newTestVerifier(t)
	ctx := context.Background()
	mustCreate(t, v, "jane@example.com", "secret1")

	idTok, err := v.SignInWithPassword(ctx, "jane@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	clock.Advance(time.Hour + time.Second)

	if _, err := v.VerifyIDToken(ctx, idTok); !HasCode(err, CodeIDTokenExpired) {
		t.Fatalf("expected id-token-expired, got %v", err)
	}
	if _, err := v.VerifyIDToken(ctx, "garbage"); !HasCode(err, CodeInvalidIDToken) {
		t.Fatalf("expected invalid-id-token, got %v", err)
	}
}

func TestCreateSessionCookieDurationBounds(t *testing.T) {
	v, _, _ := newTestVerifier(t)
	ctx := context.Background()
	mustCreate(t, v, "jane@example.com", "secret1")
	idTok, err := v.SignInWithPassword(ctx, "jane@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	for _, d := range []time.Duration{time.Minute, 15 * 24 * time.Hour} {
		if _, err := v.CreateSessionCookie(ctx, idTok, d); !HasCode(err, CodeInvalidSessionCookieDuration) {
			t.Fatalf("expected invalid duration for %s, got %v", d, err)
		}
	}
	for _, d := range []time.Duration{MinSessionCookieDuration, MaxSessionCookieDuration} {
		if _, err := v.CreateSessionCookie(ctx, idTok, d); err != nil {
			t.Fatalf("expected %s to be accepted, got %v", d, err)
		}
	}
}

func TestCreateSessionCookieRequiresRecentSignIn(t *testing.T) {
	v, clock, _ := newTestVerifier(t)
	ctx := context.Background()
	mustCreate(t, v, "jane@example.com", "secret1")
	idTok, err := v.SignInWithPassword(ctx, "jane@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	clock.Advance(6 * time.Minute)
	if _, err := v.CreateSessionCookie(ctx, idTok, week); !HasCode(err, CodeInvalidIDToken) {
		t.Fatalf("expected invalid-id-token for stale sign-in, got %v", err)
	}
}

func TestVerifySessionCookie(t *testing.T) {
	v, _, _ := newTestVerifier(t)
	ctx := context.Background()
	created := mustCreate(t, v, "jane@example.com", "secret1")
	cookie := mustSessionCookie(t, v, "jane@example.com", "secret1")

	tok, err := v.VerifySessionCookie(ctx, cookie, true)
	if err != nil {
		t.Fatalf("verify session cookie: %v", err)
	}
	if tok.UID != created.UID || tok.SessionID == "" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if got := tok.ExpiresAt.Sub(tok.IssuedAt); got != week {
		t.Fatalf("expected one-week cookie, got %s", got)
	}

	idTok, err := v.SignInWithPassword(ctx, "jane@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if _, err := v.VerifySessionCookie(ctx, idTok, false); !HasCode(err, CodeInvalidSessionCookie) {
		t.Fatalf("expected id token to be rejected as session cookie, got %v", err)
	}
}

func TestVerifySessionCookieExpired(t *testing.T) {
	v, clock, _ := newTestVerifier(t)
	mustCreate(t, v, "jane@example.com", "secret1")
	cookie := mustSessionCookie(t, v, "jane@example.com", "secret1")

	clock.Advance(week + time.Second)
	if _, err := v.VerifySessionCookie(context.Background(), cookie, true); !HasCode(err, CodeSessionCookieExpired) {
		t.Fatalf("expected session-cookie-expired, got %v", err)
	}
}

func TestRevokeSession(t *testing.T) {
	v, _, _ := newTestVerifier(t)
	ctx := context.Background()
	mustCreate(t, v, "jane@example.com", "secret1")
	cookie := mustSessionCookie(t, v, "jane@example.com", "secret1")

	if err := v.RevokeSession(ctx, cookie); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := v.VerifySessionCookie(ctx, cookie, true); !HasCode(err, CodeSessionCookieRevoked) {
		t.Fatalf("expected revoked, got %v", err)
	}
	// Without the revocation check the signature alone still verifies.
	if _, err := v.VerifySessionCookie(ctx, cookie, false); err != nil {
		t.Fatalf("expected unchecked verify to pass, got %v", err)
	}
	if err := v.RevokeSession(ctx, cookie); err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
}

func TestRevokeRefreshTokens(t *testing.T) {
	v, clock, _ := newTestVerifier(t)
	ctx := context.Background()
	acct := mustCreate(t, v, "jane@example.com", "secret1")

	a := mustSessionCookie(t, v, "jane@example.com", "secret1")
	b := mustSessionCookie(t, v, "jane@example.com", "secret1")
	if n, _ := v.ActiveSessions(ctx, acct.UID); n != 2 {
		t.Fatalf("expected 2 active sessions, got %d", n)
	}

	clock.Advance(time.Second)
	if err := v.RevokeRefreshTokens(ctx, acct.UID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	for _, c := range []string{a, b} {
		if _, err := v.VerifySessionCookie(ctx, c, true); !HasCode(err, CodeSessionCookieRevoked) {
			t.Fatalf("expected revoked, got %v", err)
		}
	}

	clock.Advance(time.Second)
	fresh := mustSessionCookie(t, v, "jane@example.com", "secret1")
	if _, err := v.VerifySessionCookie(ctx, fresh, true); err != nil {
		t.Fatalf("expected post-revocation session to verify, got %v", err)
	}

	if err := v.RevokeRefreshTokens(ctx, "missing"); !HasCode(err, CodeUserNotFound) {
		t.Fatalf("expected user-not-found, got %v", err)
	}
}

func TestRedisFailureIsInternal(t *testing.T) {
	v, _, mr := newTestVerifier(t)
	mr.Close()

	_, err := v.GetUserByEmail(context.Background(), "jane@example.com")
	if !HasCode(err, CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	base := newError(CodeEmailAlreadyExists, "taken", nil)
	wrapped := fmt.Errorf("register: %w", base)

	if !HasCode(wrapped, CodeEmailAlreadyExists) {
		t.Fatal("expected HasCode to see through wrapping")
	}
	if HasCode(wrapped, CodeUserNotFound) {
		t.Fatal("expected HasCode to reject other codes")
	}
	if HasCode(errors.New("plain"), CodeEmailAlreadyExists) {
		t.Fatal("expected plain error to carry no code")
	}
	if CodeOf(wrapped) != CodeEmailAlreadyExists {
		t.Fatalf("unexpected CodeOf: %q", CodeOf(wrapped))
	}
}
