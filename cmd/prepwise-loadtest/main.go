// Command prepwise-loadtest measures session resolution and sign-out under
// concurrency against a real or embedded Redis.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/prepwise"
	"github.com/MrEthical07/prepwise/identity"
	"github.com/MrEthical07/prepwise/password"
	"github.com/MrEthical07/prepwise/profile"
)

const loadtestSecret = "prepwise-loadtest-secret-0123456789"

func main() {
	fs := pflag.NewFlagSet("prepwise-loadtest", pflag.ContinueOnError)
	var (
		users       = fs.Int("users", 20, "number of accounts to create")
		perUser     = fs.Int("sessions-per-user", 50, "session cookies minted per account")
		concurrency = fs.Int("concurrency", 64, "number of concurrent workers")
		ops         = fs.Int("ops", 50000, "resolve operations")
		redisAddr   = fs.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if *users <= 0 || *perUser <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, sessions-per-user, concurrency and ops must be > 0")
		os.Exit(2)
	}

	if err := run(*users, *perUser, *concurrency, *ops, *redisAddr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(users, perUser, concurrency, ops int, addr string) error {
	ctx := context.Background()

	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		fmt.Printf("using redis at %s\n", addr)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	engine, verifier, err := newEngine(client)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Printf("seeding %d users x %d sessions...\n", users, perUser)
	startSeed := time.Now()
	cookies, err := seed(ctx, engine, verifier, users, perUser)
	if err != nil {
		return err
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	resolveStats := runResolvePhase(ctx, engine, cookies, ops, concurrency)
	signOutStats := runSignOutPhase(ctx, engine, cookies, concurrency)

	fmt.Println("---- results ----")
	printStats("resolve", resolveStats)
	printStats("sign-out", signOutStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("resolved=%d absent=%d signed_out=%d\n",
		snap.Counters[prepwise.MetricSessionResolved],
		snap.Counters[prepwise.MetricSessionAbsent],
		snap.Counters[prepwise.MetricSignOut],
	)
	return nil
}

func newEngine(client redis.UniversalClient) (*prepwise.Engine, *identity.Verifier, error) {
	cfg := identity.DefaultConfig()
	cfg.PrivateKey = []byte(loadtestSecret)
	cfg.KeyPrefix = "pwlt"
	cfg.Password = password.Config{Memory: 16 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	verifier, err := identity.New(client, cfg)
	if err != nil {
		return nil, nil, err
	}

	engine, err := prepwise.New().
		WithVerifier(verifier).
		WithProfileStore(profile.NewRedisStore(client, "pwlt:users")).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return engine, verifier, nil
}

// seed creates users and mints perUser session cookies for each from a
// single password sign-in.
func seed(ctx context.Context, engine *prepwise.Engine, verifier *identity.Verifier, users, perUser int) ([]string, error) {
	const pw = "loadtest-password"
	cookies := make([]string, 0, users*perUser)

	for i := 0; i < users; i++ {
		email := fmt.Sprintf("user%d@loadtest.invalid", i)
		acct, err := verifier.CreateUser(ctx, email, pw)
		if err != nil && !identity.HasCode(err, identity.CodeEmailAlreadyExists) {
			return nil, fmt.Errorf("create %s: %w", email, err)
		}
		if err == nil {
			res := engine.Register(ctx, prepwise.RegisterRequest{IdentityID: acct.UID, DisplayName: fmt.Sprintf("user%d", i), Email: acct.Email})
			if !res.Success && res.Message != prepwise.MsgUserAlreadyExists {
				return nil, fmt.Errorf("register %s: %s", email, res.Message)
			}
		}

		idToken, err := verifier.SignInWithPassword(ctx, email, pw)
		if err != nil {
			return nil, fmt.Errorf("sign in %s: %w", email, err)
		}
		for j := 0; j < perUser; j++ {
			jar := newJar("")
			if res := engine.SignIn(ctx, jar, prepwise.SignInRequest{Email: email, IDToken: idToken}); !res.Success {
				return nil, fmt.Errorf("session for %s: %s", email, res.Message)
			}
			cookies = append(cookies, jar.value)
		}
	}
	return cookies, nil
}

func runResolvePhase(ctx context.Context, engine *prepwise.Engine, cookies []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				jar := newJar(cookies[r.Intn(len(cookies))])
				t0 := time.Now()
				_, ok := engine.CurrentUser(ctx, jar)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

// runSignOutPhase signs every session out once, then checks that none of
// them still resolves. A cookie that still resolves counts as a failure.
func runSignOutPhase(ctx context.Context, engine *prepwise.Engine, cookies []string, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, len(cookies))
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(cookies) {
					return
				}
				t0 := time.Now()
				res := engine.SignOut(ctx, newJar(cookies[i]))
				d := time.Since(t0)
				if !res.Success {
					atomic.AddInt64(&failures, 1)
				} else if _, ok := engine.CurrentUser(ctx, newJar(cookies[i])); ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

// jar is a single-cookie prepwise.CookieJar.
type jar struct {
	value string
}

func newJar(v string) *jar { return &jar{value: v} }

func (j *jar) Cookie(string) (string, bool) { return j.value, j.value != "" }

func (j *jar) SetCookie(c *http.Cookie) {
	if c.MaxAge < 0 {
		j.value = ""
		return
	}
	j.value = c.Value
}
