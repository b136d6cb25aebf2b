// Command prepwise serves the interview-practice web app.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/prepwise"
	"github.com/MrEthical07/prepwise/identity"
	"github.com/MrEthical07/prepwise/internal/config"
	"github.com/MrEthical07/prepwise/internal/logging"
	"github.com/MrEthical07/prepwise/metrics/export/prometheus"
	"github.com/MrEthical07/prepwise/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args, nil, os.Stderr)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return nil
		}
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logger.With("module", "server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, closeRedis, err := openRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	secret := cfg.Auth.SigningSecret
	if secret == "" {
		secret, err = ephemeralSecret()
		if err != nil {
			return err
		}
		log.Warn(ctx, "no signing secret configured, sessions will not survive a restart")
	}

	idCfg := identity.DefaultConfig()
	idCfg.PrivateKey = []byte(secret)
	idCfg.Issuer = cfg.Auth.Issuer
	idCfg.RateLimit.MaxAttempts = cfg.Auth.SignInMaxAttempts
	idCfg.RateLimit.Window = cfg.Auth.SignInWindow
	verifier, err := identity.New(rdb, idCfg)
	if err != nil {
		return err
	}

	profiles, err := openProfileStore(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer profiles.close()
	log.Info(ctx, "profile store ready", "backend", cfg.Profile.Backend)

	engCfg := prepwise.DefaultConfig()
	engCfg.Session.Lifetime = cfg.Auth.SessionLifetime
	engCfg.Cookie.Secure = cfg.Auth.CookieSecure
	engCfg.Metrics.Enabled = cfg.Metrics.Enabled

	builder := prepwise.New().
		WithConfig(engCfg).
		WithVerifier(verifier).
		WithProfileStore(profiles.store).
		WithLogger(logger)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(prepwise.NewLoggerSink(logger))
	}
	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := web.Options{
		Auth:         engine,
		Accounts:     verifier,
		Logger:       logger,
		SignInPath:   engine.SignInPath(),
		CookieSecure: cfg.Auth.CookieSecure,
		TrustProxy:   cfg.HTTP.TrustProxy,
		HealthChecks: map[string]web.HealthCheck{
			"redis":   verifier.Ping,
			"profile": profiles.ping,
		},
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = prometheus.NewPrometheusExporter(engine).Handler()
		opts.MetricsPath = cfg.Metrics.Path
	}
	app, err := web.New(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           app.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Slog().Handler(), slog.LevelWarn),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()
	log.Info(ctx, "listening", "addr", cfg.HTTP.Addr, "env", cfg.Environment)

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openRedis connects to the configured Redis, or starts an in-process one
// when cfg.Redis.Embedded is set.
func openRedis(ctx context.Context, cfg *config.Config, log logging.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.Redis.Addr
	var mr *miniredis.Miniredis
	if cfg.Redis.Embedded {
		var err error
		mr, err = miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded redis: %w", err)
		}
		addr = mr.Addr()
		log.Warn(ctx, "using embedded redis, data is lost on exit", "addr", addr)
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cleanup := func() {
		_ = rdb.Close()
		if mr != nil {
			mr.Close()
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, cleanup, nil
}

func ephemeralSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate signing secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
