package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/prepwise/internal/config"
	"github.com/MrEthical07/prepwise/profile"
)

type profileBackend struct {
	store profile.Store
	ping  func(ctx context.Context) error
	close func()
}

// openProfileStore connects the configured backend. Postgres migrations run
// before the store is returned.
func openProfileStore(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient) (*profileBackend, error) {
	switch cfg.Profile.Backend {
	case config.BackendRedis:
		return &profileBackend{
			store: profile.NewRedisStore(rdb, cfg.Profile.RedisPrefix),
			ping:  func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			close: func() {},
		}, nil

	case config.BackendPostgres:
		db, err := profile.OpenPostgres(ctx, cfg.Profile.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return &profileBackend{
			store: profile.NewPostgresStore(db),
			ping:  db.PingContext,
			close: func() { _ = db.Close() },
		}, nil

	case config.BackendMongo:
		client, err := profile.ConnectMongo(ctx, cfg.Profile.MongoURI)
		if err != nil {
			return nil, err
		}
		return &profileBackend{
			store: profile.NewMongoStore(client.Database(cfg.Profile.MongoDatabase), cfg.Profile.MongoCollection),
			ping:  func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}
	return nil, fmt.Errorf("unknown profile backend %q", cfg.Profile.Backend)
}
