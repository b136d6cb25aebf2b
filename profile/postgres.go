package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/MrEthical07/prepwise/profile/migrations"
)

// DBTX is the subset of database/sql the store needs. *sql.DB and *sql.Tx
// both satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore keeps documents in the profiles table.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore wraps an open connection. Call RunMigrations first on a
// fresh database.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens dsn with the pgx driver, pings it and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// gooseUp is swapped out in tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate profiles: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Document, error) {
	query :=
		`SELECT username, email FROM profiles
		 WHERE id = $1`

	var doc Document
	err := s.db.QueryRowContext(ctx, query, id).Scan(&doc.Username, &doc.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Set(ctx context.Context, id string, doc Document) error {
	query :=
		`INSERT INTO profiles (id, username, email)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET username = EXCLUDED.username, email = EXCLUDED.email, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, id, doc.Username, doc.Email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
