package profile

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/prepwise/profile/migrations"
)

const (
	selectProfileQ = `(?s)^SELECT\s+username,\s*email\s+FROM\s+profiles\s+WHERE\s+id\s*=\s*\$1\s*$`
	upsertProfileQ = `(?s)^INSERT\s+INTO\s+profiles\s*\(id,\s*username,\s*email\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(id\)\s*DO\s+UPDATE.*$`
)

func newPostgresWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresGetFound(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectQuery(selectProfileQ).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"username", "email"}).AddRow("jane", "jane@example.com"))

	doc, err := s.Get(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, Document{Username: "jane", Email: "jane@example.com"}, doc)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectQuery(selectProfileQ).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetDBError(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectQuery(selectProfileQ).
		WithArgs("u-1").
		WillReturnError(errors.New("db down"))

	_, err := s.Get(context.Background(), "u-1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "db down")
}

func TestPostgresSetUpserts(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectExec(upsertProfileQ).
		WithArgs("u-1", "jane", "jane@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "u-1", Document{Username: "jane", Email: "jane@example.com"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetDBError(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectExec(upsertProfileQ).
		WithArgs("u-1", "jane", "jane@example.com").
		WillReturnError(errors.New("constraint"))

	err := s.Set(context.Background(), "u-1", Document{Username: "jane", Email: "jane@example.com"})
	require.ErrorContains(t, err, "constraint")
}

func TestRunMigrationsUsesEmbeddedFS(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(context.Background(), db))
	require.Equal(t, ".", gotDir)

	gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	require.ErrorContains(t, RunMigrations(context.Background(), db), "boom")
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations.Migrations, ".")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, e := range entries {
		body, err := fs.ReadFile(migrations.Migrations, e.Name())
		require.NoError(t, err)
		require.Contains(t, string(body), "-- +goose Up", e.Name())
		require.Contains(t, string(body), "-- +goose Down", e.Name())
	}
}
