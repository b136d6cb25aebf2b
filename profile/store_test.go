package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// testStoreContract exercises the behaviour every backend shares.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	doc := Document{Username: "jane", Email: "jane@example.com"}
	require.NoError(t, s.Set(ctx, "u-1", doc))

	got, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, doc, got)

	updated := Document{Username: "janet", Email: "jane@example.com"}
	require.NoError(t, s.Set(ctx, "u-1", updated))
	got, err = s.Get(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, updated, got, "set is last-write-wins")

	_, err = s.Get(ctx, "u-2")
	require.ErrorIs(t, err, ErrNotFound)
}
