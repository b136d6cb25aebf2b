//go:build integration

package profile

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Run with: PREPWISE_MONGO_URI=mongodb://localhost:27017 go test -tags integration ./profile
func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("PREPWISE_MONGO_URI")
	if uri == "" {
		t.Skip("PREPWISE_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := ConnectMongo(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("prepwise_test_" + uuid.NewString()[:8])
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	testStoreContract(t, NewMongoStore(db, ""))
}
