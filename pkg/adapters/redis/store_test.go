package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSnapshotStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	snap := &domain.PendingParams{ActionID: "placeOrder"}

	require.NoError(t, store.Save(ctx, "dialog-ttl", snap))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "dialog-ttl")

	// Expires the key; the index is pruned against the wall clock.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "dialog-ttl")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "my-dialog", &domain.PendingParams{ActionID: "greet"}))

	assert.True(t, mr.Exists("custom:app:my-dialog"), "snapshot key uses the custom prefix")
	assert.True(t, mr.Exists("custom:app:index"), "index key uses the custom prefix")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"my-dialog"}, ids)
}

func TestRedisStore_Corrupt(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	require.NoError(t, mr.Set("parley:dialog:bad", "{not json"))
	_, err := store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
}
