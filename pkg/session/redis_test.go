package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/testutils"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/session"
)

func TestManager_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	shop := testutils.NewShop(t)
	ctx := context.Background()
	manager := session.NewManager(
		redis.NewFromClient(client, redis.WithTTL(time.Minute)),
		session.WithLocker(redis.NewLocker(client, "parley:")),
	)

	model := startPlaceOrder(t, shop, &testutils.Customer{Name: "Ada"})
	require.NoError(t, model.ParamModel(0).SetParsableText("plum"))
	require.NoError(t, manager.Park(ctx, "d-redis", model))

	assert.True(t, mr.Exists("parley:dialog:d-redis"))
	assert.False(t, mr.Exists("parley:lock:d-redis"), "the lock is released after parking")

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"d-redis"}, ids)

	resumed, err := manager.Resume(ctx, "d-redis", shop.Env, domain.WhereObjectForms)
	require.NoError(t, err)
	assert.Equal(t, "plum", resumed.Value(0).Pojo)

	require.NoError(t, manager.Discard(ctx, "d-redis"))
	assert.False(t, mr.Exists("parley:dialog:d-redis"))
}
