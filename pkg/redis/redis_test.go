package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	cli := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { cli.Close() })
	return NewStore(cli), srv
}

func TestStore_SetNXClaimsOnce(t *testing.T) {
	store, srv := newTestStore(t)
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "booking:1:status:confirmed", "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetNX(ctx, "booking:1:status:confirmed", "1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	srv.FastForward(2 * time.Hour)
	ok, err = store.SetNX(ctx, "booking:1:status:confirmed", "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_GetAndDel(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = store.SetNX(ctx, "k", "v", time.Minute)
	require.NoError(t, err)

	val, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", val)

	require.NoError(t, store.Del(ctx, "k"))
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_UnreachableRedis(t *testing.T) {
	cli := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:0",
		DialTimeout: 50 * time.Millisecond,
	})
	defer cli.Close()
	store := NewStore(cli)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := store.SetNX(ctx, "k", "v", time.Second)
	assert.Error(t, err)
}
