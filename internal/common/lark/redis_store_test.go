package lark

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lark-ats/internal/common/config"
	"lark-ats/internal/common/errors"
)

func TestRedisTokenStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	store := NewRedisTokenStore(client, "test")
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "cli_app")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "cli_app", "t-abc", 90*time.Minute))

	token, ok, err := store.Get(ctx, "cli_app")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t-abc", token)
	assert.Equal(t, 90*time.Minute, mr.TTL("test:tenant_access_token:cli_app"))

	mr.FastForward(91 * time.Minute)
	_, ok, err = store.Get(ctx, "cli_app")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTokenStore_Delete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisTokenStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "cli_app", "t-abc", time.Hour))
	assert.True(t, mr.Exists("lark-ats:tenant_access_token:cli_app"))

	require.NoError(t, store.Delete(ctx, "cli_app"))
	assert.False(t, mr.Exists("lark-ats:tenant_access_token:cli_app"))
}

func TestRedisTokenStore_Errors(t *testing.T) {
	ctx := context.Background()
	key := "lark-ats:tenant_access_token:cli_app"

	t.Run("get failure is wrapped", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet(key).SetErr(stderrors.New("connection refused"))

		store := NewRedisTokenStore(client, "lark-ats")
		_, ok, err := store.Get(ctx, "cli_app")

		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTokenStoreFailed))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache miss is not an error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet(key).RedisNil()

		store := NewRedisTokenStore(client, "lark-ats")
		_, ok, err := store.Get(ctx, "cli_app")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set failure is wrapped", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectSet(key, "t-abc", time.Hour).SetErr(stderrors.New("READONLY"))

		store := NewRedisTokenStore(client, "lark-ats")
		err := store.Set(ctx, "cli_app", "t-abc", time.Hour)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "READONLY")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
