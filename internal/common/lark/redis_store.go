package lark

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lark-ats/internal/common/config"
	"lark-ats/internal/common/errors"
)

// RedisTokenStore shares tenant tokens between processes, so repeated CLI
// runs reuse one token until it nears expiry.
type RedisTokenStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisTokenStore(client redis.UniversalClient, keyPrefix string) *RedisTokenStore {
	if keyPrefix == "" {
		keyPrefix = "lark-ats"
	}
	return &RedisTokenStore{client: client, keyPrefix: keyPrefix}
}

// NewRedisClient creates a go-redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     2,
	})
}

func (s *RedisTokenStore) key(appID string) string {
	return fmt.Sprintf("%s:tenant_access_token:%s", s.keyPrefix, appID)
}

func (s *RedisTokenStore) Get(ctx context.Context, appID string) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key(appID)).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewTokenStoreError(err)
	}
	return token, true, nil
}

func (s *RedisTokenStore) Set(ctx context.Context, appID, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(appID), token, ttl).Err(); err != nil {
		return errors.NewTokenStoreError(err)
	}
	return nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, appID string) error {
	if err := s.client.Del(ctx, s.key(appID)).Err(); err != nil {
		return errors.NewTokenStoreError(err)
	}
	return nil
}
