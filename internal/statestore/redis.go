package statestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avelinelabs/boutiq/pkg/config"
	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyNamespace = "boutiq"

type redisStore struct {
	raw *redis.Client
}

// OpenRedis bootstraps a Redis-backed store and verifies connectivity.
func OpenRedis(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.RedisDialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.RedisReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.RedisWriteTimeout
	}

	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &redisStore{raw: raw}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.raw.Get(ctx, s.buildKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "read state")
	}
	return value, nil
}

func (s *redisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.raw.Set(ctx, s.buildKey(key), value, 0).Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "write state")
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.raw.Del(ctx, s.buildKey(key)).Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete state")
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.raw.Close()
}

func (s *redisStore) buildKey(key string) string {
	return strings.Join([]string{keyNamespace, key}, ":")
}
