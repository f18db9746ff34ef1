package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/common/logger"
)

const keyPrefix = "media-preview:image:"

// Store keeps fetched image bytes in Redis with an optional expiration.
type Store struct {
	client     *redis.Client
	expiration time.Duration
}

var _ api.BytesCache = (*Store)(nil)

func NewStore(ctx context.Context, addr string, password string, db int, expiration time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	logger.Info.Printf("Using redis cache at %s", addr)
	return NewStoreWithClient(client, expiration), nil
}

func NewStoreWithClient(client *redis.Client, expiration time.Duration) *Store {
	return &Store{
		client:     client,
		expiration: expiration,
	}
}

func redisKey(key apitype.CacheKey) string {
	return keyPrefix + key.String()
}

func (s *Store) Get(ctx context.Context, key apitype.CacheKey) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, api.ErrNotCached
	} else if err != nil {
		return nil, err
	}
	if s.expiration > 0 {
		if err := s.client.Expire(ctx, redisKey(key), s.expiration).Err(); err != nil {
			logger.Warn.Printf("Could not refresh expiration of %s: %s", key, err)
		}
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, key apitype.CacheKey, data []byte) error {
	return s.client.Set(ctx, redisKey(key), data, s.expiration).Err()
}

func (s *Store) Remove(ctx context.Context, key apitype.CacheKey) error {
	return s.client.Del(ctx, redisKey(key)).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
