package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBlobStorage keeps each cart under "cart:user:<owner>" with a sliding TTL.
type RedisBlobStorage struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisBlobStorage(client redis.Cmdable, ttl time.Duration) *RedisBlobStorage {
	return &RedisBlobStorage{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisBlobStorage) getKey(owner string) string {
	return fmt.Sprintf("cart:user:%s", owner)
}

func (r *RedisBlobStorage) Get(ctx context.Context, owner string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.getKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set replaces the whole value with one SET, which Redis applies atomically.
func (r *RedisBlobStorage) Set(ctx context.Context, owner string, blob []byte) error {
	return r.client.Set(ctx, r.getKey(owner), blob, r.ttl).Err()
}

func (r *RedisBlobStorage) Delete(ctx context.Context, owner string) error {
	return r.client.Del(ctx, r.getKey(owner)).Err()
}
