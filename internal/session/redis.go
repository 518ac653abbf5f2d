package session

import (
	"context"
	"errors"
	"time"

	"borrower-client/internal/common/database"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares one session between several client processes. Keys are
// namespaced by prefix and every change is announced on prefix+"events".
type RedisStore struct {
	client *database.RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *database.RedisClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(k string) string { return r.prefix + k }

// EventsChannel is where change notifications are published.
func (r *RedisStore) EventsChannel() string { return r.prefix + "events" }

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key))
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl); err != nil {
		return err
	}
	return r.client.Publish(ctx, r.EventsChannel(), "set:"+key)
}

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...); err != nil {
		return err
	}
	for _, k := range keys {
		if err := r.client.Publish(ctx, r.EventsChannel(), "del:"+k); err != nil {
			return err
		}
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
