// Package session holds the client's persisted state: tokens, selected
// entities and onboarding drafts.
package session

import (
	"context"
	"fmt"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/database"
)

// Store persists string values by key. Implementations are safe for concurrent
// use; concurrent writers to one key resolve last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// NewStore builds the backend named by cfg.Backend.
func NewStore(cfg config.SessionConfig, redisCfg config.RedisConfig) (Store, error) {
	switch cfg.Backend {
	case config.SessionBackendMemory:
		return NewMemoryStore(), nil
	case config.SessionBackendFile:
		return NewFileStore(cfg.FilePath)
	case config.SessionBackendRedis:
		rc, err := database.NewRedis(redisCfg)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(rc, cfg.KeyPrefix, config.GetDuration(cfg.TTL*1000)), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
