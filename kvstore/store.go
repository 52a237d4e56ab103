// Package kvstore persists whole JSON documents under string keys.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FloFRCD/nutrition-app-sub001/entity"
	"github.com/FloFRCD/nutrition-app-sub001/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("kvstore: key not found")

// Store is a byte-oriented key-value store. Implementations must be safe for
// concurrent use and must not retain the slices passed to Put.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the document at key into out. It reports false when the key
// is missing or the stored document cannot be decoded; the latter is logged
// and treated as no saved data.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warn("discarding undecodable document", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func PutJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Open builds the backend named in cfg. The returned close function releases
// backend connections; it does not close conn.
func Open(ctx context.Context, cfg entity.KVConfig, conn *gorm.DB) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "", "postgres":
		return NewGormStore(conn), noop, nil
	case "memory":
		return NewMemoryStore(), noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisStore(client, cfg.Redis.Prefix), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown kv backend %q", cfg.Backend)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
