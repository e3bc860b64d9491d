package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/niksmo/producthub/internal/core/port"
)

var _ port.KV = (*RedisKV)(nil)

const pingTimeout = 5 * time.Second

type RedisKV struct {
	rdb *redis.Client
}

func NewRedisKV(ctx context.Context, addr string) (*RedisKV, error) {
	const op = "NewRedisKV"
	log := slog.With("op", op)

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}
	log.Info("redis is available", "addr", addr)
	return &RedisKV{rdb: rdb}, nil
}

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "RedisKV.Get"

	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, port.ErrKeyNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	const op = "RedisKV.Set"

	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *RedisKV) Close() {
	const op = "RedisKV.Close"
	log := slog.With("op", op)

	log.Info("closing redis client...")
	if err := s.rdb.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("redis client is closed")
}
