// Package storage implements the durable key-value storage behind the
// persisted favorites and theme stores.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/niksmo/producthub/internal/core/port"
)

const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

type Config struct {
	Driver     string
	Dir        string
	RedisAddr  string
	SQLitePath string
}

// KV is a [port.KV] owning a connection or file handle.
type KV interface {
	port.KV
	Close()
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (KV, error) {
	const op = "storage.Open"

	var (
		kv  KV
		err error
	)
	switch cfg.Driver {
	case DriverFile, "":
		kv, err = NewFileKV(afero.NewOsFs(), cfg.Dir)
	case DriverRedis:
		kv, err = NewRedisKV(ctx, cfg.RedisAddr)
	case DriverSQLite:
		kv, err = NewSQLiteKV(ctx, cfg.SQLitePath)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return kv, nil
}
