// Package store holds the client preferences persisted to local key-value
// storage: the favorites set and the theme.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/producthub/internal/core/port"
)

const (
	FavoritesKey = "favorites-storage"
	ThemeKey     = "theme-storage"

	snapshotVersion = 0
)

// Key namespaces base by the client identifier.
func Key(base, clientID string) string {
	if clientID == "" {
		return base
	}
	return base + ":" + clientID
}

type snapshot[S any] struct {
	State   S   `json:"state"`
	Version int `json:"version"`
}

// load rehydrates key into state. Absent or malformed documents leave
// state untouched.
func load[S any](ctx context.Context, kv port.KV, key string, state *S) {
	const op = "store.load"

	if err := read(ctx, kv, key, state); err != nil {
		slog.Warn("failed to read snapshot", "op", op, "key", key, "err", err)
	}
}

// read decodes the snapshot stored under key into state. Only storage
// failures are returned; an absent or malformed document is not an error
// and leaves state untouched.
func read[S any](ctx context.Context, kv port.KV, key string, state *S) error {
	const op = "store.read"

	data, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, port.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var s snapshot[S]
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Debug("malformed snapshot, using defaults",
			"op", op, "key", key, "err", err,
		)
		return nil
	}
	*state = s.State
	return nil
}

func save[S any](ctx context.Context, kv port.KV, key string, state S) error {
	const op = "store.save"

	data, err := json.Marshal(snapshot[S]{State: state, Version: snapshotVersion})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// keyLocks serializes read-modify-write cycles on one storage key across
// every store instance in the process.
var keyLocks = keyedMutex{locks: make(map[string]*refMutex)}

type refMutex struct {
	sync.Mutex
	refs int
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

// lock acquires the mutex of key and returns its release func.
func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

type subscribers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers[T]) notify(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
