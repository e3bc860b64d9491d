package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/niksmo/producthub/internal/core/port"
)

var _ port.KV = (*FileKV)(nil)

const defaultDir = "data"

// FileKV keeps one JSON document per key in a directory.
type FileKV struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

func NewFileKV(fsys afero.Fs, dir string) (*FileKV, error) {
	const op = "NewFileKV"

	if dir == "" {
		dir = defaultDir
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &FileKV{fs: fsys, dir: dir}, nil
}

func (s *FileKV) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "FileKV.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, port.ErrKeyNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// Set replaces the document atomically: a reader sees either the old or
// the new value, never a partial write.
func (s *FileKV) Set(ctx context.Context, key string, value []byte) error {
	const op = "FileKV.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.path(key)
	tmp := name + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, value, 0o644); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FileKV) Close() {}

func (s *FileKV) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}
