package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/niksmo/producthub/internal/core/port"
)

var _ port.KV = (*SQLiteKV)(nil)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV opens the database at path and applies pending migrations.
func NewSQLiteKV(ctx context.Context, path string) (*SQLiteKV, error) {
	const op = "NewSQLiteKV"
	log := slog.With("op", op)

	if path == "" {
		return nil, fmt.Errorf("%s: sqlite path is empty", op)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}
	if err := Migrate(db, NewMigrationLogger(false)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("database is available", "path", path)
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "SQLiteKV.Get"

	var b []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?;`, key).Scan(&b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, port.ErrKeyNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	const op = "SQLiteKV.Set"

	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at;`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SQLiteKV) Close() {
	const op = "SQLiteKV.Close"
	log := slog.With("op", op)

	log.Info("closing sql database...")
	if err := s.db.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("sql database is closed")
}

// Migrate applies the embedded schema migrations to db. The migrate
// instance is not closed because that would close db as well.
func Migrate(db *sql.DB, logger migrate.Logger) error {
	const op = "storage.Migrate"

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	drv, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.Log = logger

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	m.Log.Printf("migration applied")
	return nil
}

// MigrationLogger adapts slog to [migrate.Logger].
type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger(verbose bool) *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default().With("op", "storage.Migrate"),
		verbose: verbose,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(fmt.Sprintf(format, v...))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}
