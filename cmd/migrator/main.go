// Command migrator applies the key-value schema to a SQLite storage file
// ahead of the first start.
package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/pflag"

	"github.com/niksmo/producthub/internal/adapter/storage"
)

const storagePathFlag = "storage-path"

func main() {
	storagePath := getFlagValue()
	validateFlag(storagePath)
	makeMigrations(storagePath)
}

func getFlagValue() string {
	storagePath := pflag.StringP(storagePathFlag, "s", "", "sqlite database file")
	pflag.Parse()
	return *storagePath
}

func validateFlag(storagePath string) {
	if storagePath == "" {
		slog.Error("too few args", "err", fmt.Errorf("--%s flag: required", storagePathFlag))
		fallDown()
	}
}

func makeMigrations(storagePath string) {
	if err := os.MkdirAll(filepath.Dir(storagePath), 0o755); err != nil {
		slog.Error("failed to create storage dir", "err", err)
		fallDown()
	}

	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		slog.Error("failed to open storage", "err", err)
		fallDown()
	}
	defer db.Close()

	if err := storage.Migrate(db, storage.NewMigrationLogger(true)); err != nil {
		slog.Error("failed to migrate", "err", err)
		_ = db.Close()
		fallDown()
	}
}

func fallDown() {
	os.Exit(2)
}
