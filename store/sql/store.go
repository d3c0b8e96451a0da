package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"
	dbFilename = "sdk.sqlite.db"
)

//go:embed migration/*
var migrations embed.FS

// OpenDb opens, and migrates if needed, the sqlite database under the
// given directory.
func OpenDb(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, os.ModeDir|0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %s", err)
	}

	db, err := sql.Open(driverName, filepath.Join(baseDir, dbFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %s", err)
	}
	// sqlite does not support concurrent writers.
	db.SetMaxOpenConns(1)

	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to init migration driver: %s", err)
	}
	source, err := iofs.New(migrations, "migration")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %s", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to init migrations: %s", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("failed to run migrations: %s", err)
	}

	return db, nil
}

func execTx(db *sql.DB, txBody func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	// nolint:errcheck
	defer tx.Rollback()

	if err := txBody(tx); err != nil {
		return err
	}

	return tx.Commit()
}
