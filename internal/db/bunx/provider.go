// Package bunx opens Bun database handles for the role-mapping store. The
// backend is selected from the DSN: postgres:// DSNs use pgdriver, everything
// else is treated as a SQLite path.
package bunx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite" // SQLite driver
)

// Backend identifies the database backend behind a DSN.
type Backend string

const (
	BackendPostgreSQL Backend = "postgres"
	BackendSQLite     Backend = "sqlite"
)

// DetectBackend determines the backend from a DSN string. SQLite covers
// file: paths, :memory:, and plain file paths.
func DetectBackend(dsn string) Backend {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return BackendPostgreSQL
	}
	return BackendSQLite
}

// Open creates a Bun handle for the DSN and verifies connectivity.
func Open(dsn string, maxConns int) (*bun.DB, error) {
	switch DetectBackend(dsn) {
	case BackendPostgreSQL:
		return openPostgres(dsn, maxConns)
	default:
		return openSQLite(dsn)
	}
}

func openPostgres(dsn string, maxConns int) (*bun.DB, error) {
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)

	if maxConns <= 0 {
		maxConns = 10
	}
	sqldb.SetMaxOpenConns(maxConns)
	sqldb.SetMaxIdleConns(maxConns)

	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(context.Background()); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func openSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Single writer connection; SQLite serializes writes anyway.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Close closes the database handle. Safe on nil.
func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
