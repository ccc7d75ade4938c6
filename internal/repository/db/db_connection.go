package db

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Config selects the storage backend. Path is used by sqlite, DSN by pgx.
type Config struct {
	Driver string
	Path   string
	DSN    string
}

// Open connects to the configured backend and ensures tables exist.
func Open(cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		return InitDB(cfg.Path)
	case DriverPostgres:
		return InitPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite is not great with many writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// InitPostgres opens a pgx-backed pool and ensures tables exist.
func InitPostgres(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pgx driver needs db.dsn")
	}
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// The statements below are valid for both SQLite and PostgreSQL.

const schemaTanks = `
CREATE TABLE IF NOT EXISTS tanks (
    id TEXT PRIMARY KEY,
    sort_order INTEGER NOT NULL DEFAULT 0,
    data TEXT NOT NULL
);
`

const schemaSettings = `
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    max_sensor_no_signal_time INTEGER NOT NULL,
    max_sensor_log_records INTEGER NOT NULL,
    sensor_log_enabled BOOLEAN NOT NULL
);
`

const schemaSensorLog = `
CREATE TABLE IF NOT EXISTS sensor_log (
    id TEXT PRIMARY KEY,
    received_at TIMESTAMP NOT NULL,
    topic TEXT NOT NULL,
    payload TEXT NOT NULL
);
`

const indexSensorLog = `
CREATE INDEX IF NOT EXISTS sensor_log_received_at ON sensor_log (received_at);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaTanks,
		schemaSettings,
		schemaSensorLog,
		indexSensorLog,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
