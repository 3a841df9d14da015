package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const stateKey = "quickcart_db"

// SQLBackend keeps the document in a single-row table of a SQL database
type SQLBackend struct {
	db *sqlx.DB
}

// OpenPostgres connects to Postgres and ensures the state table exists
func OpenPostgres(databaseURL string) (*SQLBackend, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLBackend(db, `CREATE TABLE IF NOT EXISTS state (
		state_key TEXT PRIMARY KEY,
		version BIGINT NOT NULL,
		payload JSONB NOT NULL
	)`)
}

// OpenSQLite opens (creating if needed) a SQLite file and ensures the state table exists
func OpenSQLite(path string) (*SQLBackend, error) {
	if path == "" {
		path = "quickcart.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one writer connection avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	return newSQLBackend(db, `CREATE TABLE IF NOT EXISTS state (
		state_key TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		payload TEXT NOT NULL
	)`)
}

func newSQLBackend(db *sqlx.DB, ddl string) (*SQLBackend, error) {
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

// GetDB returns the underlying database connection
func (b *SQLBackend) GetDB() *sqlx.DB {
	return b.db
}

func (b *SQLBackend) Get(ctx context.Context) ([]byte, int64, error) {
	var row struct {
		Version int64  `db:"version"`
		Payload string `db:"payload"`
	}
	err := b.db.GetContext(ctx, &row,
		b.db.Rebind("SELECT version, payload FROM state WHERE state_key = ?"), stateKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	return []byte(row.Payload), row.Version, nil
}

func (b *SQLBackend) Put(ctx context.Context, payload []byte, version, expected int64) error {
	var (
		res sql.Result
		err error
	)

	switch expected {
	case AnyVersion:
		res, err = b.db.ExecContext(ctx, b.db.Rebind(`
			INSERT INTO state (state_key, version, payload) VALUES (?, ?, ?)
			ON CONFLICT (state_key) DO UPDATE SET version = excluded.version, payload = excluded.payload`),
			stateKey, version, string(payload))
	case 0:
		res, err = b.db.ExecContext(ctx, b.db.Rebind(`
			INSERT INTO state (state_key, version, payload) VALUES (?, ?, ?)
			ON CONFLICT (state_key) DO NOTHING`),
			stateKey, version, string(payload))
	default:
		res, err = b.db.ExecContext(ctx, b.db.Rebind(
			"UPDATE state SET version = ?, payload = ? WHERE state_key = ? AND version = ?"),
			version, string(payload), stateKey, expected)
	}
	if err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// Close closes the database connection
func (b *SQLBackend) Close() error {
	return b.db.Close()
}
