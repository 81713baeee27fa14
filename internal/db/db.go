package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := &DB{sql: sqldb}
	if err := db.migrate(context.Background()); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			updated_by TEXT NOT NULL,
			run_id TEXT NOT NULL DEFAULT ''
		);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := d.sql.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Record is one named entry of the settings table.
type Record struct {
	Key       string
	Value     json.RawMessage
	UpdatedAt time.Time
	UpdatedBy string
	RunID     string
}

// PutRecord overwrites the record stored under r.Key.
func (d *DB) PutRecord(ctx context.Context, r Record) error {
	if r.Key == "" {
		return errors.New("record key is empty")
	}
	if !json.Valid(r.Value) {
		return fmt.Errorf("record %s: value is not valid json", r.Key)
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO settings(key,value,updated_at,updated_by,run_id) VALUES(?,?,?,?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at,
		 updated_by=excluded.updated_by, run_id=excluded.run_id`,
		r.Key, string(r.Value), r.UpdatedAt.Format(time.RFC3339Nano), r.UpdatedBy, r.RunID)
	if err != nil {
		return fmt.Errorf("put record %s: %w", r.Key, err)
	}
	return nil
}

// GetRecord returns the record under key; ok is false when none is stored.
func (d *DB) GetRecord(ctx context.Context, key string) (Record, bool, error) {
	var (
		r         Record
		value     string
		updatedAt string
	)
	err := d.sql.QueryRowContext(ctx,
		`SELECT key,value,updated_at,updated_by,run_id FROM settings WHERE key=?`, key).
		Scan(&r.Key, &value, &updatedAt, &r.UpdatedBy, &r.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	r.Value = json.RawMessage(value)
	r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return Record{}, false, fmt.Errorf("record %s: bad updated_at %q: %w", key, updatedAt, err)
	}
	return r, true, nil
}

// SchemaVersion reports the migration level recorded in meta.
func (d *DB) SchemaVersion(ctx context.Context) (string, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='schema_version'`).Scan(&v)
	return v, err
}
