package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	pkgdb "github.com/unowned-ai/padnotes/pkg/db"
)

const (
	getStatement = `
	SELECT value FROM kv_store WHERE key = ?
	`

	setStatement = `
	INSERT INTO kv_store (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = unixepoch()
	`

	removeStatement = `
	DELETE FROM kv_store WHERE key = ?
	`
)

var (
	_ Store   = (*SQLiteStore)(nil)
	_ Batcher = (*SQLiteStore)(nil)
)

// SQLiteStore keeps every key as one row of the kv_store table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenSQLite opens (creating if needed) the database at path and brings its
// schema up to date. Migration progress goes to log, or slog.Default when nil.
func OpenSQLite(path string, enableWAL bool, syncPragma string, log *slog.Logger) (*SQLiteStore, error) {
	conn, err := pkgdb.Open(context.Background(), pkgdb.Options{Path: path, WAL: enableWAL, Sync: syncPragma})
	if err != nil {
		return nil, err
	}
	if err := pkgdb.UpgradeDB(conn, path, pkgdb.TargetSchemaVersion, log); err != nil {
		conn.Close()
		return nil, err
	}
	return &SQLiteStore{db: conn}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, getStatement, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv: get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, setStatement, key, value); err != nil {
		return fmt.Errorf("kv: set %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, removeStatement, key); err != nil {
		return fmt.Errorf("kv: remove %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) RemoveMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(keys)-1) + "?"
	args := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		args = append(args, k)
	}
	query := fmt.Sprintf(`DELETE FROM kv_store WHERE key IN (%s)`, placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("kv: remove %d keys: %w", len(keys), err)
	}
	return nil
}

// SetMany writes all values in a single transaction.
func (s *SQLiteStore) SetMany(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kv: begin batch: %w", err)
	}
	defer tx.Rollback()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, setStatement, k, values[k]); err != nil {
			return fmt.Errorf("kv: batch set %q: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("kv: commit batch: %w", err)
	}
	return nil
}

// Close checkpoints the WAL and closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	// TRUNCATE mode waits for transactions and writes the WAL back to the main DB.
	// On a non-WAL database this is a no-op.
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}
