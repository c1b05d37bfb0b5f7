package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DefaultBusyTimeout is how long a connection waits on a locked database.
const DefaultBusyTimeout = 5 * time.Second

// Options controls how a database file is opened.
type Options struct {
	// Path is a file path or ":memory:".
	Path string
	WAL  bool
	// Sync is the synchronous pragma; empty leaves the SQLite default.
	Sync        string
	BusyTimeout time.Duration
}

// ParseSyncMode upper-cases s and checks it against the synchronous pragma
// values SQLite accepts.
func ParseSyncMode(s string) (string, error) {
	mode := strings.ToUpper(strings.TrimSpace(s))
	switch mode {
	case "OFF", "NORMAL", "FULL", "EXTRA":
		return mode, nil
	}
	return "", fmt.Errorf("invalid sync pragma value: %s. Must be one of OFF, NORMAL, FULL, EXTRA", s)
}

func (o Options) dsn() (string, error) {
	params := url.Values{}
	if o.WAL {
		params.Add("_journal_mode", "WAL")
	}
	if o.Sync != "" {
		mode, err := ParseSyncMode(o.Sync)
		if err != nil {
			return "", err
		}
		params.Add("_synchronous", mode)
	}
	timeout := o.BusyTimeout
	if timeout <= 0 {
		timeout = DefaultBusyTimeout
	}
	params.Add("_busy_timeout", strconv.FormatInt(timeout.Milliseconds(), 10))

	sep := "?"
	if strings.Contains(o.Path, "?") {
		sep = "&"
	}
	return o.Path + sep + params.Encode(), nil
}

// Open opens the SQLite database described by opts and verifies the
// connection.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	dsn, err := opts.dsn()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with DSN '%s': %w", dsn, err)
	}

	// Each connection to ":memory:" is a separate database.
	if strings.HasPrefix(opts.Path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database with DSN '%s': %w", dsn, err)
	}
	return db, nil
}
