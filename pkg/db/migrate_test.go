package db

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), Options{Path: ":memory:", Sync: "NORMAL"})
	if err != nil {
		t.Fatalf("Open failed for in-memory DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// checkTableExists is a test helper to verify if a table exists in the database.
func checkTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?;", tableName).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			t.Errorf("Table '%s' does not exist, but it should.", tableName)
			return
		}
		t.Fatalf("Error checking if table '%s' exists: %v", tableName, err)
	}
}

func TestOpen_InvalidSyncMode(t *testing.T) {
	_, err := Open(context.Background(), Options{Path: ":memory:", Sync: "SOMETIMES"})
	if err == nil {
		t.Fatal("expected an error for an invalid sync pragma")
	}
	if !strings.Contains(err.Error(), "invalid sync pragma value") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseSyncMode(t *testing.T) {
	for in, want := range map[string]string{"normal": "NORMAL", " full ": "FULL", "OFF": "OFF", "extra": "EXTRA"} {
		got, err := ParseSyncMode(in)
		if err != nil {
			t.Fatalf("ParseSyncMode(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseSyncMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOptionsDSN(t *testing.T) {
	dsn, err := Options{Path: "notes.db", WAL: true, Sync: "full", BusyTimeout: 250 * time.Millisecond}.dsn()
	if err != nil {
		t.Fatalf("dsn failed: %v", err)
	}
	for _, part := range []string{"notes.db?", "_journal_mode=WAL", "_synchronous=FULL", "_busy_timeout=250"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("dsn %q missing %q", dsn, part)
		}
	}

	dsn, err = Options{Path: "file:notes.db?cache=shared"}.dsn()
	if err != nil {
		t.Fatalf("dsn failed: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:notes.db?cache=shared&_busy_timeout=5000") {
		t.Errorf("unexpected dsn %q", dsn)
	}
}

func TestUpgradeDB_NewDatabase(t *testing.T) {
	db := openMemoryDB(t)

	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if err := UpgradeDB(db, ":memory:", TargetSchemaVersion, log); err != nil {
		t.Fatalf("UpgradeDB failed on a new in-memory database: %v", err)
	}
	for _, want := range []string{"initializing database schema", "schema initialized", "component=kvstore"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("expected log output to contain %q, got:\n%s", want, logs.String())
		}
	}

	for _, tableName := range []string{"padnotes_versions", "kv_store"} {
		checkTableExists(t, db, tableName)
	}

	version, err := GetComponentSchemaVersion(db, KVStoreComponent)
	if err != nil {
		t.Fatalf("GetComponentSchemaVersion failed after UpgradeDB: %v", err)
	}
	if version != TargetSchemaVersion {
		t.Errorf("Expected component '%s' to be at version %d, but got %d", KVStoreComponent, TargetSchemaVersion, version)
	}
}

func TestGetComponentSchemaVersion_NoVersionsTable(t *testing.T) {
	db := openMemoryDB(t)

	version, err := GetComponentSchemaVersion(db, KVStoreComponent)
	if err != nil {
		t.Fatalf("expected no error before the schema exists, got %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 for an empty database, got %d", version)
	}
}

func TestUpgradeDB_AlreadyUpToDate(t *testing.T) {
	db := openMemoryDB(t)

	if err := InitializeSchema(db, TargetSchemaVersion, nil); err != nil {
		t.Fatalf("InitializeSchema failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO kv_store (key, value) VALUES ('k', 'v')`); err != nil {
		t.Fatalf("seeding kv_store failed: %v", err)
	}

	if err := UpgradeDB(db, ":memory:", TargetSchemaVersion, nil); err != nil {
		t.Fatalf("UpgradeDB failed on an up-to-date database: %v", err)
	}

	var value string
	if err := db.QueryRow(`SELECT value FROM kv_store WHERE key = 'k'`).Scan(&value); err != nil {
		t.Fatalf("stored row lost after UpgradeDB: %v", err)
	}
	if value != "v" {
		t.Errorf("expected stored value 'v', got %q", value)
	}
}

func TestUpgradeDB_VersionMismatch(t *testing.T) {
	tests := []struct {
		name      string
		dbVersion int64
		appTarget int64
		wantWord  string
	}{
		{"older database", 1, 2, "older"},
		{"newer database", 2, 1, "newer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openMemoryDB(t)

			if err := InitializeSchema(db, tt.dbVersion, nil); err != nil {
				t.Fatalf("InitializeSchema to version %d failed: %v", tt.dbVersion, err)
			}

			err := UpgradeDB(db, ":memory:", tt.appTarget, nil)
			if err == nil {
				t.Fatal("UpgradeDB should have failed on a version mismatch")
			}
			expected := fmt.Sprintf("component %s in database ':memory:' has schema version %d, which is %s than application's target schema version %d",
				KVStoreComponent, tt.dbVersion, tt.wantWord, tt.appTarget)
			if !strings.Contains(err.Error(), expected) {
				t.Errorf("UpgradeDB error message mismatch.\nExpected to contain: %s\nGot: %s", expected, err.Error())
			}

			current, err := GetComponentSchemaVersion(db, KVStoreComponent)
			if err != nil {
				t.Fatalf("GetComponentSchemaVersion failed: %v", err)
			}
			if current != tt.dbVersion {
				t.Errorf("schema version changed from %d to %d after a failed upgrade", tt.dbVersion, current)
			}
		})
	}
}
