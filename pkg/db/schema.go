package db

const (
	// SchemaV1 defines the SQL statements for version 1 of the database schema.
	// The whole journal lives in kv_store: one row per persistence key, each
	// value a complete JSON document.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS padnotes_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS kv_store (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);
`
)
