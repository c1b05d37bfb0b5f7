package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// TargetSchemaVersion is the highest schema version this version of the code supports for the kvstore component.
	TargetSchemaVersion int64 = 1
	// KVStoreComponent is the name for the key-value store component.
	KVStoreComponent = "kvstore"
)

// GetComponentSchemaVersion retrieves the schema version for a given component.
// Returns 0 if the component is not found or the versions table doesn't exist yet.
func GetComponentSchemaVersion(db *sql.DB, componentName string) (int64, error) {
	query := `SELECT version FROM padnotes_versions WHERE component = ?;`
	row := db.QueryRow(query, componentName)

	var version int64
	err := row.Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") && strings.Contains(err.Error(), "padnotes_versions") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", componentName, err)
	}
	return version, nil
}

// InitializeSchema creates the kv schema and records schemaVersionToSet for
// the kvstore component. A nil log uses slog.Default.
func InitializeSchema(db *sql.DB, schemaVersionToSet int64, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	_, err := db.Exec(SchemaV1)
	if err != nil {
		return fmt.Errorf("failed to execute schema v1 SQL: %w", err)
	}

	insertVersionSQL := `
INSERT INTO padnotes_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch();`

	_, err = db.Exec(insertVersionSQL, KVStoreComponent, schemaVersionToSet)
	if err != nil {
		return fmt.Errorf("failed to insert/update version for component %s to %d: %w", KVStoreComponent, schemaVersionToSet, err)
	}

	log.Debug("schema initialized", "component", KVStoreComponent, "version", schemaVersionToSet)
	return nil
}

// UpgradeDB brings the kvstore component of db up to appTargetSchemaVersion.
// dbIdentifierForLog is used for logging purposes only. A nil log uses
// slog.Default.
func UpgradeDB(db *sql.DB, dbIdentifierForLog string, appTargetSchemaVersion int64, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	currentDBVersion, err := GetComponentSchemaVersion(db, KVStoreComponent)
	if err != nil {
		return err
	}

	switch {
	case currentDBVersion == 0:
		log.Info("initializing database schema", "db", dbIdentifierForLog, "component", KVStoreComponent, "version", appTargetSchemaVersion)
		if err := InitializeSchema(db, appTargetSchemaVersion, log); err != nil {
			return fmt.Errorf("failed to initialize component %s in database '%s': %w", KVStoreComponent, dbIdentifierForLog, err)
		}
		return nil
	case currentDBVersion == appTargetSchemaVersion:
		log.Debug("database schema up to date", "db", dbIdentifierForLog, "component", KVStoreComponent, "version", currentDBVersion)
		return nil
	case currentDBVersion < appTargetSchemaVersion:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is older than application's target schema version %d. Automatic migration from this older version is not yet supported", KVStoreComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	default:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is newer than application's target schema version %d. Please upgrade the application", KVStoreComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	}
}
