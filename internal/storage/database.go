package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"notes-retrieval/internal/contextutil"
)

const configSchema = `CREATE TABLE IF NOT EXISTS index_config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

var contentSchema = []string{
	`CREATE TABLE IF NOT EXISTS passages (
		id TEXT PRIMARY KEY,
		note_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL DEFAULT 0,
		note_title TEXT NOT NULL DEFAULT '',
		note_tags TEXT NOT NULL DEFAULT '[]',
		heading_anchor TEXT NOT NULL DEFAULT '',
		raw_content TEXT NOT NULL DEFAULT '',
		processed_content TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		token_count INTEGER NOT NULL DEFAULT 0,
		vector BLOB,
		archived INTEGER NOT NULL DEFAULT 0,
		published INTEGER NOT NULL DEFAULT 0,
		shared_by_me INTEGER NOT NULL DEFAULT 0,
		shared_with_me INTEGER NOT NULL DEFAULT 0,
		task_list_note INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS idx_passages_note_id ON passages(note_id);`,
	`CREATE INDEX IF NOT EXISTS idx_passages_content_hash ON passages(content_hash);`,
}

// New opens a SQLite database connection at the given path.
// It enables WAL and limits database/sql to a single connection.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, err
	}

	// One writer, one reader at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the tables and enforces the index version.
//
// A stored version different from IndexVersion drops and recreates the
// content tables and forgets sync progress. A current version with the
// passages table missing is reported as ErrCorrupted.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := db.ExecContext(ctx, configSchema); err != nil {
		return fmt.Errorf("failed to create config table: %w", err)
	}

	stored, err := storedVersion(ctx, db)
	if err != nil {
		return err
	}

	exists, err := tableExists(ctx, db, "passages")
	if err != nil {
		return err
	}

	if stored == IndexVersion {
		if !exists {
			return fmt.Errorf("%w: passages table missing", ErrCorrupted)
		}
		return createContentTables(ctx, db)
	}

	if stored != 0 {
		logger.InfoContext(ctx, "index version changed, rebuilding content tables",
			"stored_version", stored, "index_version", IndexVersion)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS passages"); err != nil {
		return fmt.Errorf("failed to drop passages: %w", err)
	}
	for _, stmt := range contentSchema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create content tables: %w", err)
		}
	}
	forget := []string{ConfigLastSyncTime, ConfigSyncCheckpoint, ConfigEmbeddingDimensions}
	for _, key := range forget {
		if _, err := tx.ExecContext(ctx, "DELETE FROM index_config WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to reset %s: %w", key, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO index_config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		ConfigIndexVersion, strconv.Itoa(IndexVersion),
	); err != nil {
		return fmt.Errorf("failed to persist index version: %w", err)
	}

	return tx.Commit()
}

func createContentTables(ctx context.Context, db *sql.DB) error {
	for _, stmt := range contentSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create content tables: %w", err)
		}
	}
	return nil
}

func storedVersion(ctx context.Context, db *sql.DB) (int, error) {
	var raw string
	err := db.QueryRowContext(ctx, "SELECT value FROM index_config WHERE key = ?", ConfigIndexVersion).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read index version: %w", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Unparseable version is treated as foreign and rebuilt.
		return -1, nil
	}
	return v, nil
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count == 1, nil
}

// openIndex opens path and migrates it. A corrupted file is deleted and
// recreated once; a second failure is returned.
func openIndex(ctx context.Context, path string) (*sql.DB, error) {
	db, err := openAndMigrate(ctx, path)
	if err == nil {
		return db, nil
	}
	if !isCorruption(err) {
		return nil, err
	}

	contextutil.LoggerFromContext(ctx).WarnContext(ctx, "index database corrupted, recreating",
		"path", path, "error", err)
	if rmErr := removeDatabaseFiles(path); rmErr != nil {
		return nil, fmt.Errorf("failed to remove corrupted index: %w", rmErr)
	}

	db, err = openAndMigrate(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to recreate index: %w", err)
	}
	return db, nil
}

func openAndMigrate(ctx context.Context, path string) (*sql.DB, error) {
	db, err := New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func isCorruption(err error) bool {
	if errors.Is(err, ErrCorrupted) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not a database") || strings.Contains(msg, "malformed")
}

func removeDatabaseFiles(path string) error {
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
