package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const upsertConfigSQL = "INSERT INTO index_config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"

// GetConfig returns the value stored under key, or ErrNotFound.
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.withDB(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx, "SELECT value FROM index_config WHERE key = ?", key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get config %s: %w", key, err)
	}
	return value, nil
}

// SetConfig stores value under key.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	err := s.withDB(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, upsertConfigSQL, key, value)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}

// DeleteConfig removes key. Deleting a missing key is not an error.
func (s *Store) DeleteConfig(ctx context.Context, key string) error {
	err := s.withDB(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, "DELETE FROM index_config WHERE key = ?", key)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete config %s: %w", key, err)
	}
	return nil
}

// LastSyncTime returns the start time of the last completed sync, or the
// zero time if none completed.
func (s *Store) LastSyncTime(ctx context.Context) (time.Time, error) {
	raw, err := s.GetConfig(ctx, ConfigLastSyncTime)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last sync time: %w", err)
	}
	return t, nil
}

// SetLastSyncTime records t as the last completed sync.
func (s *Store) SetLastSyncTime(ctx context.Context, t time.Time) error {
	return s.SetConfig(ctx, ConfigLastSyncTime, t.UTC().Format(time.RFC3339Nano))
}

// Fingerprint returns the stored fingerprint. Missing parts are empty.
func (s *Store) Fingerprint(ctx context.Context) (Fingerprint, error) {
	var fp Fingerprint
	err := s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			"SELECT key, value FROM index_config WHERE key IN (?, ?)",
			ConfigFingerprintOwner, ConfigFingerprintModel,
		)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()
		for rows.Next() {
			var key, value string
			if err := rows.Scan(&key, &value); err != nil {
				return err
			}
			switch key {
			case ConfigFingerprintOwner:
				fp.Owner = value
			case ConfigFingerprintModel:
				fp.Model = value
			}
		}
		return rows.Err()
	})
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to read fingerprint: %w", err)
	}
	return fp, nil
}

// SetFingerprint stores fp.
func (s *Store) SetFingerprint(ctx context.Context, fp Fingerprint) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertConfigSQL, ConfigFingerprintOwner, fp.Owner); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, upsertConfigSQL, ConfigFingerprintModel, fp.Model)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set fingerprint: %w", err)
	}
	return nil
}

// Checkpoint returns the saved sync checkpoint, or nil if there is none.
func (s *Store) Checkpoint(ctx context.Context) (*Checkpoint, error) {
	raw, err := s.GetConfig(ctx, ConfigSyncCheckpoint)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cp Checkpoint
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &cp, nil
}

// SaveCheckpoint persists cp, replacing any previous checkpoint.
func (s *Store) SaveCheckpoint(ctx context.Context, cp Checkpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return s.SetConfig(ctx, ConfigSyncCheckpoint, string(raw))
}

// ClearCheckpoint removes the saved checkpoint.
func (s *Store) ClearCheckpoint(ctx context.Context) error {
	return s.DeleteConfig(ctx, ConfigSyncCheckpoint)
}

// EmbeddingDimensions returns the vector length of the current epoch, 0 if unset.
func (s *Store) EmbeddingDimensions(ctx context.Context) (int, error) {
	var dims int
	err := s.withDB(ctx, func(db *sql.DB) error {
		var err error
		dims, err = epochDimensions(ctx, db)
		return err
	})
	return dims, err
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func epochDimensions(ctx context.Context, q queryRower) (int, error) {
	var dims int
	err := q.QueryRowContext(ctx,
		"SELECT CAST(value AS INTEGER) FROM index_config WHERE key = ?", ConfigEmbeddingDimensions,
	).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read embedding dimensions: %w", err)
	}
	return dims, nil
}
