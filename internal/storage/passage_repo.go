package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/indexer"
)

// maxParams keeps IN (...) lists under SQLite's bound-variable limit.
const maxParams = 500

const passageColumns = `id, note_id, note_title, note_tags, heading_anchor, raw_content,
	processed_content, content_hash, token_count, vector,
	archived, published, shared_by_me, shared_with_me, task_list_note`

const insertPassageSQL = `INSERT INTO passages (id, note_id, ordinal, note_title, note_tags, heading_anchor,
	raw_content, processed_content, content_hash, token_count, vector,
	archived, published, shared_by_me, shared_with_me, task_list_note, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
		note_id = excluded.note_id,
		ordinal = excluded.ordinal,
		note_title = excluded.note_title,
		note_tags = excluded.note_tags,
		heading_anchor = excluded.heading_anchor,
		raw_content = excluded.raw_content,
		processed_content = excluded.processed_content,
		content_hash = excluded.content_hash,
		token_count = excluded.token_count,
		vector = excluded.vector,
		archived = excluded.archived,
		published = excluded.published,
		shared_by_me = excluded.shared_by_me,
		shared_with_me = excluded.shared_with_me,
		task_list_note = excluded.task_list_note,
		updated_at = CURRENT_TIMESTAMP`

var (
	errMissingID      = errors.New("missing id")
	errMissingNoteID  = errors.New("missing note id")
	errMissingContent = errors.New("missing processed content")
	errMissingVector  = errors.New("missing vector")
	errNonFinite      = errors.New("vector has non-finite values")
	errEmptyTag       = errors.New("empty tag")
)

// UpsertPassages writes passages in one transaction. Invalid records, and
// records the database rejects, are skipped and reported. If no record is
// written the transaction is rolled back and the error wraps ErrBatchFailed.
func (s *Store) UpsertPassages(ctx context.Context, passages []indexer.Passage) (*UpsertReport, error) {
	return s.ReplaceNotePassages(ctx, nil, passages)
}

// ReplaceNotePassages deletes every passage of noteIDs and writes passages,
// all in one transaction, with the validation rules of UpsertPassages.
func (s *Store) ReplaceNotePassages(ctx context.Context, noteIDs []string, passages []indexer.Passage) (*UpsertReport, error) {
	logger := contextutil.LoggerFromContext(ctx)
	report := &UpsertReport{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		deleted, err := deleteByNotes(ctx, tx, noteIDs)
		if err != nil {
			return err
		}
		report.Deleted = deleted

		dims, err := epochDimensions(ctx, tx)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, insertPassageSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() {
			_ = stmt.Close()
		}()

		for i := range passages {
			p := &passages[i]
			if err := validatePassage(p, dims); err != nil {
				report.Failures = append(report.Failures, RecordError{ID: p.ID, Err: err})
				continue
			}
			if dims == 0 {
				dims = len(p.Vector)
				if _, err := tx.ExecContext(ctx, upsertConfigSQL, ConfigEmbeddingDimensions, strconv.Itoa(dims)); err != nil {
					return fmt.Errorf("failed to record embedding dimensions: %w", err)
				}
			}

			tags, err := json.Marshal(nonNilTags(p.NoteTags))
			if err != nil {
				return fmt.Errorf("failed to encode tags: %w", err)
			}
			if _, err := stmt.ExecContext(ctx,
				p.ID, p.NoteID, passageOrdinal(p.ID), p.NoteTitle, string(tags), p.HeadingAnchor,
				p.RawContent, p.ProcessedContent, p.ContentHash, p.TokenCount, serializeVector(p.Vector),
				boolToInt(p.Flags.Archived), boolToInt(p.Flags.Published), boolToInt(p.Flags.SharedByMe),
				boolToInt(p.Flags.SharedWithMe), boolToInt(p.Flags.TaskListNote),
			); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// SQLite undoes only the failed statement; the rest of the batch stands.
				report.Failures = append(report.Failures, RecordError{ID: p.ID, Err: fmt.Errorf("insert: %w", err)})
				continue
			}
			report.Written++
		}

		if len(passages) > 0 && report.Written == 0 {
			errs := make([]error, 0, len(report.Failures)+1)
			errs = append(errs, ErrBatchFailed)
			for i := range report.Failures {
				errs = append(errs, &report.Failures[i])
			}
			return errors.Join(errs...)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBatchFailed) {
			return report, err
		}
		return nil, fmt.Errorf("failed to upsert passages: %w", err)
	}

	if len(report.Failures) > 0 {
		logger.WarnContext(ctx, "skipped passages",
			"written", report.Written, "failed", len(report.Failures))
	}
	return report, nil
}

func validatePassage(p *indexer.Passage, dims int) error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return errMissingID
	case strings.TrimSpace(p.NoteID) == "":
		return errMissingNoteID
	case strings.TrimSpace(p.ProcessedContent) == "":
		return errMissingContent
	case len(p.Vector) == 0:
		return errMissingVector
	case !finiteVector(p.Vector):
		return errNonFinite
	case dims > 0 && len(p.Vector) != dims:
		return fmt.Errorf("vector has %d dimensions, index uses %d", len(p.Vector), dims)
	}
	for _, tag := range p.NoteTags {
		if strings.TrimSpace(tag) == "" {
			return errEmptyTag
		}
	}
	return nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// passageOrdinal extracts the index from a "<noteID>#<index>" id.
func passageOrdinal(id string) int {
	i := strings.LastIndexByte(id, '#')
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return 0
	}
	return n
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func deleteByNotes(ctx context.Context, ex execer, noteIDs []string) (int64, error) {
	var total int64
	for start := 0; start < len(noteIDs); start += maxParams {
		end := min(start+maxParams, len(noteIDs))
		placeholders, args := inClause(noteIDs[start:end])
		res, err := ex.ExecContext(ctx, "DELETE FROM passages WHERE note_id IN ("+placeholders+")", args...)
		if err != nil {
			return total, fmt.Errorf("failed to delete passages by note: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// DeleteByNoteIDs removes every passage of the given notes.
func (s *Store) DeleteByNoteIDs(ctx context.Context, noteIDs []string) (int64, error) {
	if len(noteIDs) == 0 {
		return 0, nil
	}
	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = deleteByNotes(ctx, tx, noteIDs)
		return err
	})
	return deleted, err
}

// NoteIDs returns the distinct note ids that have passages.
func (s *Store) NoteIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT DISTINCT note_id FROM passages ORDER BY note_id")
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list note ids: %w", err)
	}
	return ids, nil
}

// PruneNotes deletes passages of every note not in keep and returns the
// pruned note ids.
func (s *Store) PruneNotes(ctx context.Context, keep []string) ([]string, error) {
	existing, err := s.NoteIDs(ctx)
	if err != nil {
		return nil, err
	}

	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var stale []string
	for _, id := range existing {
		if _, ok := keepSet[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	if _, err := s.DeleteByNoteIDs(ctx, stale); err != nil {
		return nil, err
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "pruned passages of deleted notes", "notes", len(stale))
	return stale, nil
}

// VectorsByContentHash returns stored vectors keyed by content hash, for
// reuse when a passage's text did not change.
func (s *Store) VectorsByContentHash(ctx context.Context, hashes []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}
	err := s.withDB(ctx, func(db *sql.DB) error {
		for start := 0; start < len(hashes); start += maxParams {
			end := min(start+maxParams, len(hashes))
			placeholders, args := inClause(hashes[start:end])
			rows, err := db.QueryContext(ctx,
				"SELECT content_hash, vector FROM passages WHERE vector IS NOT NULL AND content_hash IN ("+placeholders+")",
				args...,
			)
			if err != nil {
				return err
			}
			for rows.Next() {
				var hash string
				var blob []byte
				if err := rows.Scan(&hash, &blob); err != nil {
					_ = rows.Close()
					return err
				}
				if vec := deserializeVector(blob); len(vec) > 0 {
					out[hash] = vec
				}
			}
			if err := rows.Err(); err != nil {
				_ = rows.Close()
				return err
			}
			_ = rows.Close()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up vectors by hash: %w", err)
	}
	return out, nil
}

// PassagesByNote returns a note's passages in order.
func (s *Store) PassagesByNote(ctx context.Context, noteID string) ([]indexer.Passage, error) {
	var passages []indexer.Passage
	err := s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			"SELECT "+passageColumns+" FROM passages WHERE note_id = ? ORDER BY ordinal", noteID)
		if err != nil {
			return err
		}
		passages, err = scanPassages(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get passages by note: %w", err)
	}
	return passages, nil
}

// PassagesByID returns the passages with the given ids, in the order given.
// Unknown ids are skipped.
func (s *Store) PassagesByID(ctx context.Context, ids []string) ([]indexer.Passage, error) {
	byID := make(map[string]indexer.Passage, len(ids))
	err := s.withDB(ctx, func(db *sql.DB) error {
		for start := 0; start < len(ids); start += maxParams {
			end := min(start+maxParams, len(ids))
			placeholders, args := inClause(ids[start:end])
			rows, err := db.QueryContext(ctx,
				"SELECT "+passageColumns+" FROM passages WHERE id IN ("+placeholders+")", args...)
			if err != nil {
				return err
			}
			batch, err := scanPassages(rows)
			if err != nil {
				return err
			}
			for _, p := range batch {
				byID[p.ID] = p
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get passages by id: %w", err)
	}

	out := make([]indexer.Passage, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetPassage returns one passage or ErrNotFound.
func (s *Store) GetPassage(ctx context.Context, id string) (*indexer.Passage, error) {
	passages, err := s.PassagesByID(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		return nil, ErrNotFound
	}
	return &passages[0], nil
}

// Count returns the number of stored passages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.withDB(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx, "SELECT COUNT(*) FROM passages").Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count passages: %w", err)
	}
	return n, nil
}

// Stats counts passages, notes and passages holding a vector.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.withDB(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT note_id),
			COALESCE(SUM(CASE WHEN vector IS NOT NULL AND length(vector) > 0 THEN 1 ELSE 0 END), 0)
			FROM passages`).Scan(&st.Passages, &st.Notes, &st.VectoredPassages)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read index stats: %w", err)
	}
	return st, nil
}

// TokenCounts returns the body token count of every stored passage.
func (s *Store) TokenCounts(ctx context.Context) ([]int, error) {
	var counts []int
	err := s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT token_count FROM passages")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var n int
			if err := rows.Scan(&n); err != nil {
				return err
			}
			counts = append(counts, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read token counts: %w", err)
	}
	return counts, nil
}

// Reset deletes every passage and forgets sync progress and the vector
// dimension epoch. Used when the fingerprint changes.
func (s *Store) Reset(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM passages"); err != nil {
			return err
		}
		for _, key := range []string{ConfigLastSyncTime, ConfigSyncCheckpoint, ConfigEmbeddingDimensions} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM index_config WHERE key = ?", key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index reset")
	return nil
}

func scanPassages(rows *sql.Rows) ([]indexer.Passage, error) {
	defer func() {
		_ = rows.Close()
	}()

	var passages []indexer.Passage
	for rows.Next() {
		p, err := scanPassage(rows)
		if err != nil {
			return nil, err
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return passages, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPassage(row scanner) (indexer.Passage, error) {
	var p indexer.Passage
	var tags string
	var blob []byte
	var archived, published, sharedByMe, sharedWithMe, taskList int
	if err := row.Scan(
		&p.ID, &p.NoteID, &p.NoteTitle, &tags, &p.HeadingAnchor, &p.RawContent,
		&p.ProcessedContent, &p.ContentHash, &p.TokenCount, &blob,
		&archived, &published, &sharedByMe, &sharedWithMe, &taskList,
	); err != nil {
		return indexer.Passage{}, fmt.Errorf("failed to scan passage: %w", err)
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &p.NoteTags); err != nil {
			return indexer.Passage{}, fmt.Errorf("failed to decode tags of %s: %w", p.ID, err)
		}
	}
	p.Vector = deserializeVector(blob)
	p.Flags = indexer.Flags{
		Archived:     archived != 0,
		Published:    published != 0,
		SharedByMe:   sharedByMe != 0,
		SharedWithMe: sharedWithMe != 0,
		TaskListNote: taskList != 0,
	}
	return p, nil
}

func inClause(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(values)), ","), args
}
