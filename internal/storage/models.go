package storage

import (
	"errors"
	"fmt"
	"time"

	"notes-retrieval/internal/indexer"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrBatchFailed is returned when every record of a batch upsert fails.
	ErrBatchFailed = errors.New("every record in batch failed")
	// ErrCorrupted is returned when the index file is unreadable or its schema is damaged.
	ErrCorrupted = errors.New("index database corrupted")
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("connection pool closed")
)

// IndexVersion is the schema version of the passages table. Bumping it makes
// the next Open drop and rebuild all indexed content.
const IndexVersion = 2

// Config keys stored in index_config.
const (
	ConfigIndexVersion        = "index_version"
	ConfigLastSyncTime        = "last_sync_time"
	ConfigFingerprintOwner    = "fingerprint_owner"
	ConfigFingerprintModel    = "fingerprint_model"
	ConfigEmbeddingDimensions = "embedding_dimensions"
	ConfigSyncCheckpoint      = "sync_checkpoint"
)

// DefaultLimit is used by searches that pass a non-positive limit.
const DefaultLimit = 10

// RecordError is a validation or insert failure for a single passage.
type RecordError struct {
	ID  string
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("passage %q: %v", e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// UpsertReport summarizes a batch write.
type UpsertReport struct {
	Written  int
	Deleted  int64
	Failures []RecordError
}

// Fingerprint identifies who and what produced the stored vectors.
// Any change invalidates them.
type Fingerprint struct {
	Owner string
	Model string
}

// Checkpoint records progress of an interrupted sync.
type Checkpoint struct {
	Since     time.Time `json:"since"`
	StartedAt time.Time `json:"started_at"`
	Processed []string  `json:"processed"`
}

// Filters are equality filters on passage flags. A nil field matches anything.
type Filters struct {
	Archived     *bool
	Published    *bool
	SharedByMe   *bool
	SharedWithMe *bool
	TaskListNote *bool
}

// Match reports whether flags satisfy every set filter.
func (f Filters) Match(flags indexer.Flags) bool {
	return matchFlag(f.Archived, flags.Archived) &&
		matchFlag(f.Published, flags.Published) &&
		matchFlag(f.SharedByMe, flags.SharedByMe) &&
		matchFlag(f.SharedWithMe, flags.SharedWithMe) &&
		matchFlag(f.TaskListNote, flags.TaskListNote)
}

func matchFlag(want *bool, got bool) bool {
	return want == nil || *want == got
}

// where renders the set filters as SQL conditions joined with AND.
func (f Filters) where() (string, []any) {
	columns := []struct {
		name string
		val  *bool
	}{
		{"archived", f.Archived},
		{"published", f.Published},
		{"shared_by_me", f.SharedByMe},
		{"shared_with_me", f.SharedWithMe},
		{"task_list_note", f.TaskListNote},
	}

	var clause string
	var args []any
	for _, c := range columns {
		if c.val == nil {
			continue
		}
		clause += " AND " + c.name + " = ?"
		args = append(args, boolToInt(*c.val))
	}
	return clause, args
}

// VectorQuery parameterizes VectorSearch.
type VectorQuery struct {
	Filters       Filters
	Limit         int
	MinSimilarity float64
	// Normalized selects a dot product instead of cosine similarity.
	Normalized bool
}

// VectorResult is a passage scored by vector similarity.
type VectorResult struct {
	Passage    indexer.Passage
	Similarity float64
}

// FusionParams weights the two rankings combined by Reciprocal Rank Fusion.
type FusionParams struct {
	LexicalWeight float64
	VectorWeight  float64
	K             float64
}

// DefaultFusion returns weights 0.4 lexical, 0.6 vector, K=60.
func DefaultFusion() FusionParams {
	return FusionParams{LexicalWeight: 0.4, VectorWeight: 0.6, K: 60}
}

// HybridQuery parameterizes HybridSearch.
type HybridQuery struct {
	Filters    Filters
	Limit      int
	Normalized bool
	Fusion     FusionParams
}

// HybridResult is a passage scored by fused lexical and vector rank.
// A zero rank means the passage was absent from that ranking.
type HybridResult struct {
	Passage      indexer.Passage
	Score        float64
	LexicalRank  int
	VectorRank   int
	LexicalScore float64
	VectorScore  float64
}

// Stats counts what the index holds.
type Stats struct {
	Passages         int
	Notes            int
	VectoredPassages int
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
