// Package syncer keeps the passage index in step with the note corpus.
package syncer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_syncer.go -package=mocks notes-retrieval/internal/syncer NotesSource,Confirmer,Mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/storage"
)

var (
	// ErrSyncInProgress is returned by Sync while another sync is running.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrCancelled is returned by TaskQueue.Run after Cancel.
	ErrCancelled = errors.New("sync cancelled")

	errDeclined = errors.New("cost confirmation declined")
)

// Note is a note as supplied by the host.
type Note struct {
	ID        string
	Title     string
	Tags      []string
	Content   string
	Images    []indexer.NoteImage
	CreatedAt time.Time
	UpdatedAt time.Time
	Flags     indexer.Flags
}

// NoteFilter narrows ListNotes. The zero value lists everything.
type NoteFilter struct {
	IncludeArchived bool
}

// NotesSource enumerates the corpus.
type NotesSource interface {
	ListNotes(ctx context.Context, filter NoteFilter) ([]Note, error)
}

// CostEstimate is shown to the user before a potentially paid sync.
type CostEstimate struct {
	Notes           int
	EstimatedTokens int
	EstimatedCost   float64
	Model           string
}

// Confirmer decides whether a sync may spend EstimatedCost.
type Confirmer interface {
	ConfirmCost(ctx context.Context, estimate CostEstimate) (bool, error)
}

// Mirror receives a copy of every committed batch, e.g. an external vector database.
type Mirror interface {
	UpsertPassages(ctx context.Context, passages []indexer.Passage) error
	DeleteNotes(ctx context.Context, noteIDs []string) error
	Reset(ctx context.Context) error
}

// Chunker splits note content into passages.
type Chunker interface {
	Chunk(content string, meta indexer.NoteMeta, maxTokens int) ([]indexer.Passage, error)
}

// Index is the subset of storage.Store the orchestrator writes to.
type Index interface {
	Fingerprint(ctx context.Context) (storage.Fingerprint, error)
	SetFingerprint(ctx context.Context, fp storage.Fingerprint) error
	Reset(ctx context.Context) error
	PruneNotes(ctx context.Context, keep []string) ([]string, error)
	LastSyncTime(ctx context.Context) (time.Time, error)
	SetLastSyncTime(ctx context.Context, t time.Time) error
	Checkpoint(ctx context.Context) (*storage.Checkpoint, error)
	SaveCheckpoint(ctx context.Context, cp storage.Checkpoint) error
	ClearCheckpoint(ctx context.Context) error
	VectorsByContentHash(ctx context.Context, hashes []string) (map[string][]float32, error)
	ReplaceNotePassages(ctx context.Context, noteIDs []string, passages []indexer.Passage) (*storage.UpsertReport, error)
}

// State describes how far the index trails the corpus.
type State int

const (
	NotSynced State = iota
	Syncing
	PartiallySynced
	FullySynced
)

func (s State) String() string {
	switch s {
	case NotSynced:
		return "not_synced"
	case Syncing:
		return "syncing"
	case PartiallySynced:
		return "partially_synced"
	case FullySynced:
		return "fully_synced"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Progress is reported after every committed batch.
type Progress struct {
	Batch     int
	Batches   int
	Processed int
	Total     int
}

// ProgressFunc receives progress updates. It runs on the sync goroutine.
type ProgressFunc func(Progress)

// NoteFailure records a note that could not be indexed.
type NoteFailure struct {
	NoteID string
	Err    error
}

// Summary is the outcome of one Sync call.
type Summary struct {
	Processed        int
	Total            int
	Failed           int
	Failures         []NoteFailure
	EmbeddedPassages int
	ReusedVectors    int
	Pruned           int
	Aborted          bool
	Partial          bool
	Duration         time.Duration
}

// String renders the summary for people.
func (s *Summary) String() string {
	var b strings.Builder
	switch {
	case s.Aborted:
		fmt.Fprintf(&b, "sync aborted after %d of %d notes", s.Processed, s.Total)
	case s.Total == 0:
		b.WriteString("index already up to date")
	default:
		fmt.Fprintf(&b, "synced %d of %d notes", s.Processed, s.Total)
	}
	if s.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", s.Failed)
	}
	if s.EmbeddedPassages > 0 || s.ReusedVectors > 0 {
		fmt.Fprintf(&b, ", %d passages embedded, %d vectors reused", s.EmbeddedPassages, s.ReusedVectors)
	}
	if s.Pruned > 0 {
		fmt.Fprintf(&b, ", %d deleted notes pruned", s.Pruned)
	}
	fmt.Fprintf(&b, " in %s", s.Duration.Round(time.Millisecond))
	return b.String()
}
