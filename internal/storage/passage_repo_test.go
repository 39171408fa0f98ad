package storage

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"

	"notes-retrieval/internal/indexer"
)

func TestStore_UpsertPassages(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		passages    func() []indexer.Passage
		wantErr     error
		wantWritten int
		wantFailed  int
	}{
		{
			name: "all valid",
			passages: func() []indexer.Passage {
				return []indexer.Passage{
					testPassage("a", 0, []float32{1, 0}),
					testPassage("a", 1, []float32{0, 1}),
				}
			},
			wantWritten: 2,
		},
		{
			name: "partial failure commits valid records",
			passages: func() []indexer.Passage {
				bad := testPassage("a", 1, nil)
				return []indexer.Passage{testPassage("a", 0, []float32{1, 0}), bad}
			},
			wantWritten: 1,
			wantFailed:  1,
		},
		{
			name: "every record invalid",
			passages: func() []indexer.Passage {
				noID := testPassage("a", 0, []float32{1, 0})
				noID.ID = ""
				nan := testPassage("a", 1, []float32{float32(math.NaN()), 0})
				emptyTag := testPassage("a", 2, []float32{1, 0})
				emptyTag.NoteTags = []string{" "}
				noContent := testPassage("a", 3, []float32{1, 0})
				noContent.ProcessedContent = ""
				return []indexer.Passage{noID, nan, emptyTag, noContent}
			},
			wantErr:    ErrBatchFailed,
			wantFailed: 4,
		},
		{
			name: "dimension mismatch within batch",
			passages: func() []indexer.Passage {
				return []indexer.Passage{
					testPassage("a", 0, []float32{1, 0}),
					testPassage("a", 1, []float32{1, 0, 0}),
				}
			},
			wantWritten: 1,
			wantFailed:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			report, err := store.UpsertPassages(ctx, tt.passages())

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UpsertPassages() error = %v, want %v", err, tt.wantErr)
				}
				count, _ := store.Count(ctx)
				if count != 0 {
					t.Errorf("Count() after failed batch = %d, want 0", count)
				}
			} else if err != nil {
				t.Fatalf("UpsertPassages() unexpected error: %v", err)
			}

			if report.Written != tt.wantWritten {
				t.Errorf("Written = %d, want %d", report.Written, tt.wantWritten)
			}
			if len(report.Failures) != tt.wantFailed {
				t.Errorf("Failures = %d, want %d", len(report.Failures), tt.wantFailed)
			}
		})
	}
}

func TestStore_DimensionEpoch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.UpsertPassages(ctx, []indexer.Passage{testPassage("a", 0, []float32{1, 0, 0})}); err != nil {
		t.Fatalf("UpsertPassages() error = %v", err)
	}
	dims, err := store.EmbeddingDimensions(ctx)
	if err != nil || dims != 3 {
		t.Fatalf("EmbeddingDimensions() = %d, %v; want 3", dims, err)
	}

	_, err = store.UpsertPassages(ctx, []indexer.Passage{testPassage("b", 0, []float32{1, 0})})
	if !errors.Is(err, ErrBatchFailed) {
		t.Errorf("mismatched dimensions error = %v, want ErrBatchFailed", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := store.UpsertPassages(ctx, []indexer.Passage{testPassage("b", 0, []float32{1, 0})}); err != nil {
		t.Errorf("UpsertPassages() after Reset error = %v", err)
	}
}

func TestStore_ReplaceNotePassages(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	initial := []indexer.Passage{
		testPassage("a", 0, []float32{1, 0}),
		testPassage("a", 1, []float32{0, 1}),
		testPassage("a", 2, []float32{1, 1}),
		testPassage("b", 0, []float32{1, 0}),
	}
	if _, err := store.UpsertPassages(ctx, initial); err != nil {
		t.Fatalf("UpsertPassages() error = %v", err)
	}

	report, err := store.ReplaceNotePassages(ctx, []string{"a"}, []indexer.Passage{testPassage("a", 0, []float32{0.5, 0.5})})
	if err != nil {
		t.Fatalf("ReplaceNotePassages() error = %v", err)
	}
	if report.Deleted != 3 || report.Written != 1 {
		t.Errorf("report = %+v, want 3 deleted 1 written", report)
	}

	passages, err := store.PassagesByNote(ctx, "a")
	if err != nil {
		t.Fatalf("PassagesByNote() error = %v", err)
	}
	if len(passages) != 1 || passages[0].Vector[0] != 0.5 {
		t.Errorf("PassagesByNote(a) = %+v", passages)
	}

	// A batch that fails entirely keeps the old passages.
	bad := testPassage("b", 0, nil)
	if _, err := store.ReplaceNotePassages(ctx, []string{"b"}, []indexer.Passage{bad}); !errors.Is(err, ErrBatchFailed) {
		t.Fatalf("ReplaceNotePassages() error = %v, want ErrBatchFailed", err)
	}
	passages, _ = store.PassagesByNote(ctx, "b")
	if len(passages) != 1 {
		t.Errorf("PassagesByNote(b) after failed replace = %d, want 1", len(passages))
	}

	// An empty replacement just deletes.
	if _, err := store.ReplaceNotePassages(ctx, []string{"b"}, nil); err != nil {
		t.Fatalf("ReplaceNotePassages() empty error = %v", err)
	}
	passages, _ = store.PassagesByNote(ctx, "b")
	if len(passages) != 0 {
		t.Errorf("PassagesByNote(b) after empty replace = %d, want 0", len(passages))
	}
}

func TestStore_ReplaceNotePassages_InsertFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.withDB(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `CREATE TRIGGER reject_passage BEFORE INSERT ON passages
			WHEN NEW.note_id = 'rejected'
			BEGIN SELECT RAISE(ABORT, 'rejected by trigger'); END;`)
		return err
	})
	if err != nil {
		t.Fatalf("create trigger error = %v", err)
	}

	batch := []indexer.Passage{
		testPassage("a", 0, []float32{1, 0}),
		testPassage("rejected", 0, []float32{0, 1}),
		testPassage("a", 1, []float32{1, 1}),
	}
	report, err := store.ReplaceNotePassages(ctx, []string{"a", "rejected"}, batch)
	if err != nil {
		t.Fatalf("ReplaceNotePassages() error = %v", err)
	}
	if report.Written != 2 || len(report.Failures) != 1 {
		t.Fatalf("report = %+v, want 2 written and 1 failure", report)
	}
	if report.Failures[0].ID != indexer.PassageID("rejected", 0) {
		t.Errorf("failure ID = %q", report.Failures[0].ID)
	}
	if count, _ := store.Count(ctx); count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	// Nothing written means the replace is rolled back.
	_, err = store.ReplaceNotePassages(ctx, []string{"a"}, []indexer.Passage{testPassage("rejected", 1, []float32{1, 0})})
	if !errors.Is(err, ErrBatchFailed) {
		t.Fatalf("ReplaceNotePassages() error = %v, want ErrBatchFailed", err)
	}
	passages, _ := store.PassagesByNote(ctx, "a")
	if len(passages) != 2 {
		t.Errorf("PassagesByNote(a) after rejected replace = %d, want 2", len(passages))
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	p := testPassage("note", 0, []float32{0.25, -0.5, 1})
	p.NoteTags = []string{"go", "notes"}
	p.HeadingAnchor = "Intro"
	p.RawContent = "# Intro"
	p.Flags = indexer.Flags{Archived: true, TaskListNote: true}
	if _, err := store.UpsertPassages(ctx, []indexer.Passage{p}); err != nil {
		t.Fatalf("UpsertPassages() error = %v", err)
	}

	got, err := store.GetPassage(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPassage() error = %v", err)
	}
	if got.NoteTitle != p.NoteTitle || got.HeadingAnchor != "Intro" || got.RawContent != "# Intro" {
		t.Errorf("GetPassage() = %+v", got)
	}
	if len(got.NoteTags) != 2 || got.NoteTags[1] != "notes" {
		t.Errorf("NoteTags = %v", got.NoteTags)
	}
	if got.Flags != p.Flags {
		t.Errorf("Flags = %+v, want %+v", got.Flags, p.Flags)
	}
	for i := range p.Vector {
		if got.Vector[i] != p.Vector[i] {
			t.Errorf("Vector[%d] = %v, want %v", i, got.Vector[i], p.Vector[i])
		}
	}

	if _, err := store.GetPassage(ctx, "missing#0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPassage(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_PassagesByNoteOrdersByIndex(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var passages []indexer.Passage
	for i := 11; i >= 0; i-- {
		passages = append(passages, testPassage("n", i, []float32{1, 0}))
	}
	if _, err := store.UpsertPassages(ctx, passages); err != nil {
		t.Fatalf("UpsertPassages() error = %v", err)
	}

	got, err := store.PassagesByNote(ctx, "n")
	if err != nil {
		t.Fatalf("PassagesByNote() error = %v", err)
	}
	for i, p := range got {
		if p.ID != indexer.PassageID("n", i) {
			t.Fatalf("passage %d = %s, want %s", i, p.ID, indexer.PassageID("n", i))
		}
	}
}

func TestStore_PruneNotes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.UpsertPassages(ctx, []indexer.Passage{
		testPassage("keep", 0, []float32{1, 0}),
		testPassage("gone", 0, []float32{1, 0}),
		testPassage("gone", 1, []float32{1, 0}),
	}); err != nil {
		t.Fatalf("UpsertPassages() error = %v", err)
	}

	pruned, err := store.PruneNotes(ctx, []string{"keep", "never-indexed"})
	if err != nil {
		t.Fatalf("PruneNotes() error = %v", err)
	}
	if len(pruned) != 1 || pruned[0] != "gone" {
		t.Errorf("PruneNotes() = %v, want [gone]", pruned)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Passages != 1 || stats.Notes != 1 || stats.VectoredPassages != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestStore_VectorsByContentHash(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	p := testPassage("a", 0, []float32{0.6, 0.8})
	if _, err := store.UpsertPassages(ctx, []indexer.Passage{p}); err != nil {
		t.Fatalf("UpsertPassages() error = %v", err)
	}

	got, err := store.VectorsByContentHash(ctx, []string{p.ContentHash, "unknown"})
	if err != nil {
		t.Fatalf("VectorsByContentHash() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("VectorsByContentHash() = %d entries, want 1", len(got))
	}
	if v := got[p.ContentHash]; len(v) != 2 || v[1] != 0.8 {
		t.Errorf("vector = %v", v)
	}
}

func TestStore_TokenCounts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	counts, err := store.TokenCounts(ctx)
	if err != nil {
		t.Fatalf("TokenCounts() error = %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("TokenCounts() on empty index = %v", counts)
	}

	long := testPassage("b", 0, []float32{0, 1})
	long.TokenCount = 9
	seed(t, store, testPassage("a", 0, []float32{1, 0}), long)

	counts, err = store.TokenCounts(ctx)
	if err != nil {
		t.Fatalf("TokenCounts() error = %v", err)
	}
	stats := indexer.ComputeTokenStats(counts)
	if stats.Min != 4 || stats.Max != 9 {
		t.Errorf("stats = %+v, want min 4 max 9", stats)
	}
}
