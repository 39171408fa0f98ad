package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"notes-retrieval/internal/indexer"
)

type errString string

func (e errString) Error() string { return string(e) }

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := Open(ctx, Options{Path: filepath.Join(t.TempDir(), "index.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})
	return store
}

func testPassage(noteID string, index int, vec []float32) indexer.Passage {
	id := indexer.PassageID(noteID, index)
	return indexer.Passage{
		ID:               id,
		NoteID:           noteID,
		NoteTitle:        "Title " + noteID,
		NoteTags:         []string{"tag"},
		ProcessedContent: "content of " + id,
		ContentHash:      "hash-" + id,
		TokenCount:       4,
		Vector:           vec,
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), Options{}); err == nil {
		t.Error("Open() without path should return error")
	}
}

func TestStore_ClosedRejectsCalls(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Options{Path: filepath.Join(t.TempDir(), "index.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	hookRuns := 0
	store.OnClose(func() { hookRuns++ })

	if err := store.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if hookRuns != 1 {
		t.Errorf("close hooks ran %d times, want 1", hookRuns)
	}
	if _, err := store.Count(ctx); err == nil {
		t.Error("Count() after Close should fail")
	}
}
