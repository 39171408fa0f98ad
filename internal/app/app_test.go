package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"notes-retrieval/internal/config"
	"notes-retrieval/internal/service"
	"notes-retrieval/internal/syncer"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	notes := t.TempDir()
	files := map[string]string{
		"coffee.md":       "---\ntitle: Coffee\ntags: [drinks]\n---\n# Brewing\n\nPull an espresso shot for 25 seconds.\n",
		"garden/roses.md": "# Roses\n\nPrune the roses in early spring.\n",
	}
	for name, content := range files {
		path := filepath.Join(notes, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return &config.Config{
		DBPath:                 filepath.Join(t.TempDir(), "index.db"),
		NotesPath:              notes,
		Owner:                  "tester",
		EmbeddingProvider:      "local",
		QueryCacheSize:         16,
		ChunkMaxTokens:         128,
		ChunkRebalanceFraction: 0.7,
		SyncBatchSize:          10,
		SyncStaleFraction:      0.25,
		HybridLexicalWeight:    0.4,
		HybridVectorWeight:     0.6,
		HybridRRFK:             60,
		StoreIdleTimeout:       time.Minute,
	}
}

func TestApp_SyncThenSearch(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, newTestConfig(t), syncer.AutoConfirmer{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = a.Close(ctx) }()

	_, err = a.SearchService.Search(ctx, service.SearchRequest{Query: "espresso"})
	if !errors.Is(err, service.ErrPrecondition) {
		t.Fatalf("Search() before sync error = %v, want ErrPrecondition", err)
	}

	summary, err := a.SyncService.Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Processed != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	resp, err := a.SearchService.Search(ctx, service.SearchRequest{Query: "espresso", Hybrid: true})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("Search() returned no results")
	}
	if resp.Results[0].NoteID != "coffee.md" {
		t.Errorf("top result note = %q, want coffee.md", resp.Results[0].NoteID)
	}

	status, err := a.SyncService.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.State != syncer.FullySynced {
		t.Errorf("State = %v, want %v", status.State, syncer.FullySynced)
	}
	if status.Stats.Notes != 2 {
		t.Errorf("Stats.Notes = %d, want 2", status.Stats.Notes)
	}
}

func TestApp_HealthHandler(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, newTestConfig(t), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = a.Close(ctx) }()

	rec := httptest.NewRecorder()
	a.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestNew_MissingNotesPath(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.NotesPath = filepath.Join(t.TempDir(), "missing")
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("New() expected error for missing notes directory")
	}
}
