package retrieval_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"notes-retrieval/internal/embedding"
	embeddingmocks "notes-retrieval/internal/embedding/mocks"
	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/retrieval"
	"notes-retrieval/internal/retrieval/mocks"
	"notes-retrieval/internal/storage"
	"notes-retrieval/internal/syncer"
	"notes-retrieval/internal/vectorstore"
)

func synced(context.Context) (syncer.State, error) { return syncer.FullySynced, nil }

func stateOf(s syncer.State) retrieval.StateFunc {
	return func(context.Context) (syncer.State, error) { return s, nil }
}

func newProvider(ctrl *gomock.Controller, vec []float32) *embeddingmocks.MockProvider {
	p := embeddingmocks.NewMockProvider(ctrl)
	p.EXPECT().Metadata().Return(embedding.Metadata{Model: "test-model", Normalized: true}).AnyTimes()
	p.EXPECT().GenerateEmbedding(gomock.Any(), gomock.Any(), embedding.InputQuery).
		Return([][]float32{vec}, nil).AnyTimes()
	return p
}

func TestEngine_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		state   retrieval.StateFunc
		wantErr error
	}{
		{name: "empty query", query: "", state: synced, wantErr: retrieval.ErrEmptyQuery},
		{name: "blank query", query: "  \t", state: synced, wantErr: retrieval.ErrEmptyQuery},
		{name: "not synced", query: "tea", state: stateOf(syncer.NotSynced), wantErr: retrieval.ErrNotSynced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			index := mocks.NewMockIndex(ctrl)
			provider := embeddingmocks.NewMockProvider(ctrl)

			engine, err := retrieval.NewEngine(index, provider, tt.state)
			require.NoError(t, err)

			_, err = engine.Search(context.Background(), tt.query, storage.Filters{}, 5)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = engine.HybridSearch(context.Background(), tt.query, nil, storage.Filters{}, 5)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEngine_NotSyncedMessage(t *testing.T) {
	assert.Contains(t, retrieval.ErrNotSynced.Error(), "run a sync first")
}

func TestEngine_StateError(t *testing.T) {
	ctrl := gomock.NewController(t)
	boom := errors.New("list failed")
	engine, err := retrieval.NewEngine(mocks.NewMockIndex(ctrl), embeddingmocks.NewMockProvider(ctrl),
		func(context.Context) (syncer.State, error) { return syncer.NotSynced, boom })
	require.NoError(t, err)

	_, err = engine.Search(context.Background(), "tea", storage.Filters{}, 5)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_PartialStateStillSearches(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndex(ctrl)
	provider := newProvider(ctrl, []float32{1, 0})

	index.EXPECT().VectorSearch(gomock.Any(), []float32{1, 0}, gomock.Any()).Return(nil, nil)

	engine, err := retrieval.NewEngine(index, provider, stateOf(syncer.PartiallySynced))
	require.NoError(t, err)

	results, err := engine.Search(context.Background(), "tea", storage.Filters{}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_Search_QueryParameters(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndex(ctrl)
	provider := newProvider(ctrl, []float32{0, 1})
	archived := false

	index.EXPECT().VectorSearch(gomock.Any(), []float32{0, 1}, storage.VectorQuery{
		Filters:       storage.Filters{Archived: &archived},
		Limit:         retrieval.MaxLimit,
		MinSimilarity: 0.2,
		Normalized:    true,
	}).Return([]storage.VectorResult{
		{Passage: indexer.Passage{ID: "a#0"}, Similarity: 0.9},
		{Passage: indexer.Passage{ID: "b#0"}, Similarity: 0.4},
	}, nil)

	engine, err := retrieval.NewEngine(index, provider, synced, retrieval.WithMinSimilarity(0.2))
	require.NoError(t, err)

	results, err := engine.Search(context.Background(), " tea ", storage.Filters{Archived: &archived}, 1000)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a#0", results[0].Passage.ID)
	assert.Equal(t, 1, results[0].Rank)
	assert.InDelta(t, 0.9, results[0].Score, 1e-9)
	assert.Equal(t, 2, results[1].Rank)
}

func TestEngine_Search_CachesQueryEmbedding(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndex(ctrl)
	provider := embeddingmocks.NewMockProvider(ctrl)
	provider.EXPECT().Metadata().Return(embedding.Metadata{Model: "m"}).AnyTimes()
	provider.EXPECT().GenerateEmbedding(gomock.Any(), []string{"tea"}, embedding.InputQuery).
		Return([][]float32{{1, 0}}, nil).Times(1)
	index.EXPECT().VectorSearch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	engine, err := retrieval.NewEngine(index, provider, synced)
	require.NoError(t, err)

	for range 2 {
		_, err := engine.Search(context.Background(), "tea", storage.Filters{}, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, engine.Cache().Len())
}

func TestEngine_Search_EmbedError(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := embeddingmocks.NewMockProvider(ctrl)
	provider.EXPECT().Metadata().Return(embedding.Metadata{Model: "m"}).AnyTimes()
	provider.EXPECT().GenerateEmbedding(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, embedding.ErrRateLimited)

	engine, err := retrieval.NewEngine(mocks.NewMockIndex(ctrl), provider, synced)
	require.NoError(t, err)

	_, err = engine.Search(context.Background(), "tea", storage.Filters{}, 5)
	assert.ErrorIs(t, err, embedding.ErrRateLimited)
}

func TestEngine_Search_Mirror(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndex(ctrl)
	mirror := mocks.NewMockVectorMirror(ctrl)
	provider := newProvider(ctrl, []float32{1, 0})

	mirror.EXPECT().Search(gomock.Any(), []float32{1, 0}, storage.Filters{}, 3).Return([]vectorstore.SearchResult{
		{PassageID: "b#1", Score: 0.8},
		{PassageID: "gone#0", Score: 0.7},
		{PassageID: "a#0", Score: 0.6},
		{PassageID: "low#0", Score: 0.1},
	}, nil)
	index.EXPECT().PassagesByID(gomock.Any(), []string{"b#1", "gone#0", "a#0"}).Return([]indexer.Passage{
		{ID: "b#1", NoteID: "b"},
		{ID: "a#0", NoteID: "a"},
	}, nil)

	engine, err := retrieval.NewEngine(index, provider, synced,
		retrieval.WithMirror(mirror), retrieval.WithMinSimilarity(0.5))
	require.NoError(t, err)

	results, err := engine.Search(context.Background(), "tea", storage.Filters{}, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b#1", results[0].Passage.ID)
	assert.Equal(t, 1, results[0].Rank)
	assert.InDelta(t, 0.8, results[0].Score, 1e-6)
	assert.Equal(t, "a#0", results[1].Passage.ID)
	assert.Equal(t, 2, results[1].Rank)
}

func TestEngine_Search_MirrorError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mirror := mocks.NewMockVectorMirror(ctrl)
	mirror.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("unavailable"))

	engine, err := retrieval.NewEngine(mocks.NewMockIndex(ctrl), newProvider(ctrl, []float32{1}), synced,
		retrieval.WithMirror(mirror))
	require.NoError(t, err)

	_, err = engine.Search(context.Background(), "tea", storage.Filters{}, 3)
	assert.ErrorContains(t, err, "failed to search mirror")
}

func TestEngine_HybridSearch_UsesGivenVector(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndex(ctrl)
	provider := embeddingmocks.NewMockProvider(ctrl)
	provider.EXPECT().Metadata().Return(embedding.Metadata{Model: "m"}).AnyTimes()
	fusion := storage.FusionParams{LexicalWeight: 1, VectorWeight: 0, K: 10}

	index.EXPECT().HybridSearch(gomock.Any(), "green tea", []float32{0.5, 0.5}, storage.HybridQuery{
		Limit:  retrieval.DefaultLimit,
		Fusion: fusion,
	}).Return([]storage.HybridResult{
		{Passage: indexer.Passage{ID: "a#0"}, Score: 0.1, LexicalRank: 1, VectorRank: 2, LexicalScore: 1, VectorScore: 0.3},
	}, nil)

	engine, err := retrieval.NewEngine(index, provider, synced, retrieval.WithFusion(fusion))
	require.NoError(t, err)

	results, err := engine.HybridSearch(context.Background(), "green tea", []float32{0.5, 0.5}, storage.Filters{}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, retrieval.Result{
		Passage:      indexer.Passage{ID: "a#0"},
		Rank:         1,
		Score:        0.1,
		LexicalRank:  1,
		VectorRank:   2,
		LexicalScore: 1,
		VectorScore:  0.3,
	}, results[0])
}

func TestEngine_HybridSearch_EmbedsWhenVectorNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndex(ctrl)
	provider := newProvider(ctrl, []float32{0.25, 0.75})

	index.EXPECT().HybridSearch(gomock.Any(), "tea", []float32{0.25, 0.75}, gomock.Any()).Return(nil, nil)

	engine, err := retrieval.NewEngine(index, provider, synced)
	require.NoError(t, err)

	_, err = engine.HybridSearch(context.Background(), "tea", nil, storage.Filters{}, 5)
	require.NoError(t, err)
}

func TestEngine_WithStore(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Options{Path: filepath.Join(t.TempDir(), "index.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	provider := embedding.NewLocalProvider(0)
	texts := map[string]string{
		"tea":    "green tea brewing temperature and steeping time",
		"bikes":  "bicycle chain lubrication and gear tuning",
		"travel": "packing list for a winter trip to the mountains",
	}

	var passages []indexer.Passage
	for noteID, text := range texts {
		vecs, err := provider.GenerateEmbedding(ctx, []string{text}, embedding.InputPassage)
		require.NoError(t, err)
		passages = append(passages, indexer.Passage{
			ID:               indexer.PassageID(noteID, 0),
			NoteID:           noteID,
			NoteTitle:        noteID,
			ProcessedContent: text,
			ContentHash:      "hash-" + noteID,
			TokenCount:       8,
			Vector:           vecs[0],
		})
	}
	_, err = store.UpsertPassages(ctx, passages)
	require.NoError(t, err)

	engine, err := retrieval.NewEngine(store, provider, synced)
	require.NoError(t, err)

	results, err := engine.Search(ctx, "green tea steeping", storage.Filters{}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tea", results[0].Passage.NoteID)

	hybrid, err := engine.HybridSearch(ctx, "bicycle gear", nil, storage.Filters{}, 3)
	require.NoError(t, err)
	require.NotEmpty(t, hybrid)
	assert.Equal(t, "bikes", hybrid[0].Passage.NoteID)
	assert.Equal(t, 1, hybrid[0].LexicalRank)
}
