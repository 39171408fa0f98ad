package embedding_test

import (
	"context"
	"testing"

	"notes-retrieval/internal/embedding"
	"notes-retrieval/internal/embedding/mocks"

	"go.uber.org/mock/gomock"
)

func TestQueryCache_Embed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Metadata().Return(embedding.Metadata{Model: "m"}).AnyTimes()
	provider.EXPECT().
		GenerateEmbedding(gomock.Any(), []string{"apple"}, embedding.InputQuery).
		Return([][]float32{{1, 0}}, nil).
		Times(1)
	provider.EXPECT().
		GenerateEmbedding(gomock.Any(), []string{"pear"}, embedding.InputQuery).
		Return([][]float32{{0, 1}}, nil).
		Times(1)

	cache, err := embedding.NewQueryCache(4)
	if err != nil {
		t.Fatalf("NewQueryCache() unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		vec, err := cache.Embed(context.Background(), provider, "apple")
		if err != nil {
			t.Fatalf("Embed() unexpected error: %v", err)
		}
		if vec[0] != 1 {
			t.Errorf("Embed(apple) = %v", vec)
		}
	}
	if _, err := cache.Embed(context.Background(), provider, "pear"); err != nil {
		t.Fatalf("Embed() unexpected error: %v", err)
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}

	cache.Purge()
	if cache.Len() != 0 {
		t.Errorf("Len() after Purge = %d, want 0", cache.Len())
	}
}
