package embedding

import (
	"context"
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestLocalProvider_GenerateEmbedding(t *testing.T) {
	p := NewLocalProvider(0)
	texts := []string{
		"apple pie recipe with cinnamon",
		"apple pie recipe with cinnamon",
		"cinnamon apple pie",
		"kubernetes cluster upgrade notes",
		"",
	}
	vectors, err := p.GenerateEmbedding(context.Background(), texts, InputPassage)
	if err != nil {
		t.Fatalf("GenerateEmbedding() unexpected error: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("count = %d, want %d", len(vectors), len(texts))
	}

	for i, v := range vectors {
		if len(v) != LocalDimensions {
			t.Errorf("vector %d size = %d, want %d", i, len(v), LocalDimensions)
		}
		if n := dot(v, v); math.Abs(n-1) > 1e-5 {
			t.Errorf("vector %d norm^2 = %v, want 1", i, n)
		}
	}

	if s := dot(vectors[0], vectors[1]); math.Abs(s-1) > 1e-5 {
		t.Errorf("identical texts similarity = %v, want 1", s)
	}
	related := dot(vectors[0], vectors[2])
	unrelated := dot(vectors[0], vectors[3])
	if related <= unrelated {
		t.Errorf("related similarity %v should exceed unrelated %v", related, unrelated)
	}
}

func TestLocalProvider_EmptyInput(t *testing.T) {
	p := NewLocalProvider(16)
	if _, err := p.GenerateEmbedding(context.Background(), nil, InputQuery); err != ErrEmptyInput {
		t.Errorf("error = %v, want ErrEmptyInput", err)
	}
	if p.Metadata().Model != LocalModel {
		t.Errorf("Model = %q, want %q", p.Metadata().Model, LocalModel)
	}
}
