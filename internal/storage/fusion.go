package storage

import (
	"cmp"
	"slices"
)

// scored is one entry of a ranking before fusion.
type scored struct {
	id    string
	score float64
}

// assignRanks sorts entries by score descending, ties broken by id
// ascending, and returns 1-based ranks keyed by id.
func assignRanks(entries []scored) map[string]int {
	slices.SortFunc(entries, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	ranks := make(map[string]int, len(entries))
	for i, e := range entries {
		ranks[e.id] = i + 1
	}
	return ranks
}

// rrf is the Reciprocal Rank Fusion contribution of a 1-based rank.
// A zero rank means absent and contributes nothing.
func rrf(weight, k float64, rank int) float64 {
	if rank <= 0 {
		return 0
	}
	return weight / (k + float64(rank))
}

// fuse combines the two rankings. Every id present in either ranking gets
// a fused score.
func fuse(lexical, vector map[string]int, params FusionParams) map[string]float64 {
	out := make(map[string]float64, len(vector)+len(lexical))
	for id, rank := range vector {
		out[id] += rrf(params.VectorWeight, params.K, rank)
	}
	for id, rank := range lexical {
		out[id] += rrf(params.LexicalWeight, params.K, rank)
	}
	return out
}

func normalizeFusion(p FusionParams) FusionParams {
	if p.K <= 0 {
		p.K = DefaultFusion().K
	}
	if p.LexicalWeight == 0 && p.VectorWeight == 0 {
		d := DefaultFusion()
		p.LexicalWeight, p.VectorWeight = d.LexicalWeight, d.VectorWeight
	}
	return p
}
