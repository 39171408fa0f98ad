package indexer

import (
	"math"
	"sort"
)

// ChunkTokenStats contains statistics about token counts in passages.
type ChunkTokenStats struct {
	// Min is the minimum token count across all passages.
	Min int `json:"min"`
	// Max is the maximum token count across all passages.
	Max int `json:"max"`
	// Mean is the mean token count across all passages.
	Mean float64 `json:"mean"`
	// P95 is the 95th percentile token count.
	P95 int `json:"p95"`
}

// PassageStats computes token statistics for a set of passages.
func PassageStats(passages []Passage) ChunkTokenStats {
	counts := make([]int, 0, len(passages))
	for _, p := range passages {
		counts = append(counts, p.TokenCount)
	}
	return ComputeTokenStats(counts)
}

// ComputeTokenStats computes min, max, mean, and p95 from token counts.
func ComputeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
