package domain

import (
	"math"
	"sort"
)

// CosineSimilarity computes the directional alignment of two vectors,
// in [-1, 1]. It returns exactly 0 when either vector has zero magnitude
// or when the dimensions mismatch: malformed data degrades retrieval
// quality instead of crashing it.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopKBySimilarity scores every candidate against the query vector and
// returns the ranked results: strictly descending similarity, ties broken
// by most recent CreatedAt, candidates below MinSimilarity dropped, and
// the list truncated to TopK. Both store backends rank through this one
// function so they honour an identical search contract.
func TopKBySimilarity(candidates []KnowledgeRecord, query []float32, opts SearchOptions) []RetrievalResult {
	results := make([]RetrievalResult, 0, len(candidates))
	for i := range candidates {
		similarity := CosineSimilarity(query, candidates[i].Embedding)
		if similarity < opts.MinSimilarity {
			continue
		}
		results = append(results, RetrievalResult{
			Record:     candidates[i],
			Similarity: similarity,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Record.CreatedAt.After(results[j].Record.CreatedAt)
	})

	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}

	return results
}

// MatchesFilter reports whether a record satisfies a provenance filter.
func (r *KnowledgeRecord) MatchesFilter(filter RecordFilter) bool {
	if filter.SourceTag != "" && r.SourceTag != filter.SourceTag {
		return false
	}
	if filter.SourceFile != "" && r.SourceFile != filter.SourceFile {
		return false
	}
	return true
}

// MatchesTags reports whether a record's tag is in the given set.
// An empty set matches every record.
func (r *KnowledgeRecord) MatchesTags(tags []SourceTag) bool {
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if r.SourceTag == tag {
			return true
		}
	}
	return false
}
