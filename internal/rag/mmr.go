package rag

import (
	"math"

	"docqa/internal/domain"
	"docqa/internal/store"
)

// MMR selects k of the ranked candidates by maximal marginal relevance:
// each step takes the candidate maximising
//
//	lambda*relevance - (1-lambda)*max cosine to already selected
//
// where relevance is the candidate's query score. Ties go to the better
// ranked candidate. lambda=1 reproduces the input order.
func MMR(candidates []domain.SearchResult, k int, lambda float64) []domain.SearchResult {
	if k > len(candidates) {
		k = len(candidates)
	}
	if k <= 0 {
		return nil
	}

	selected := make([]domain.SearchResult, 0, k)
	used := make([]bool, len(candidates))
	// maxSim[i] is the highest similarity of candidate i to any selected one.
	maxSim := make([]float64, len(candidates))

	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			score := lambda * c.Score
			if len(selected) > 0 {
				score -= (1 - lambda) * maxSim[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}

		used[best] = true
		picked := candidates[best]
		selected = append(selected, picked)

		for i, c := range candidates {
			if used[i] {
				continue
			}
			sim := store.Cosine(c.Vector, picked.Vector)
			if len(selected) == 1 || sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}
	return selected
}
