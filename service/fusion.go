package service

import (
	"sort"

	"peoplescourt-backend/models"
)

const (
	// rrfK is the Reciprocal Rank Fusion damping constant
	rrfK = 60
	// rrfTopRankBonus is added for ids ranked #1 in a source list, breaking
	// near-ties in favor of the single best match of either modality
	rrfTopRankBonus = 0.01
)

// FuseRanks merges two independently ranked hit lists into one consensus
// ranking using Reciprocal Rank Fusion. Source scores are ignored; only
// 1-based rank positions matter. An id appearing at rank r contributes
// 1/(rrfK+r) per source, plus rrfTopRankBonus when r == 1. Ids present in
// both lists accumulate both contributions.
//
// The result covers the union of input ids, sorted by fused score
// descending. Ties preserve source iteration order (vector hits first, then
// keyword-only ids), so fusion is fully deterministic. Empty inputs are
// valid: fusion degrades to the other list's rank ordering, and two empty
// lists yield an empty result.
func FuseRanks(vectorHits, keywordHits []models.RankedHit) []models.RankedHit {
	scores := make(map[string]float64, len(vectorHits)+len(keywordHits))
	var order []string

	accumulate := func(hits []models.RankedHit) {
		for i, hit := range hits {
			rank := i + 1
			contribution := 1.0 / float64(rrfK+rank)
			if rank == 1 {
				contribution += rrfTopRankBonus
			}
			if _, seen := scores[hit.ID]; !seen {
				order = append(order, hit.ID)
			}
			scores[hit.ID] += contribution
		}
	}

	accumulate(vectorHits)
	accumulate(keywordHits)

	fused := make([]models.RankedHit, 0, len(order))
	for _, id := range order {
		fused = append(fused, models.RankedHit{ID: id, Score: scores[id]})
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return fused
}
