// Package search runs the three retrieval strategies against the corpus
// and fuses their rankings.
package search

import (
	"sort"

	"github.com/refutelab/refute/internal/model"
)

// DefaultFusionK is the standard RRF constant
const DefaultFusionK = 60

// FuseRRF combines ranked lists with Reciprocal Rank Fusion: each list
// contributes 1/(k+rank) per document, ranks 1-based. RRF needs no score
// normalization, which matters because semantic, hyde, and keyword
// scores are not comparable. The result is a pure function of the input
// lists and k; ties break by first appearance across the lists, keeping
// the fused order deterministic.
func FuseRRF(lists [][]model.RankedDoc, k int) []model.RankedDoc {
	if k <= 0 {
		k = DefaultFusionK
	}

	scores := make(map[string]float64)
	firstSeen := make(map[string]int)
	order := 0

	for _, list := range lists {
		for rank, doc := range list {
			if _, seen := scores[doc.DocID]; !seen {
				firstSeen[doc.DocID] = order
				order++
			}
			scores[doc.DocID] += 1.0 / float64(k+rank+1)
		}
	}

	fused := make([]model.RankedDoc, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, model.RankedDoc{DocID: id, Score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return firstSeen[fused[i].DocID] < firstSeen[fused[j].DocID]
	})

	return fused
}
