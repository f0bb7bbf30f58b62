package analysis

import (
	"math"
	"sort"
)

// assignRanks sorts by descending score and numbers ranks from 1.
// Equal scores keep their input order.
func assignRanks(ranked []RankedOption) []RankedOption {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// rankOrder returns option IDs in ranked order.
func rankOrder(ranked []RankedOption) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.OptionID
	}
	return ids
}

// gapConfidence measures how clearly separated consecutive scores are
// relative to an even spread over the score range.
//
//	confidence = min(1, meanGap / (range / n))
func gapConfidence(ranked []RankedOption) float64 {
	n := len(ranked)
	switch n {
	case 0:
		return 0
	case 1:
		return 1
	}
	var gaps float64
	hi, lo := ranked[0].Score, ranked[0].Score
	for i := 1; i < n; i++ {
		gaps += math.Abs(ranked[i-1].Score - ranked[i].Score)
		hi = math.Max(hi, ranked[i].Score)
		lo = math.Min(lo, ranked[i].Score)
	}
	spread := hi - lo
	if spread == 0 {
		return 0
	}
	meanGap := gaps / float64(n-1)
	return math.Min(1, meanGap/(spread/float64(n)))
}
