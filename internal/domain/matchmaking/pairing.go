package matchmaking

// ══════════════════════════════════════════════════════════════════════════════
// PAIR MATCHER
// ══════════════════════════════════════════════════════════════════════════════

// PairResult - сформированная пара с её оценкой совместимости.
type PairResult struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

// MatchPairs подбирает пары среди участников запрошенной категории.
//
// Строится граф, где ребро (a, b) существует при совместимости >= baseline
// (порог включительный), и решается задача паросочетания максимального веса
// с предпочтением максимального числа пар. Участники категории, не попавшие
// в решение, возвращаются в unmatched в исходном порядке ростера.
func MatchPairs(intent Intent, sim *Matrix, roster []Participant, baseline float64) (pairs []PairResult, unmatched []string) {
	var subset []string
	for _, p := range roster {
		if p.Intent == intent {
			subset = append(subset, p.ID)
		}
	}
	if len(subset) == 0 {
		return nil, nil
	}

	var edges []weightedEdge
	for i := 0; i < len(subset); i++ {
		for j := i + 1; j < len(subset); j++ {
			if score := sim.At(subset[i], subset[j]); score >= baseline {
				edges = append(edges, weightedEdge{i: i, j: j, weight: score})
			}
		}
	}

	mate := maxWeightMatching(edges, len(subset))

	matched := make(map[string]struct{}, len(subset))
	for i, j := range mate {
		if j > i {
			a, b := subset[i], subset[j]
			pairs = append(pairs, PairResult{A: a, B: b, Score: sim.At(a, b)})
			matched[a] = struct{}{}
			matched[b] = struct{}{}
		}
	}

	for _, id := range subset {
		if _, ok := matched[id]; !ok {
			unmatched = append(unmatched, id)
		}
	}
	return pairs, unmatched
}
