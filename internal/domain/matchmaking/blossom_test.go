package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxWeightMatching_Empty(t *testing.T) {
	mate := maxWeightMatching(nil, 0)
	assert.Empty(t, mate)

	mate = maxWeightMatching(nil, 3)
	assert.Equal(t, []int{-1, -1, -1}, mate)
}

func TestMaxWeightMatching_SingleEdge(t *testing.T) {
	mate := maxWeightMatching([]weightedEdge{{0, 1, 1.0}}, 2)
	assert.Equal(t, []int{1, 0}, mate)
}

func TestMaxWeightMatching_PicksHeavierEdge(t *testing.T) {
	edges := []weightedEdge{
		{0, 1, 10},
		{1, 2, 11},
	}
	mate := maxWeightMatching(edges, 3)
	assert.Equal(t, []int{-1, 2, 1}, mate)
}

func TestMaxWeightMatching_MaxCardinalityBeatsHeavierSingleEdge(t *testing.T) {
	// Две пары весом 5+5 предпочтительнее одной пары весом 11:
	// мощность паросочетания важнее суммарного веса.
	edges := []weightedEdge{
		{0, 1, 5},
		{1, 2, 11},
		{2, 3, 5},
	}
	mate := maxWeightMatching(edges, 4)
	assert.Equal(t, []int{1, 0, 3, 2}, mate)
}

func TestMaxWeightMatching_SBlossom(t *testing.T) {
	edges := []weightedEdge{
		{0, 1, 8},
		{0, 2, 9},
		{1, 2, 10},
		{2, 3, 7},
	}
	mate := maxWeightMatching(edges, 4)
	assert.Equal(t, []int{1, 0, 3, 2}, mate)
}

func TestMaxWeightMatching_SBlossomWithAugmentation(t *testing.T) {
	edges := []weightedEdge{
		{0, 1, 8},
		{0, 2, 9},
		{1, 2, 10},
		{2, 3, 7},
		{0, 5, 5},
		{3, 4, 6},
	}
	mate := maxWeightMatching(edges, 6)
	assert.Equal(t, []int{5, 2, 1, 4, 3, 0}, mate)
}

func TestMaxWeightMatching_ValidMate(t *testing.T) {
	graphs := [][]weightedEdge{
		// Вложенный S-цветок.
		{{0, 1, 9}, {0, 2, 9}, {1, 2, 10}, {1, 3, 8}, {2, 4, 8}, {3, 4, 10}, {4, 5, 6}},
		// S-цветок, переметка в T-цветок.
		{{0, 1, 9}, {0, 2, 8}, {1, 2, 10}, {0, 3, 5}, {3, 4, 4}, {0, 5, 3}},
		// Раскрытие вложенного цветка.
		{{0, 1, 8}, {0, 2, 8}, {1, 2, 10}, {1, 3, 12}, {2, 4, 12}, {3, 4, 14}, {3, 5, 12}, {4, 6, 12}, {5, 6, 14}, {6, 7, 12}},
		{{0, 1, 23}, {0, 4, 22}, {0, 5, 15}, {1, 2, 25}, {2, 3, 22}, {3, 4, 25}, {3, 7, 14}, {4, 6, 13}},
	}
	for gi, edges := range graphs {
		nvertex := 0
		for _, e := range edges {
			if e.i >= nvertex {
				nvertex = e.i + 1
			}
			if e.j >= nvertex {
				nvertex = e.j + 1
			}
		}

		mate := maxWeightMatching(edges, nvertex)
		require.Len(t, mate, nvertex, "graph %d", gi)

		// Согласованность: mate[mate[v]] == v, пары лежат на рёбрах графа.
		edgeSet := make(map[[2]int]bool)
		for _, e := range edges {
			edgeSet[[2]int{e.i, e.j}] = true
			edgeSet[[2]int{e.j, e.i}] = true
		}
		for v, w := range mate {
			if w == -1 {
				continue
			}
			assert.Equal(t, v, mate[w], "graph %d: mate inconsistency at %d", gi, v)
			assert.True(t, edgeSet[[2]int{v, w}], "graph %d: pair (%d,%d) is not an edge", gi, v, w)
		}

		// Оптимальность против полного перебора.
		wantCard, wantWeight := bruteForceMatching(edges, nvertex)
		gotCard, gotWeight := 0, 0.0
		for v, w := range mate {
			if w > v {
				gotCard++
				for _, e := range edges {
					if (e.i == v && e.j == w) || (e.i == w && e.j == v) {
						gotWeight += e.weight
						break
					}
				}
			}
		}
		assert.Equal(t, wantCard, gotCard, "graph %d: cardinality", gi)
		assert.InDelta(t, wantWeight, gotWeight, 1e-9, "graph %d: total weight", gi)
	}
}

func TestMaxWeightMatching_Deterministic(t *testing.T) {
	edges := []weightedEdge{
		{0, 1, 0.5}, {0, 2, 0.5}, {1, 2, 0.5}, {2, 3, 0.5}, {3, 4, 0.5}, {0, 4, 0.5},
	}
	first := maxWeightMatching(edges, 5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, maxWeightMatching(edges, 5))
	}
}

// bruteForceMatching перебирает все паросочетания и возвращает параметры
// лучшего: сначала максимум мощности, затем максимум суммарного веса.
func bruteForceMatching(edges []weightedEdge, nvertex int) (card int, weight float64) {
	used := make([]bool, nvertex)

	var walk func(k int, c int, w float64)
	walk = func(k int, c int, w float64) {
		if c > card || (c == card && w > weight) {
			card, weight = c, w
		}
		for i := k; i < len(edges); i++ {
			e := edges[i]
			if used[e.i] || used[e.j] {
				continue
			}
			used[e.i], used[e.j] = true, true
			walk(i+1, c+1, w+e.weight)
			used[e.i], used[e.j] = false, false
		}
	}
	walk(0, 0, 0)
	return card, weight
}
