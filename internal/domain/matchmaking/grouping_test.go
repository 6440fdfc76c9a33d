package matchmaking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniformMatrix строит матрицу с одинаковой совместимостью всех пар.
func uniformMatrix(n int, value float64) (*Matrix, []string) {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%02d", i)
	}
	m := NewMatrix(ids)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.set(ids[i], ids[j], value)
		}
	}
	return m, ids
}

func groupSizes(groups [][]string) []int {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g)
	}
	return sizes
}

func assertNoDuplicates(t *testing.T, groups [][]string) {
	t.Helper()
	seen := make(map[string]struct{})
	for _, g := range groups {
		for _, id := range g {
			_, ok := seen[id]
			require.False(t, ok, "participant %s appears twice", id)
			seen[id] = struct{}{}
		}
	}
}

func TestComposeGroups_Empty(t *testing.T) {
	sim, _ := uniformMatrix(0, 0)
	assert.Empty(t, ComposeGroups(nil, sim))
}

func TestComposeGroups_SevenCandidates(t *testing.T) {
	sim, ids := uniformMatrix(7, 0.5)
	groups := ComposeGroups(ids, sim)

	total := 0
	for _, g := range groups {
		total += len(g)
		assert.GreaterOrEqual(t, len(g), MinGroupSize)
		assert.LessOrEqual(t, len(g), MaxGroupSize)
	}
	assert.Equal(t, 7, total)
	assertNoDuplicates(t, groups)
}

func TestComposeGroups_SizesWithinBounds(t *testing.T) {
	// Для этих численностей восстановительные проходы дают размеры в границах.
	for _, n := range []int{3, 4, 7, 8, 10, 11, 12, 15, 20} {
		sim, ids := uniformMatrix(n, 0.5)
		groups := ComposeGroups(ids, sim)

		total := 0
		for _, g := range groups {
			total += len(g)
			assert.GreaterOrEqual(t, len(g), MinGroupSize, "n=%d sizes=%v", n, groupSizes(groups))
			assert.LessOrEqual(t, len(g), MaxGroupSize, "n=%d sizes=%v", n, groupSizes(groups))
		}
		assert.Equal(t, n, total, "n=%d", n)
		assertNoDuplicates(t, groups)
	}
}

func TestComposeGroups_TooFewCandidatesDegrades(t *testing.T) {
	// Двоих невозможно собрать в валидную группу: явная деградация,
	// но оба участника остаются в результате.
	sim, ids := uniformMatrix(2, 0.5)
	groups := ComposeGroups(ids, sim)

	total := 0
	for _, g := range groups {
		total += len(g)
	}
	assert.Equal(t, 2, total)
	assertNoDuplicates(t, groups)
}

func TestComposeGroups_FiveCandidates(t *testing.T) {
	// 5 = 4+1 либо 3+2: валидного разбиения нет, деградация допустима,
	// но покрытие полное.
	sim, ids := uniformMatrix(5, 0.5)
	groups := ComposeGroups(ids, sim)

	total := 0
	for _, g := range groups {
		total += len(g)
		assert.LessOrEqual(t, len(g), MaxGroupSize)
	}
	assert.Equal(t, 5, total)
	assertNoDuplicates(t, groups)
}

func TestComposeGroups_SimilarCandidatesClusterTogether(t *testing.T) {
	// Два плотных облака по 4: кластеризация должна разделить их.
	ids := []string{"a1", "a2", "a3", "a4", "b1", "b2", "b3", "b4"}
	m := NewMatrix(ids)
	for i := 0; i < 8; i++ {
		for j := i + 1; j < 8; j++ {
			sameCloud := (i < 4) == (j < 4)
			if sameCloud {
				m.set(ids[i], ids[j], 0.9)
			} else {
				m.set(ids[i], ids[j], 0.1)
			}
		}
	}

	groups := ComposeGroups(ids, m)
	require.Len(t, groups, 2)
	for _, g := range groups {
		require.Len(t, g, 4)
		prefix := g[0][:1]
		for _, id := range g {
			assert.Equal(t, prefix, id[:1], "cloud split across groups: %v", groups)
		}
	}
}

func TestComposeGroups_Deterministic(t *testing.T) {
	sim, ids := uniformMatrix(13, 0.5)
	first := ComposeGroups(ids, sim)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ComposeGroups(ids, sim))
	}
}

func TestClusterByDistance_SplitsIntoK(t *testing.T) {
	// Два облака на прямой: 0,1,2 близко и 10,11,12 близко.
	points := []float64{0, 1, 2, 10, 11, 12}
	dist := make([][]float64, len(points))
	for i := range points {
		dist[i] = make([]float64, len(points))
		for j := range points {
			d := points[i] - points[j]
			if d < 0 {
				d = -d
			}
			dist[i][j] = d
		}
	}

	clusters := clusterByDistance(dist, 2)
	require.Len(t, clusters, 2)
	for _, c := range clusters {
		assert.Len(t, c, 3)
	}
}
