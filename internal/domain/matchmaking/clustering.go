package matchmaking

// ══════════════════════════════════════════════════════════════════════════════
// AVERAGE-LINKAGE CLUSTERING
// ══════════════════════════════════════════════════════════════════════════════

// clusterByDistance выполняет агломеративную иерархическую кластеризацию
// средней связью: начиная с одиночных элементов, на каждом шаге сливается
// пара кластеров с минимальным средним попарным расстоянием между членами,
// пока не останется k кластеров.
//
// Разрешение ничьих детерминировано: при равных расстояниях побеждает пара,
// встреченная первой при обходе в порядке создания кластеров. Возвращаются
// группы индексов входной матрицы.
func clusterByDistance(dist [][]float64, k int) [][]int {
	n := len(dist)
	if n == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}

	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	for len(clusters) > k {
		bi, bj := -1, -1
		best := 0.0
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				d := averageLinkage(dist, clusters[i], clusters[j])
				if bi == -1 || d < best {
					best = d
					bi, bj = i, j
				}
			}
		}
		clusters[bi] = append(clusters[bi], clusters[bj]...)
		clusters = append(clusters[:bj], clusters[bj+1:]...)
	}
	return clusters
}

// averageLinkage возвращает среднее попарное расстояние между двумя кластерами.
func averageLinkage(dist [][]float64, a, b []int) float64 {
	sum := 0.0
	for _, i := range a {
		for _, j := range b {
			sum += dist[i][j]
		}
	}
	return sum / float64(len(a)*len(b))
}
