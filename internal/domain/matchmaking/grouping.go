package matchmaking

// ══════════════════════════════════════════════════════════════════════════════
// GROUP COMPOSER
//
// Чистая кластеризация по совместимости не соблюдает жёстких границ размера
// группы, поэтому после неё выполняются восстановительные проходы: слишком
// большие кластеры дробятся, слишком маленькие распускаются в пул остатка,
// а остаток раскладывается жадно по средней совместимости. Оптимальность
// приносится в жертву гарантии размеров 3-4, когда численность позволяет.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MinGroupSize - минимальный размер валидной группы.
	MinGroupSize = 3

	// MaxGroupSize - максимальный размер валидной группы.
	MaxGroupSize = 4
)

// ComposeGroups разбивает кандидатов на группы по 3-4 человека.
//
// Кандидаты - это участники категории group плюс все, кто остался без пары
// после подбора friend и date. Группа меньше MinGroupSize может появиться
// в результате только тогда, когда ни одно размещение остатка невозможно;
// это явная деградация, а не ошибка.
func ComposeGroups(candidates []string, sim *Matrix) [][]string {
	if len(candidates) == 0 {
		return nil
	}

	groups, leftover := formClusters(candidates, sim)

	// Повторная кластеризация пула остатка: один раз, без рекурсии.
	if len(leftover) >= MinGroupSize {
		more, rest := formClusters(leftover, sim)
		groups = append(groups, more...)
		leftover = rest
	}

	groups = placeLeftovers(groups, leftover, sim)
	return mergeTinyGroups(groups, sim)
}

// formClusters выполняет иерархическую кластеризацию и восстановительные
// проходы над её результатом: валидные кластеры против пула остатка.
func formClusters(ids []string, sim *Matrix) (valid [][]string, leftover []string) {
	for _, c := range initialClusters(ids, sim) {
		switch {
		case len(c) > MaxGroupSize:
			v, l := splitOversized(c, sim)
			valid = append(valid, v...)
			leftover = append(leftover, l...)
		case len(c) >= MinGroupSize:
			valid = append(valid, c)
		default:
			leftover = append(leftover, c...)
		}
	}
	return valid, leftover
}

// initialClusters строит ceil(n/4) кластеров средней связью по матрице
// расстояний 1 - sim. Для слишком малых наборов - простая нарезка подряд.
func initialClusters(ids []string, sim *Matrix) [][]string {
	if len(ids) < MinGroupSize {
		return chunk(ids, MaxGroupSize)
	}
	k := (len(ids) + MaxGroupSize - 1) / MaxGroupSize
	return mapIndexGroups(ids, clusterByDistance(distanceMatrix(ids, sim), k))
}

// splitOversized дробит кластер размером больше MaxGroupSize на
// ceil(size/4) подкластеров по той же подматрице расстояний.
// Подкластеры в границах [3,4] сохраняются, сверхбольшие нарезаются
// напрямую, недобор уходит в пул остатка.
func splitOversized(members []string, sim *Matrix) (valid [][]string, leftover []string) {
	k := (len(members) + MaxGroupSize - 1) / MaxGroupSize
	for _, sub := range mapIndexGroups(members, clusterByDistance(distanceMatrix(members, sim), k)) {
		switch {
		case len(sub) > MaxGroupSize:
			for _, c := range chunk(sub, MaxGroupSize) {
				if len(c) >= MinGroupSize {
					valid = append(valid, c)
				} else {
					leftover = append(leftover, c...)
				}
			}
		case len(sub) >= MinGroupSize:
			valid = append(valid, sub)
		default:
			leftover = append(leftover, sub...)
		}
	}
	return valid, leftover
}

// placeLeftovers жадно раскладывает пул остатка: каждый участник уходит
// в группу с местом, максимизирующую среднюю совместимость с её членами
// (при равенстве побеждает первая группа в фиксированном порядке).
// Если мест нет, открывается новая одиночная группа.
func placeLeftovers(groups [][]string, pool []string, sim *Matrix) [][]string {
	for _, id := range pool {
		best := -1
		bestMean := 0.0
		for gi, g := range groups {
			if len(g) >= MaxGroupSize {
				continue
			}
			if m := meanSimilarity(id, g, sim); best == -1 || m > bestMean {
				best = gi
				bestMean = m
			}
		}
		if best >= 0 {
			groups[best] = append(groups[best], id)
		} else {
			groups = append(groups, []string{id})
		}
	}
	return groups
}

// mergeTinyGroups распускает группы меньше MinGroupSize, пересаживая их
// членов по тому же жадному правилу. Член, которому не нашлось места,
// остаётся в собственной группе - единственный случай, когда наружу
// выходит группа меньше минимума.
func mergeTinyGroups(groups [][]string, sim *Matrix) [][]string {
	for gi := 0; gi < len(groups); gi++ {
		if len(groups[gi]) >= MinGroupSize {
			continue
		}
		members := groups[gi]
		groups[gi] = nil
		for _, id := range members {
			best := -1
			bestMean := 0.0
			for gj, g := range groups {
				if len(g) == 0 || len(g) >= MaxGroupSize {
					continue
				}
				if m := meanSimilarity(id, g, sim); best == -1 || m > bestMean {
					best = gj
					bestMean = m
				}
			}
			if best >= 0 {
				groups[best] = append(groups[best], id)
			} else {
				groups[gi] = append(groups[gi], id)
			}
		}
	}

	var out [][]string
	for _, g := range groups {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// distanceMatrix строит подматрицу расстояний 1 - sim для набора участников.
func distanceMatrix(ids []string, sim *Matrix) [][]float64 {
	dist := make([][]float64, len(ids))
	for i := range ids {
		dist[i] = make([]float64, len(ids))
		for j := range ids {
			if i != j {
				dist[i][j] = 1 - sim.At(ids[i], ids[j])
			}
		}
	}
	return dist
}

// mapIndexGroups переводит группы индексов кластеризации в группы идентификаторов.
func mapIndexGroups(ids []string, indexGroups [][]int) [][]string {
	groups := make([][]string, len(indexGroups))
	for gi, idxs := range indexGroups {
		groups[gi] = make([]string, len(idxs))
		for i, idx := range idxs {
			groups[gi][i] = ids[idx]
		}
	}
	return groups
}

// meanSimilarity возвращает среднюю совместимость участника с членами группы.
func meanSimilarity(id string, group []string, sim *Matrix) float64 {
	if len(group) == 0 {
		return 0
	}
	sum := 0.0
	for _, member := range group {
		sum += sim.At(id, member)
	}
	return sum / float64(len(group))
}

// chunk нарезает ids на последовательные куски размером не более size.
func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > 0 {
		n := size
		if n > len(ids) {
			n = len(ids)
		}
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}
