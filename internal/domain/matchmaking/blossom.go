package matchmaking

// ══════════════════════════════════════════════════════════════════════════════
// MAXIMUM-WEIGHT MATCHING
//
// Паросочетание максимального суммарного веса на произвольном графе
// (алгоритм Галила с "цветками", O(n³)). Среди решений равного веса
// предпочитается решение с максимальным числом пар.
//
// Обход строго в порядке индексов рёбер и вершин, без случайности:
// одинаковый вход всегда даёт одинаковый результат.
// ══════════════════════════════════════════════════════════════════════════════

// weightedEdge - взвешенное ребро между позициями участников подграфа.
type weightedEdge struct {
	i, j   int
	weight float64
}

// maxWeightMatching возвращает массив mate: mate[v] - вершина, с которой
// спарена v, либо -1, если v осталась без пары.
func maxWeightMatching(edges []weightedEdge, nvertex int) []int {
	mate := make([]int, nvertex)
	for i := range mate {
		mate[i] = -1
	}
	if nvertex == 0 || len(edges) == 0 {
		return mate
	}

	s := newBlossomSolver(edges, nvertex)
	s.solve()

	// Переводим конечные точки рёбер в вершины.
	for v := 0; v < nvertex; v++ {
		if s.mate[v] >= 0 {
			mate[v] = s.endpoint[s.mate[v]]
		}
	}
	return mate
}

// blossomSolver хранит рабочее состояние одного решения.
// Вершины нумеруются 0..nvertex-1, цветки nvertex..2*nvertex-1.
// Конечная точка p ребра k = p/2 принадлежит вершине endpoint[p].
type blossomSolver struct {
	edges   []weightedEdge
	nvertex int
	nedge   int

	endpoint []int   // endpoint[p] - вершина конечной точки p
	neighb   [][]int // neighb[v] - удалённые конечные точки рёбер вершины v

	mate     []int // конечная точка парного ребра или -1
	label    []int // 0 - свободна, 1 - S, 2 - T (5 - метка обхода)
	labelend []int // конечная точка, через которую получена метка

	inblossom     []int   // вершина -> её цветок верхнего уровня
	blossomparent []int   // родительский цветок или -1
	blossomchilds [][]int // подцветки в порядке обхода
	blossombase   []int   // базовая вершина цветка
	blossomendps  [][]int // конечные точки рёбер между подцветками

	bestedge        []int   // ребро наименьшего зазора для вершины/цветка
	blossombestedge [][]int // лучшие рёбра S-цветка к другим S-цветкам
	unusedblossoms  []int   // свободные номера цветков

	dualvar   []float64 // двойственные переменные вершин и цветков
	allowedge []bool    // ребро с нулевым зазором
	queue     []int     // S-вершины для сканирования (LIFO)
}

func newBlossomSolver(edges []weightedEdge, nvertex int) *blossomSolver {
	s := &blossomSolver{
		edges:   edges,
		nvertex: nvertex,
		nedge:   len(edges),
	}

	maxweight := 0.0
	for _, e := range edges {
		if e.weight > maxweight {
			maxweight = e.weight
		}
	}

	s.endpoint = make([]int, 2*s.nedge)
	for p := range s.endpoint {
		if p%2 == 0 {
			s.endpoint[p] = edges[p/2].i
		} else {
			s.endpoint[p] = edges[p/2].j
		}
	}

	s.neighb = make([][]int, nvertex)
	for k, e := range edges {
		s.neighb[e.i] = append(s.neighb[e.i], 2*k+1)
		s.neighb[e.j] = append(s.neighb[e.j], 2*k)
	}

	s.mate = make([]int, nvertex)
	s.label = make([]int, 2*nvertex)
	s.labelend = make([]int, 2*nvertex)
	s.inblossom = make([]int, nvertex)
	s.blossomparent = make([]int, 2*nvertex)
	s.blossomchilds = make([][]int, 2*nvertex)
	s.blossombase = make([]int, 2*nvertex)
	s.blossomendps = make([][]int, 2*nvertex)
	s.bestedge = make([]int, 2*nvertex)
	s.blossombestedge = make([][]int, 2*nvertex)
	s.dualvar = make([]float64, 2*nvertex)
	s.allowedge = make([]bool, s.nedge)

	for v := 0; v < nvertex; v++ {
		s.mate[v] = -1
		s.inblossom[v] = v
		s.blossombase[v] = v
		s.dualvar[v] = maxweight
	}
	for b := 0; b < 2*nvertex; b++ {
		s.labelend[b] = -1
		s.blossomparent[b] = -1
		s.bestedge[b] = -1
	}
	for b := nvertex; b < 2*nvertex; b++ {
		s.blossombase[b] = -1
		s.unusedblossoms = append(s.unusedblossoms, b)
	}
	return s
}

// slack возвращает зазор ребра k в двойственной задаче.
func (s *blossomSolver) slack(k int) float64 {
	e := s.edges[k]
	return s.dualvar[e.i] + s.dualvar[e.j] - 2*e.weight
}

// blossomLeaves собирает вершины-листья цветка b.
func (s *blossomSolver) blossomLeaves(b int, out []int) []int {
	if b < s.nvertex {
		return append(out, b)
	}
	for _, t := range s.blossomchilds[b] {
		out = s.blossomLeaves(t, out)
	}
	return out
}

// wrapIndex приводит возможно отрицательный индекс к границам списка.
func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// assignLabel помечает вершину w (и её цветок) меткой t, полученной через
// конечную точку p. S-вершины попадают в очередь сканирования; метка T
// немедленно продолжается в S-метку пары базовой вершины.
func (s *blossomSolver) assignLabel(w, t, p int) {
	b := s.inblossom[w]
	s.label[w] = t
	s.label[b] = t
	s.labelend[w] = p
	s.labelend[b] = p
	s.bestedge[w] = -1
	s.bestedge[b] = -1
	if t == 1 {
		s.queue = s.blossomLeaves(b, s.queue)
	} else if t == 2 {
		base := s.blossombase[b]
		s.assignLabel(s.endpoint[s.mate[base]], 1, s.mate[base]^1)
	}
}

// scanBlossom прослеживает пути от v и w к корням деревьев поиска.
// Возвращает базовую вершину нового цветка либо -1, если пути ведут
// к разным корням (найден аугментирующий путь).
func (s *blossomSolver) scanBlossom(v, w int) int {
	var path []int
	base := -1
	for v != -1 || w != -1 {
		b := s.inblossom[v]
		if s.label[b]&4 != 0 {
			base = s.blossombase[b]
			break
		}
		path = append(path, b)
		s.label[b] = 5
		if s.labelend[b] == -1 {
			v = -1
		} else {
			v = s.endpoint[s.labelend[b]]
			b = s.inblossom[v]
			v = s.endpoint[s.labelend[b]]
		}
		if w != -1 {
			v, w = w, v
		}
	}
	for _, b := range path {
		s.label[b] = 1
	}
	return base
}

// addBlossom сворачивает цикл через base и ребро k в новый S-цветок.
func (s *blossomSolver) addBlossom(base, k int) {
	v, w := s.edges[k].i, s.edges[k].j
	bb := s.inblossom[base]
	bv := s.inblossom[v]
	bw := s.inblossom[w]

	b := s.unusedblossoms[len(s.unusedblossoms)-1]
	s.unusedblossoms = s.unusedblossoms[:len(s.unusedblossoms)-1]

	s.blossombase[b] = base
	s.blossomparent[b] = -1
	s.blossomparent[bb] = b

	var path, endps []int

	// Путь от v назад к базе.
	for bv != bb {
		s.blossomparent[bv] = b
		path = append(path, bv)
		endps = append(endps, s.labelend[bv])
		v = s.endpoint[s.labelend[bv]]
		bv = s.inblossom[v]
	}
	path = append(path, bb)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	for i, j := 0, len(endps)-1; i < j; i, j = i+1, j-1 {
		endps[i], endps[j] = endps[j], endps[i]
	}
	endps = append(endps, 2*k)

	// Путь от w назад к базе.
	for bw != bb {
		s.blossomparent[bw] = b
		path = append(path, bw)
		endps = append(endps, s.labelend[bw]^1)
		w = s.endpoint[s.labelend[bw]]
		bw = s.inblossom[w]
	}

	s.blossomchilds[b] = path
	s.blossomendps[b] = endps
	s.label[b] = 1
	s.labelend[b] = s.labelend[bb]
	s.dualvar[b] = 0

	// Бывшие T-вершины становятся S-вершинами нового цветка.
	for _, leaf := range s.blossomLeaves(b, nil) {
		if s.label[s.inblossom[leaf]] == 2 {
			s.queue = append(s.queue, leaf)
		}
		s.inblossom[leaf] = b
	}

	// Пересчитываем рёбра наименьшего зазора к другим S-цветкам.
	bestedgeto := make([]int, 2*s.nvertex)
	for i := range bestedgeto {
		bestedgeto[i] = -1
	}
	for _, sub := range path {
		var nblists [][]int
		if s.blossombestedge[sub] == nil {
			for _, leaf := range s.blossomLeaves(sub, nil) {
				list := make([]int, 0, len(s.neighb[leaf]))
				for _, p := range s.neighb[leaf] {
					list = append(list, p/2)
				}
				nblists = append(nblists, list)
			}
		} else {
			nblists = [][]int{s.blossombestedge[sub]}
		}
		for _, list := range nblists {
			for _, ek := range list {
				j := s.edges[ek].j
				if s.inblossom[j] == b {
					j = s.edges[ek].i
				}
				bj := s.inblossom[j]
				if bj != b && s.label[bj] == 1 &&
					(bestedgeto[bj] == -1 || s.slack(ek) < s.slack(bestedgeto[bj])) {
					bestedgeto[bj] = ek
				}
			}
		}
		s.blossombestedge[sub] = nil
		s.bestedge[sub] = -1
	}

	s.blossombestedge[b] = nil
	for _, ek := range bestedgeto {
		if ek != -1 {
			s.blossombestedge[b] = append(s.blossombestedge[b], ek)
		}
	}
	s.bestedge[b] = -1
	for _, ek := range s.blossombestedge[b] {
		if s.bestedge[b] == -1 || s.slack(ek) < s.slack(s.bestedge[b]) {
			s.bestedge[b] = ek
		}
	}
}

// expandBlossom разворачивает цветок b обратно в подцветки.
// endstage=true в конце стадии (двойственная переменная цветка обнулилась).
func (s *blossomSolver) expandBlossom(b int, endstage bool) {
	for _, sub := range s.blossomchilds[b] {
		s.blossomparent[sub] = -1
		if sub < s.nvertex {
			s.inblossom[sub] = sub
		} else if endstage && s.dualvar[sub] == 0 {
			s.expandBlossom(sub, endstage)
		} else {
			for _, leaf := range s.blossomLeaves(sub, nil) {
				s.inblossom[leaf] = sub
			}
		}
	}

	// Разворачиваемый T-цветок посреди стадии требует переразметки подцветков.
	if !endstage && s.label[b] == 2 {
		entrychild := s.inblossom[s.endpoint[s.labelend[b]^1]]
		n := len(s.blossomchilds[b])

		j := 0
		for i, c := range s.blossomchilds[b] {
			if c == entrychild {
				j = i
				break
			}
		}

		var jstep, endptrick int
		if j&1 != 0 {
			// Нечётный вход: идём вперёд с переходом через конец.
			j -= n
			jstep = 1
			endptrick = 0
		} else {
			// Чётный вход: идём назад.
			jstep = -1
			endptrick = 1
		}

		p := s.labelend[b]
		for j != 0 {
			// Переметка T-подцветка.
			s.label[s.endpoint[p^1]] = 0
			s.label[s.endpoint[s.blossomendps[b][wrapIndex(j-endptrick, n)]^endptrick^1]] = 0
			s.assignLabel(s.endpoint[p^1], 2, p)
			// Следующий S-подцветок и его переднее ребро.
			s.allowedge[s.blossomendps[b][wrapIndex(j-endptrick, n)]/2] = true
			j += jstep
			p = s.blossomendps[b][wrapIndex(j-endptrick, n)] ^ endptrick
			// Следующий T-подцветок.
			s.allowedge[p/2] = true
			j += jstep
		}

		// Базовый T-подцветок метится без перехода к его паре.
		bv := s.blossomchilds[b][wrapIndex(j, n)]
		s.label[s.endpoint[p^1]] = 2
		s.label[bv] = 2
		s.labelend[s.endpoint[p^1]] = p
		s.labelend[bv] = p
		s.bestedge[bv] = -1

		// Остаток цикла до точки входа.
		j += jstep
		for s.blossomchilds[b][wrapIndex(j, n)] != entrychild {
			bv = s.blossomchilds[b][wrapIndex(j, n)]
			if s.label[bv] == 1 {
				j += jstep
				continue
			}
			reached := -1
			for _, leaf := range s.blossomLeaves(bv, nil) {
				if s.label[leaf] != 0 {
					reached = leaf
					break
				}
			}
			if reached >= 0 {
				s.label[reached] = 0
				s.label[s.endpoint[s.mate[s.blossombase[bv]]]] = 0
				s.assignLabel(reached, 2, s.labelend[reached])
			}
			j += jstep
		}
	}

	// Возвращаем номер цветка в пул.
	s.label[b] = -1
	s.labelend[b] = -1
	s.blossomchilds[b] = nil
	s.blossomendps[b] = nil
	s.blossombase[b] = -1
	s.blossombestedge[b] = nil
	s.bestedge[b] = -1
	s.unusedblossoms = append(s.unusedblossoms, b)
}

// augmentBlossom переключает паросочетание внутри цветка b так, чтобы
// вершина v стала его новой базой.
func (s *blossomSolver) augmentBlossom(b, v int) {
	t := v
	for s.blossomparent[t] != b {
		t = s.blossomparent[t]
	}
	if t >= s.nvertex {
		s.augmentBlossom(t, v)
	}

	n := len(s.blossomchilds[b])
	i := 0
	for idx, c := range s.blossomchilds[b] {
		if c == t {
			i = idx
			break
		}
	}
	j := i

	var jstep, endptrick int
	if i&1 != 0 {
		j -= n
		jstep = 1
		endptrick = 0
	} else {
		jstep = -1
		endptrick = 1
	}

	for j != 0 {
		j += jstep
		t = s.blossomchilds[b][wrapIndex(j, n)]
		p := s.blossomendps[b][wrapIndex(j-endptrick, n)] ^ endptrick
		if t >= s.nvertex {
			s.augmentBlossom(t, s.endpoint[p])
		}
		j += jstep
		t = s.blossomchilds[b][wrapIndex(j, n)]
		if t >= s.nvertex {
			s.augmentBlossom(t, s.endpoint[p^1])
		}
		s.mate[s.endpoint[p]] = p ^ 1
		s.mate[s.endpoint[p^1]] = p
	}

	// Поворачиваем списки подцветков: новая база встаёт в начало.
	s.blossomchilds[b] = append(s.blossomchilds[b][i:], s.blossomchilds[b][:i]...)
	s.blossomendps[b] = append(s.blossomendps[b][i:], s.blossomendps[b][:i]...)
	s.blossombase[b] = s.blossombase[s.blossomchilds[b][0]]
}

// augmentMatching расширяет паросочетание вдоль найденного пути через ребро k.
func (s *blossomSolver) augmentMatching(k int) {
	starts := [2][2]int{
		{s.edges[k].i, 2*k + 1},
		{s.edges[k].j, 2 * k},
	}
	for _, sp := range starts {
		v, p := sp[0], sp[1]
		for {
			bs := s.inblossom[v]
			if bs >= s.nvertex {
				s.augmentBlossom(bs, v)
			}
			s.mate[v] = p
			if s.labelend[bs] == -1 {
				// Дошли до свободной вершины - корня дерева.
				break
			}
			t := s.endpoint[s.labelend[bs]]
			bt := s.inblossom[t]
			v = s.endpoint[s.labelend[bt]]
			j := s.endpoint[s.labelend[bt]^1]
			if bt >= s.nvertex {
				s.augmentBlossom(bt, j)
			}
			s.mate[j] = s.labelend[bt]
			p = s.labelend[bt] ^ 1
		}
	}
}

// solve выполняет основные стадии алгоритма.
func (s *blossomSolver) solve() {
	for stage := 0; stage < s.nvertex; stage++ {
		for i := range s.label {
			s.label[i] = 0
		}
		for i := range s.bestedge {
			s.bestedge[i] = -1
		}
		for b := s.nvertex; b < 2*s.nvertex; b++ {
			s.blossombestedge[b] = nil
		}
		for i := range s.allowedge {
			s.allowedge[i] = false
		}
		s.queue = s.queue[:0]

		// Все свободные вершины получают метку S.
		for v := 0; v < s.nvertex; v++ {
			if s.mate[v] == -1 && s.label[s.inblossom[v]] == 0 {
				s.assignLabel(v, 1, -1)
			}
		}

		augmented := false
		for {
			for len(s.queue) > 0 && !augmented {
				v := s.queue[len(s.queue)-1]
				s.queue = s.queue[:len(s.queue)-1]

				for _, p := range s.neighb[v] {
					k := p / 2
					w := s.endpoint[p]
					if s.inblossom[v] == s.inblossom[w] {
						continue
					}
					var kslack float64
					if !s.allowedge[k] {
						kslack = s.slack(k)
						if kslack <= 0 {
							s.allowedge[k] = true
						}
					}
					if s.allowedge[k] {
						if s.label[s.inblossom[w]] == 0 {
							// Свободная вершина получает метку T, её пара - S.
							s.assignLabel(w, 2, p^1)
						} else if s.label[s.inblossom[w]] == 1 {
							// Две S-вершины: либо новый цветок, либо аугментация.
							base := s.scanBlossom(v, w)
							if base >= 0 {
								s.addBlossom(base, k)
							} else {
								s.augmentMatching(k)
								augmented = true
								break
							}
						} else if s.label[w] == 0 {
							// Вершина внутри T-цветка, достигнутая извне.
							s.label[w] = 2
							s.labelend[w] = p ^ 1
						}
					} else if s.label[s.inblossom[w]] == 1 {
						b := s.inblossom[v]
						if s.bestedge[b] == -1 || kslack < s.slack(s.bestedge[b]) {
							s.bestedge[b] = k
						}
					} else if s.label[w] == 0 {
						if s.bestedge[w] == -1 || kslack < s.slack(s.bestedge[w]) {
							s.bestedge[w] = k
						}
					}
				}
			}
			if augmented {
				break
			}

			// Аугментации нет: вычисляем минимальное двойственное приращение.
			deltatype := -1
			var delta float64
			deltaedge := -1
			deltablossom := -1

			// delta2: минимальный зазор к свободной вершине.
			for v := 0; v < s.nvertex; v++ {
				if s.label[s.inblossom[v]] == 0 && s.bestedge[v] != -1 {
					d := s.slack(s.bestedge[v])
					if deltatype == -1 || d < delta {
						delta = d
						deltatype = 2
						deltaedge = s.bestedge[v]
					}
				}
			}
			// delta3: половина минимального зазора между S-цветками.
			for b := 0; b < 2*s.nvertex; b++ {
				if s.blossomparent[b] == -1 && s.label[b] == 1 && s.bestedge[b] != -1 {
					d := s.slack(s.bestedge[b]) / 2
					if deltatype == -1 || d < delta {
						delta = d
						deltatype = 3
						deltaedge = s.bestedge[b]
					}
				}
			}
			// delta4: минимальная двойственная переменная T-цветка.
			for b := s.nvertex; b < 2*s.nvertex; b++ {
				if s.blossombase[b] >= 0 && s.blossomparent[b] == -1 && s.label[b] == 2 &&
					(deltatype == -1 || s.dualvar[b] < delta) {
					delta = s.dualvar[b]
					deltatype = 4
					deltablossom = b
				}
			}
			if deltatype == -1 {
				// Улучшений нет: достигнут оптимум максимальной мощности.
				// Финальное приращение делает оптимум проверяемым.
				deltatype = 1
				delta = s.dualvar[0]
				for v := 1; v < s.nvertex; v++ {
					if s.dualvar[v] < delta {
						delta = s.dualvar[v]
					}
				}
				if delta < 0 {
					delta = 0
				}
			}

			for v := 0; v < s.nvertex; v++ {
				switch s.label[s.inblossom[v]] {
				case 1:
					s.dualvar[v] -= delta
				case 2:
					s.dualvar[v] += delta
				}
			}
			for b := s.nvertex; b < 2*s.nvertex; b++ {
				if s.blossombase[b] >= 0 && s.blossomparent[b] == -1 {
					switch s.label[b] {
					case 1:
						s.dualvar[b] += delta
					case 2:
						s.dualvar[b] -= delta
					}
				}
			}

			switch deltatype {
			case 1:
				// Оптимум достигнут.
			case 2:
				s.allowedge[deltaedge] = true
				i := s.edges[deltaedge].i
				if s.label[s.inblossom[i]] == 0 {
					i = s.edges[deltaedge].j
				}
				s.queue = append(s.queue, i)
			case 3:
				s.allowedge[deltaedge] = true
				s.queue = append(s.queue, s.edges[deltaedge].i)
			case 4:
				s.expandBlossom(deltablossom, false)
			}
			if deltatype == 1 {
				break
			}
		}

		if !augmented {
			break
		}

		// Конец стадии: разворачиваем S-цветки с нулевой двойственной переменной.
		for b := s.nvertex; b < 2*s.nvertex; b++ {
			if s.blossomparent[b] == -1 && s.blossombase[b] >= 0 &&
				s.label[b] == 1 && s.dualvar[b] == 0 {
				s.expandBlossom(b, true)
			}
		}
	}
}
