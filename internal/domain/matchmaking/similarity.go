package matchmaking

import "strings"

// ══════════════════════════════════════════════════════════════════════════════
// SIMILARITY MATRIX
// ══════════════════════════════════════════════════════════════════════════════

// Matrix - плотная симметричная матрица совместимости, индексированная
// стабильной позицией каждого участника, назначенной в начале прогона.
// Матрица локальна для одного прогона и после построения только читается.
type Matrix struct {
	pos  map[string]int
	ids  []string
	vals [][]float64
}

// NewMatrix создаёт нулевую матрицу для данного набора идентификаторов.
// Позиции назначаются в порядке следования идентификаторов.
func NewMatrix(ids []string) *Matrix {
	m := &Matrix{
		pos:  make(map[string]int, len(ids)),
		ids:  make([]string, len(ids)),
		vals: make([][]float64, len(ids)),
	}
	copy(m.ids, ids)
	for i, id := range ids {
		m.pos[id] = i
		m.vals[i] = make([]float64, len(ids))
	}
	return m
}

// Len возвращает количество участников в матрице.
func (m *Matrix) Len() int {
	return len(m.ids)
}

// set записывает симметричную пару значений.
func (m *Matrix) set(a, b string, v float64) {
	i, j := m.pos[a], m.pos[b]
	m.vals[i][j] = v
	m.vals[j][i] = v
}

// At возвращает совместимость пары участников.
// Для неизвестных идентификаторов возвращается 0.
func (m *Matrix) At(a, b string) float64 {
	i, okA := m.pos[a]
	j, okB := m.pos[b]
	if !okA || !okB {
		return 0
	}
	return m.vals[i][j]
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPATIBILITY SCORER
// ══════════════════════════════════════════════════════════════════════════════

// Score вычисляет совместимость двух участников в диапазоне [0, 1].
//
// Порядок проверок:
//  1. Жёсткий фильтр по классу: разница больше одного года -> 0.
//  2. Взаимность предпочтений (только когда оба ищут date):
//     каждый должен принимать пол другого, иначе 0.
//  3. Доля вопросов с совпадающими ответами среди общего набора вопросов.
//
// Пустой набор вопросов даёт 0: отсутствие данных не означает совместимость.
// Функция чистая и симметричная: Score(a, b) == Score(b, a).
func Score(a, b Participant, questionIDs []int) float64 {
	diff := a.Grade - b.Grade
	if diff < 0 {
		diff = -diff
	}
	if diff > 1 {
		return 0
	}

	if a.Intent == IntentDate && b.Intent == IntentDate {
		if !a.Accepts(b.Gender) || !b.Accepts(a.Gender) {
			return 0
		}
	}

	if len(questionIDs) == 0 {
		return 0
	}

	equal := 0
	for _, q := range questionIDs {
		if strings.TrimSpace(a.Answers[q]) == strings.TrimSpace(b.Answers[q]) {
			equal++
		}
	}
	return float64(equal) / float64(len(questionIDs))
}

// BuildMatrix строит матрицу совместимости по всему ростеру.
// Вызывается один раз за прогон; O(n²·q) по числу участников и вопросов.
func BuildMatrix(roster []Participant, questionIDs []int) *Matrix {
	ids := make([]string, len(roster))
	for i, p := range roster {
		ids[i] = p.ID
	}

	m := NewMatrix(ids)
	for i := 0; i < len(roster); i++ {
		for j := i + 1; j < len(roster); j++ {
			m.set(roster[i].ID, roster[j].ID, Score(roster[i], roster[j], questionIDs))
		}
	}
	return m
}
