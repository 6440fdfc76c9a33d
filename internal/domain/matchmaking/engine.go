package matchmaking

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// MATCH ORCHESTRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Group - сформированная группа участников.
type Group struct {
	Members []string `json:"members"`
}

// MatchResult - полный результат одного прогона подбора.
// Значение целиком передаётся хранилищу; частичных результатов не бывает.
type MatchResult struct {
	FriendPairs []PairResult `json:"friends"`
	DatePairs   []PairResult `json:"dates"`
	Groups      []Group      `json:"groups"`
}

// ContainsParticipant проверяет, попал ли участник в результат.
func (r *MatchResult) ContainsParticipant(id string) bool {
	for _, p := range r.FriendPairs {
		if p.A == id || p.B == id {
			return true
		}
	}
	for _, p := range r.DatePairs {
		if p.A == id || p.B == id {
			return true
		}
	}
	for _, g := range r.Groups {
		for _, m := range g.Members {
			if m == id {
				return true
			}
		}
	}
	return false
}

// Engine - оркестратор подбора. Не хранит состояния между прогонами;
// параллельные вызовы Run независимы и безопасны.
type Engine struct{}

// NewEngine создаёт оркестратор подбора.
func NewEngine() *Engine {
	return &Engine{}
}

// Run выполняет полный прогон подбора над снимком ростера.
//
// Последовательность: валидация входа, общий набор вопросов и матрица
// совместимости (строятся один раз), пары friend, пары date, затем группы
// из участников категории group и всех оставшихся без пары. Пустой ростер
// даёт пустой результат без ошибки.
func (e *Engine) Run(roster []Participant, baseline float64) (*MatchResult, error) {
	if baseline < 0 || baseline > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidBaseline, baseline)
	}

	seen := make(map[string]struct{}, len(roster))
	for _, p := range roster {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	result := &MatchResult{
		FriendPairs: []PairResult{},
		DatePairs:   []PairResult{},
		Groups:      []Group{},
	}
	if len(roster) == 0 {
		return result, nil
	}

	questionIDs := QuestionIDs(roster)
	sim := BuildMatrix(roster, questionIDs)

	friendPairs, unmatchedFriends := MatchPairs(IntentFriend, sim, roster, baseline)
	datePairs, unmatchedDates := MatchPairs(IntentDate, sim, roster, baseline)
	result.FriendPairs = append(result.FriendPairs, friendPairs...)
	result.DatePairs = append(result.DatePairs, datePairs...)

	// Остатки обеих парных категорий вливаются в групповой подбор,
	// никто не выпадает. Порядок кандидатов следует порядку ростера.
	overflow := make(map[string]struct{}, len(unmatchedFriends)+len(unmatchedDates))
	for _, id := range unmatchedFriends {
		overflow[id] = struct{}{}
	}
	for _, id := range unmatchedDates {
		overflow[id] = struct{}{}
	}

	var candidates []string
	for _, p := range roster {
		if p.Intent == IntentGroup {
			candidates = append(candidates, p.ID)
			continue
		}
		if _, ok := overflow[p.ID]; ok {
			candidates = append(candidates, p.ID)
		}
	}

	for _, members := range ComposeGroups(candidates, sim) {
		result.Groups = append(result.Groups, Group{Members: members})
	}
	return result, nil
}
