package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Symmetry(t *testing.T) {
	a := Participant{ID: "a", Grade: 11, Intent: IntentFriend, Answers: map[int]string{1: "yes", 2: "no", 3: "maybe"}}
	b := Participant{ID: "b", Grade: 12, Intent: IntentFriend, Answers: map[int]string{1: "yes", 2: "yes"}}
	qids := QuestionIDs([]Participant{a, b})

	assert.Equal(t, Score(a, b, qids), Score(b, a, qids))
}

func TestScore_GradeGate(t *testing.T) {
	a := Participant{ID: "a", Grade: 9, Intent: IntentFriend, Answers: map[int]string{1: "yes"}}
	b := Participant{ID: "b", Grade: 11, Intent: IntentFriend, Answers: map[int]string{1: "yes"}}

	assert.Zero(t, Score(a, b, []int{1}))
	assert.Zero(t, Score(b, a, []int{1}))

	// Разница ровно в один год проходит фильтр.
	b.Grade = 10
	assert.Equal(t, 1.0, Score(a, b, []int{1}))
}

func TestScore_DateMutuality(t *testing.T) {
	// Первый принимает только female, второй male: первый отвергает пол второго.
	a := Participant{ID: "a", Grade: 11, Intent: IntentDate, Gender: "male",
		PreferredGenders: []string{"female"}, Answers: map[int]string{1: "yes"}}
	b := Participant{ID: "b", Grade: 11, Intent: IntentDate, Gender: "male",
		PreferredGenders: nil, Answers: map[int]string{1: "yes"}}

	assert.Zero(t, Score(a, b, []int{1}))
	assert.Zero(t, Score(b, a, []int{1}))
}

func TestScore_DateMutualAcceptance(t *testing.T) {
	a := Participant{ID: "a", Grade: 11, Intent: IntentDate, Gender: "male",
		PreferredGenders: []string{"female"}, Answers: map[int]string{1: "yes"}}
	b := Participant{ID: "b", Grade: 11, Intent: IntentDate, Gender: "female",
		PreferredGenders: []string{"male"}, Answers: map[int]string{1: "yes"}}

	assert.Equal(t, 1.0, Score(a, b, []int{1}))
}

func TestScore_OpenPreferenceAcceptsAnyGender(t *testing.T) {
	a := Participant{ID: "a", Grade: 11, Intent: IntentDate, Gender: "male",
		Answers: map[int]string{1: "yes"}}
	b := Participant{ID: "b", Grade: 11, Intent: IntentDate, Gender: "female",
		Answers: map[int]string{1: "yes"}}

	assert.Equal(t, 1.0, Score(a, b, []int{1}))
}

func TestScore_GateOnlyForDatePairs(t *testing.T) {
	// Несовместимые предпочтения не мешают категории friend.
	a := Participant{ID: "a", Grade: 11, Intent: IntentFriend, Gender: "male",
		PreferredGenders: []string{"female"}, Answers: map[int]string{1: "yes"}}
	b := Participant{ID: "b", Grade: 11, Intent: IntentFriend, Gender: "male",
		Answers: map[int]string{1: "yes"}}

	assert.Equal(t, 1.0, Score(a, b, []int{1}))
}

func TestScore_AnswerFraction(t *testing.T) {
	a := Participant{ID: "a", Grade: 11, Intent: IntentFriend,
		Answers: map[int]string{1: "yes", 2: "no", 3: "maybe", 4: "yes"}}
	b := Participant{ID: "b", Grade: 11, Intent: IntentFriend,
		Answers: map[int]string{1: "yes", 2: "yes", 3: "maybe"}}

	// Вопросы 1 и 3 совпадают, 2 различается, 4 отсутствует у b.
	assert.InDelta(t, 0.5, Score(a, b, []int{1, 2, 3, 4}), 1e-9)
}

func TestScore_AnswersTrimmed(t *testing.T) {
	a := Participant{ID: "a", Grade: 11, Intent: IntentFriend, Answers: map[int]string{1: " yes "}}
	b := Participant{ID: "b", Grade: 11, Intent: IntentFriend, Answers: map[int]string{1: "yes"}}

	assert.Equal(t, 1.0, Score(a, b, []int{1}))
}

func TestScore_BothUnansweredCountsAsMatch(t *testing.T) {
	// Вопрос, пропущенный обоими, сравнивается как "" == "" и засчитывается.
	a := Participant{ID: "a", Grade: 11, Intent: IntentFriend, Answers: map[int]string{1: "yes"}}
	b := Participant{ID: "b", Grade: 11, Intent: IntentFriend, Answers: map[int]string{1: "no"}}

	assert.InDelta(t, 0.5, Score(a, b, []int{1, 2}), 1e-9)
}

func TestScore_EmptyQuestionSetScoresZero(t *testing.T) {
	// Отсутствие данных не означает идеальную совместимость.
	a := Participant{ID: "a", Grade: 11, Intent: IntentFriend}
	b := Participant{ID: "b", Grade: 11, Intent: IntentFriend}

	assert.Zero(t, Score(a, b, nil))
}

func TestQuestionIDs_SortedUnion(t *testing.T) {
	roster := []Participant{
		{ID: "a", Grade: 11, Intent: IntentFriend, Answers: map[int]string{5: "x", 1: "y"}},
		{ID: "b", Grade: 11, Intent: IntentFriend, Answers: map[int]string{3: "z", 5: "w"}},
	}
	assert.Equal(t, []int{1, 3, 5}, QuestionIDs(roster))
}

func TestBuildMatrix(t *testing.T) {
	roster := []Participant{
		{ID: "a", Grade: 11, Intent: IntentFriend, Answers: map[int]string{1: "yes", 2: "no"}},
		{ID: "b", Grade: 11, Intent: IntentFriend, Answers: map[int]string{1: "yes", 2: "yes"}},
		{ID: "c", Grade: 9, Intent: IntentFriend, Answers: map[int]string{1: "yes", 2: "no"}},
	}
	qids := QuestionIDs(roster)
	m := BuildMatrix(roster, qids)

	assert.Equal(t, 3, m.Len())
	assert.InDelta(t, 0.5, m.At("a", "b"), 1e-9)
	assert.Equal(t, m.At("a", "b"), m.At("b", "a"))
	// Фильтр по классу: 11 и 9 слишком далеко.
	assert.Zero(t, m.At("a", "c"))
	// Неизвестный идентификатор даёт 0.
	assert.Zero(t, m.At("a", "nobody"))
}
