package matchmaking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identicalAnswers(n int) map[int]string {
	m := make(map[int]string, n)
	for q := 1; q <= n; q++ {
		m[q] = "agree"
	}
	return m
}

func TestEngine_EmptyRoster(t *testing.T) {
	result, err := NewEngine().Run(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, result.FriendPairs)
	assert.Empty(t, result.DatePairs)
	assert.Empty(t, result.Groups)
}

func TestEngine_BaselineOutOfRange(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Run(nil, -0.1)
	assert.ErrorIs(t, err, ErrInvalidBaseline)

	_, err = engine.Run(nil, 1.1)
	assert.ErrorIs(t, err, ErrInvalidBaseline)
}

func TestEngine_InvalidParticipant(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Run([]Participant{{Grade: 11, Intent: IntentFriend}}, 0)
	assert.ErrorIs(t, err, ErrInvalidParticipant)

	_, err = engine.Run([]Participant{{ID: "a", Intent: IntentFriend}}, 0)
	assert.ErrorIs(t, err, ErrInvalidParticipant)

	_, err = engine.Run([]Participant{{ID: "a", Grade: 11, Intent: "enemy"}}, 0)
	assert.ErrorIs(t, err, ErrInvalidParticipant)

	_, err = engine.Run([]Participant{
		{ID: "a", Grade: 11, Intent: IntentFriend},
		{ID: "a", Grade: 11, Intent: IntentFriend},
	}, 0)
	assert.ErrorIs(t, err, ErrDuplicateParticipant)
}

func TestEngine_TwoIdenticalFriends(t *testing.T) {
	// Сценарий из анкеты: 25 одинаковых ответов, один класс, порог 0.5.
	roster := []Participant{
		{ID: "u1", Grade: 11, Intent: IntentFriend, Answers: identicalAnswers(25)},
		{ID: "u2", Grade: 11, Intent: IntentFriend, Answers: identicalAnswers(25)},
	}

	result, err := NewEngine().Run(roster, 0.5)
	require.NoError(t, err)

	require.Len(t, result.FriendPairs, 1)
	assert.Equal(t, PairResult{A: "u1", B: "u2", Score: 1.0}, result.FriendPairs[0])
	assert.Empty(t, result.DatePairs)
	assert.Empty(t, result.Groups)
}

func TestEngine_DateMutualityBlocksPair(t *testing.T) {
	// Первый ищет female, второй male: пол второго отвергнут,
	// пара не образуется даже при одинаковых ответах.
	roster := []Participant{
		{ID: "u1", Grade: 11, Intent: IntentDate, Gender: "male",
			PreferredGenders: []string{"female"}, Answers: identicalAnswers(25)},
		{ID: "u2", Grade: 11, Intent: IntentDate, Gender: "male",
			Answers: identicalAnswers(25)},
	}

	result, err := NewEngine().Run(roster, 0.5)
	require.NoError(t, err)
	assert.Empty(t, result.DatePairs)

	// Оба непристроенных уходят в групповой подбор.
	total := 0
	for _, g := range result.Groups {
		total += len(g.Members)
	}
	assert.Equal(t, 2, total)
}

func TestEngine_SevenGroupParticipants(t *testing.T) {
	roster := make([]Participant, 7)
	for i := range roster {
		roster[i] = Participant{
			ID:      fmt.Sprintf("u%d", i+1),
			Grade:   11,
			Intent:  IntentGroup,
			Answers: identicalAnswers(10),
		}
	}

	result, err := NewEngine().Run(roster, 0)
	require.NoError(t, err)
	assert.Empty(t, result.FriendPairs)
	assert.Empty(t, result.DatePairs)

	total := 0
	for _, g := range result.Groups {
		total += len(g.Members)
		assert.GreaterOrEqual(t, len(g.Members), MinGroupSize)
		assert.LessOrEqual(t, len(g.Members), MaxGroupSize)
	}
	assert.Equal(t, 7, total)
}

func TestEngine_NoDoubleBooking(t *testing.T) {
	intents := []Intent{
		IntentFriend, IntentFriend, IntentFriend,
		IntentDate, IntentDate,
		IntentGroup, IntentGroup, IntentGroup, IntentGroup, IntentGroup,
	}
	roster := make([]Participant, len(intents))
	for i, intent := range intents {
		answers := make(map[int]string, 10)
		for q := 1; q <= 10; q++ {
			if (i+q)%3 == 0 {
				answers[q] = "yes"
			} else {
				answers[q] = "no"
			}
		}
		roster[i] = Participant{
			ID:      fmt.Sprintf("u%d", i+1),
			Grade:   11,
			Intent:  intent,
			Gender:  "female",
			Answers: answers,
		}
	}

	result, err := NewEngine().Run(roster, 0.1)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, p := range result.FriendPairs {
		seen[p.A]++
		seen[p.B]++
	}
	for _, p := range result.DatePairs {
		seen[p.A]++
		seen[p.B]++
	}
	for _, g := range result.Groups {
		for _, m := range g.Members {
			seen[m]++
		}
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "participant %s booked %d times", id, count)
	}

	// Покрытие: каждый участник категории group присутствует в группах.
	for _, p := range roster {
		if p.Intent == IntentGroup {
			assert.True(t, result.ContainsParticipant(p.ID), "group participant %s dropped", p.ID)
		}
	}
}

func TestEngine_Deterministic(t *testing.T) {
	roster := make([]Participant, 12)
	for i := range roster {
		answers := make(map[int]string, 8)
		for q := 1; q <= 8; q++ {
			answers[q] = fmt.Sprintf("opt%d", (i*q)%4)
		}
		roster[i] = Participant{
			ID:      fmt.Sprintf("u%d", i+1),
			Grade:   10 + i%2,
			Intent:  []Intent{IntentFriend, IntentDate, IntentGroup}[i%3],
			Gender:  []string{"male", "female"}[i%2],
			Answers: answers,
		}
	}

	engine := NewEngine()
	first, err := engine.Run(roster, 0.2)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := engine.Run(roster, 0.2)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEngine_ThresholdRespected(t *testing.T) {
	roster := make([]Participant, 6)
	for i := range roster {
		answers := make(map[int]string, 10)
		for q := 1; q <= 10; q++ {
			answers[q] = fmt.Sprintf("o%d", (i+q)%2)
		}
		roster[i] = Participant{
			ID:      fmt.Sprintf("u%d", i+1),
			Grade:   11,
			Intent:  IntentFriend,
			Answers: answers,
		}
	}

	result, err := NewEngine().Run(roster, 0.4)
	require.NoError(t, err)
	for _, p := range result.FriendPairs {
		assert.GreaterOrEqual(t, p.Score, 0.4)
	}
}
