package matchrun

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emma-hub/emma-backend/internal/domain/matchmaking"
)

func sampleRun() *MatchRun {
	return &MatchRun{
		ID:       "run-1",
		Baseline: 0.5,
		Result: &matchmaking.MatchResult{
			FriendPairs: []matchmaking.PairResult{
				{A: "u1", B: "u2", Score: 0.91},
			},
			DatePairs: []matchmaking.PairResult{
				{A: "u3", B: "u4", Score: 0.77},
			},
			Groups: []matchmaking.Group{
				{Members: []string{"u5", "u6", "u7"}},
			},
		},
		CreatedAt: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestViewFor_FriendPair(t *testing.T) {
	run := sampleRun()

	view, ok := run.ViewFor("u1")
	require.True(t, ok)
	assert.Equal(t, "run-1", view.RunID)
	assert.Equal(t, KindFriend, view.Kind)
	assert.Equal(t, "u2", view.Partner)
	assert.Equal(t, 0.91, view.Score)
	assert.Empty(t, view.Members)

	// Вторая сторона пары видит партнёром первую.
	view, ok = run.ViewFor("u2")
	require.True(t, ok)
	assert.Equal(t, "u1", view.Partner)
}

func TestViewFor_DatePair(t *testing.T) {
	view, ok := sampleRun().ViewFor("u4")
	require.True(t, ok)
	assert.Equal(t, KindDate, view.Kind)
	assert.Equal(t, "u3", view.Partner)
	assert.Equal(t, 0.77, view.Score)
}

func TestViewFor_Group(t *testing.T) {
	view, ok := sampleRun().ViewFor("u6")
	require.True(t, ok)
	assert.Equal(t, KindGroup, view.Kind)
	assert.Empty(t, view.Partner)
	// Участник видит полный состав группы, включая себя.
	assert.Equal(t, []string{"u5", "u6", "u7"}, view.Members)
}

func TestViewFor_NotMatched(t *testing.T) {
	view, ok := sampleRun().ViewFor("stranger")
	assert.False(t, ok)
	assert.Nil(t, view)
}

func TestViewFor_NilResult(t *testing.T) {
	run := &MatchRun{ID: "run-2"}
	_, ok := run.ViewFor("u1")
	assert.False(t, ok)
}
