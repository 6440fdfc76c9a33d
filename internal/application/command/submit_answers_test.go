package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emma-hub/emma-backend/internal/domain/participant"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
)

func seedParticipant(t *testing.T, repo *memParticipantRepo) string {
	t.Helper()
	handler := NewRegisterParticipantHandler(repo, nil)
	result, err := handler.Handle(context.Background(), registerCmd())
	require.NoError(t, err)
	return result.ParticipantID
}

func quizAnswers(n int) map[int]string {
	m := make(map[int]string, n)
	for q := 1; q <= n; q++ {
		m[q] = "agree"
	}
	return m
}

func TestSubmitAnswers_Success(t *testing.T) {
	repo := newMemParticipantRepo()
	id := seedParticipant(t, repo)
	publisher := &capturePublisher{}
	guard := &stubGuard{acquired: true}
	handler := NewSubmitAnswersHandler(repo, guard, publisher)

	result, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		ParticipantID: id,
		Intent:        "friend",
		Answers:       quizAnswers(participant.MinQuizAnswers),
	})
	require.NoError(t, err)

	assert.Equal(t, id, result.ParticipantID)
	assert.Equal(t, participant.MinQuizAnswers, result.AnswerCount)
	assert.Equal(t, 1, guard.releases)

	stored, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, stored.HasCompletedQuiz())
	assert.Equal(t, "friend", stored.Intent)

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventAnswersSubmitted, events[0].EventType())
}

func TestSubmitAnswers_GuardBusy(t *testing.T) {
	repo := newMemParticipantRepo()
	id := seedParticipant(t, repo)
	handler := NewSubmitAnswersHandler(repo, &stubGuard{acquired: false}, nil)

	_, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		ParticipantID: id,
		Intent:        "friend",
		Answers:       quizAnswers(participant.MinQuizAnswers),
	})
	assert.ErrorIs(t, err, participant.ErrAlreadySubmitted)
}

func TestSubmitAnswers_NilGuardAllowed(t *testing.T) {
	repo := newMemParticipantRepo()
	id := seedParticipant(t, repo)
	handler := NewSubmitAnswersHandler(repo, nil, nil)

	_, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		ParticipantID: id,
		Intent:        "date",
		Answers:       quizAnswers(participant.MinQuizAnswers),
	})
	assert.NoError(t, err)
}

func TestSubmitAnswers_UnknownParticipant(t *testing.T) {
	handler := NewSubmitAnswersHandler(newMemParticipantRepo(), nil, nil)

	_, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		ParticipantID: "ghost",
		Intent:        "friend",
		Answers:       quizAnswers(participant.MinQuizAnswers),
	})
	assert.ErrorIs(t, err, participant.ErrNotFound)
}

func TestSubmitAnswers_NotEnoughAnswers(t *testing.T) {
	repo := newMemParticipantRepo()
	id := seedParticipant(t, repo)
	handler := NewSubmitAnswersHandler(repo, nil, nil)

	_, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		ParticipantID: id,
		Intent:        "friend",
		Answers:       quizAnswers(participant.MinQuizAnswers - 1),
	})
	assert.ErrorIs(t, err, participant.ErrNotEnoughAnswers)
}

func TestSubmitAnswers_PersistFailureSurfaces(t *testing.T) {
	repo := newMemParticipantRepo()
	id := seedParticipant(t, repo)
	repo.failTag = "save_submission"
	repo.failErr = errors.New("connection reset")
	handler := NewSubmitAnswersHandler(repo, nil, nil)

	_, err := handler.Handle(context.Background(), SubmitAnswersCommand{
		ParticipantID: id,
		Intent:        "friend",
		Answers:       quizAnswers(participant.MinQuizAnswers),
	})
	assert.ErrorContains(t, err, "connection reset")
}
