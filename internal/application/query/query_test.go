package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emma-hub/emma-backend/internal/domain/matchmaking"
	"github.com/emma-hub/emma-backend/internal/domain/matchrun"
	"github.com/emma-hub/emma-backend/internal/domain/participant"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
)

// fakeParticipantRepo - неизменяемый набор участников для read-side тестов.
type fakeParticipantRepo struct {
	participants map[string]*participant.Participant
}

func (r *fakeParticipantRepo) Create(context.Context, *participant.Participant) error { return nil }
func (r *fakeParticipantRepo) Update(context.Context, *participant.Participant) error { return nil }

func (r *fakeParticipantRepo) GetByID(_ context.Context, id string) (*participant.Participant, error) {
	if p, ok := r.participants[id]; ok {
		return p, nil
	}
	return nil, participant.ErrNotFound
}

func (r *fakeParticipantRepo) GetByEmail(_ context.Context, email participant.Email) (*participant.Participant, error) {
	for _, p := range r.participants {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, participant.ErrNotFound
}

func (r *fakeParticipantRepo) SaveSubmission(context.Context, *participant.Participant, time.Time) error {
	return nil
}

func (r *fakeParticipantRepo) ListCompleted(context.Context) ([]*participant.Participant, error) {
	return nil, nil
}

// fakeMatchRunRepo отдаёт один фиксированный прогон.
type fakeMatchRunRepo struct {
	latest *matchrun.MatchRun
}

func (r *fakeMatchRunRepo) Create(context.Context, *matchrun.MatchRun) error { return nil }

func (r *fakeMatchRunRepo) Latest(context.Context) (*matchrun.MatchRun, error) {
	if r.latest == nil {
		return nil, matchrun.ErrNotFound
	}
	return r.latest, nil
}

func (r *fakeMatchRunRepo) GetByID(_ context.Context, id string) (*matchrun.MatchRun, error) {
	if r.latest != nil && r.latest.ID == id {
		return r.latest, nil
	}
	return nil, matchrun.ErrNotFound
}

// Идентификаторы участников в формате, который выдаёт регистрация.
const (
	idOne   = "7b1c2a64-0f0e-4c7d-9a75-3d2b5f8a1c10"
	idTwo   = "4f7a9c21-6d3b-4e8f-8b2a-9c1d0e5f6a72"
	idThree = "9d2e4b83-1a5c-4f6e-b7d0-2c8a9e1f3b54"
)

// fakeViewCache - кеш представлений в памяти со счётчиками обращений.
type fakeViewCache struct {
	views  map[string]*matchrun.ParticipantView
	hits   int
	misses int
	sets   int
}

func newFakeViewCache() *fakeViewCache {
	return &fakeViewCache{views: make(map[string]*matchrun.ParticipantView)}
}

func (c *fakeViewCache) GetMyMatch(_ context.Context, id string) (*matchrun.ParticipantView, error) {
	if view, ok := c.views[id]; ok {
		c.hits++
		return view, nil
	}
	c.misses++
	return nil, errors.New("cache miss")
}

func (c *fakeViewCache) SetMyMatch(_ context.Context, id string, view *matchrun.ParticipantView) error {
	c.sets++
	c.views[id] = view
	return nil
}

func mustParticipant(t *testing.T, id, email, first string, submitted bool) *participant.Participant {
	t.Helper()
	p, err := participant.NewParticipant(participant.NewParticipantParams{
		ID:        id,
		FirstName: first,
		LastName:  "Testova",
		Email:     email,
		Grade:     "11",
		Gender:    "female",
	})
	require.NoError(t, err)

	if submitted {
		answers := make(map[int]string, participant.MinQuizAnswers)
		for q := 1; q <= participant.MinQuizAnswers; q++ {
			answers[q] = "agree"
		}
		require.NoError(t, p.SubmitQuiz(answers, "friend", time.Now()))
	}
	return p
}

func testRepo(t *testing.T) *fakeParticipantRepo {
	t.Helper()
	return &fakeParticipantRepo{participants: map[string]*participant.Participant{
		idOne:   mustParticipant(t, idOne, "one@example.com", "Aruzhan", true),
		idTwo:   mustParticipant(t, idTwo, "two@example.com", "Dana", true),
		idThree: mustParticipant(t, idThree, "three@example.com", "Alia", false),
	}}
}

// ─────────────────────────────────────────────────────────────────────────────
// CheckEmail
// ─────────────────────────────────────────────────────────────────────────────

func TestCheckEmail_Registered(t *testing.T) {
	handler := NewCheckEmailHandler(testRepo(t))

	result, err := handler.Handle(context.Background(), CheckEmailQuery{Email: " ONE@example.com "})
	require.NoError(t, err)
	assert.True(t, result.Registered)
	assert.True(t, result.HasSubmitted)
	assert.Equal(t, idOne, result.ParticipantID)
}

func TestCheckEmail_RegisteredWithoutQuiz(t *testing.T) {
	handler := NewCheckEmailHandler(testRepo(t))

	result, err := handler.Handle(context.Background(), CheckEmailQuery{Email: "three@example.com"})
	require.NoError(t, err)
	assert.True(t, result.Registered)
	assert.False(t, result.HasSubmitted)
}

func TestCheckEmail_Unknown(t *testing.T) {
	handler := NewCheckEmailHandler(testRepo(t))

	result, err := handler.Handle(context.Background(), CheckEmailQuery{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.False(t, result.Registered)
	assert.False(t, result.HasSubmitted)
	assert.Empty(t, result.ParticipantID)
}

func TestCheckEmail_Invalid(t *testing.T) {
	handler := NewCheckEmailHandler(testRepo(t))

	_, err := handler.Handle(context.Background(), CheckEmailQuery{Email: "broken"})
	assert.ErrorIs(t, err, participant.ErrInvalidEmail)
}

// ─────────────────────────────────────────────────────────────────────────────
// GetParticipant
// ─────────────────────────────────────────────────────────────────────────────

func TestGetParticipant_Found(t *testing.T) {
	handler := NewGetParticipantHandler(testRepo(t))

	dto, err := handler.Handle(context.Background(), GetParticipantQuery{ParticipantID: idOne})
	require.NoError(t, err)
	assert.Equal(t, idOne, dto.ID)
	assert.Equal(t, "one@example.com", dto.Email)
	assert.True(t, dto.HasSubmitted)
	require.NotNil(t, dto.SubmittedAt)
}

func TestGetParticipant_NotFound(t *testing.T) {
	handler := NewGetParticipantHandler(testRepo(t))

	absent := "00000000-0000-4000-8000-000000000000"
	_, err := handler.Handle(context.Background(), GetParticipantQuery{ParticipantID: absent})
	assert.ErrorIs(t, err, participant.ErrNotFound)
}

func TestGetParticipant_MalformedID(t *testing.T) {
	repo := testRepo(t)
	handler := NewGetParticipantHandler(repo)

	_, err := handler.Handle(context.Background(), GetParticipantQuery{ParticipantID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}

// ─────────────────────────────────────────────────────────────────────────────
// GetMyMatch
// ─────────────────────────────────────────────────────────────────────────────

func pairRun() *matchrun.MatchRun {
	return &matchrun.MatchRun{
		ID:       "run-1",
		Baseline: 0.5,
		Result: &matchmaking.MatchResult{
			FriendPairs: []matchmaking.PairResult{{A: idOne, B: idTwo, Score: 0.88}},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestGetMyMatch_ByEmail(t *testing.T) {
	handler := NewGetMyMatchHandler(testRepo(t), &fakeMatchRunRepo{latest: pairRun()}, nil)

	dto, err := handler.Handle(context.Background(), GetMyMatchQuery{Email: "one@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", dto.RunID)
	assert.Equal(t, matchrun.KindFriend, dto.Kind)
	assert.Equal(t, 0.88, dto.Score)
	require.NotNil(t, dto.Partner)
	assert.Equal(t, idTwo, dto.Partner.ID)
	assert.Equal(t, "Dana", dto.Partner.FirstName)
}

func TestGetMyMatch_ByParticipantID(t *testing.T) {
	handler := NewGetMyMatchHandler(testRepo(t), &fakeMatchRunRepo{latest: pairRun()}, nil)

	dto, err := handler.Handle(context.Background(), GetMyMatchQuery{ParticipantID: idTwo})
	require.NoError(t, err)
	require.NotNil(t, dto.Partner)
	assert.Equal(t, idOne, dto.Partner.ID)
}

func TestGetMyMatch_Group(t *testing.T) {
	run := &matchrun.MatchRun{
		ID: "run-2",
		Result: &matchmaking.MatchResult{
			Groups: []matchmaking.Group{{Members: []string{idOne, idTwo, "ghost"}}},
		},
		CreatedAt: time.Now().UTC(),
	}
	handler := NewGetMyMatchHandler(testRepo(t), &fakeMatchRunRepo{latest: run}, nil)

	dto, err := handler.Handle(context.Background(), GetMyMatchQuery{ParticipantID: idOne})
	require.NoError(t, err)
	assert.Equal(t, matchrun.KindGroup, dto.Kind)
	// Полный состав, включая запрашивающего; профиль "ghost" удалён
	// после прогона и молча пропускается.
	require.Len(t, dto.Members, 2)
	assert.Equal(t, idOne, dto.Members[0].ID)
	assert.Equal(t, idTwo, dto.Members[1].ID)
}

func TestGetMyMatch_NotMatched(t *testing.T) {
	handler := NewGetMyMatchHandler(testRepo(t), &fakeMatchRunRepo{latest: pairRun()}, nil)

	_, err := handler.Handle(context.Background(), GetMyMatchQuery{ParticipantID: idThree})
	assert.ErrorIs(t, err, ErrNotMatched)
}

func TestGetMyMatch_NoRuns(t *testing.T) {
	handler := NewGetMyMatchHandler(testRepo(t), &fakeMatchRunRepo{}, nil)

	_, err := handler.Handle(context.Background(), GetMyMatchQuery{ParticipantID: idOne})
	assert.ErrorIs(t, err, matchrun.ErrNotFound)
}

func TestGetMyMatch_UnknownParticipant(t *testing.T) {
	handler := NewGetMyMatchHandler(testRepo(t), &fakeMatchRunRepo{latest: pairRun()}, nil)

	_, err := handler.Handle(context.Background(), GetMyMatchQuery{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, participant.ErrNotFound)
}

func TestGetMyMatch_ValidationError(t *testing.T) {
	handler := NewGetMyMatchHandler(testRepo(t), &fakeMatchRunRepo{}, nil)

	_, err := handler.Handle(context.Background(), GetMyMatchQuery{})
	assert.Error(t, err)
}

func TestGetMyMatch_CacheMissThenWarm(t *testing.T) {
	cache := newFakeViewCache()
	handler := NewGetMyMatchHandler(testRepo(t), &fakeMatchRunRepo{latest: pairRun()}, cache)

	// Первый запрос идёт мимо кеша и прогревает его.
	_, err := handler.Handle(context.Background(), GetMyMatchQuery{ParticipantID: idOne})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.misses)
	assert.Equal(t, 1, cache.sets)

	// Второй запрос обслуживается из кеша.
	_, err = handler.Handle(context.Background(), GetMyMatchQuery{ParticipantID: idOne})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
}

func TestGetMyMatch_StaleCacheStillResolvesProfiles(t *testing.T) {
	cache := newFakeViewCache()
	cache.views[idOne] = &matchrun.ParticipantView{
		RunID:   "run-old",
		Kind:    matchrun.KindDate,
		Partner: idTwo,
		Score:   0.7,
	}
	handler := NewGetMyMatchHandler(testRepo(t), &fakeMatchRunRepo{}, cache)

	dto, err := handler.Handle(context.Background(), GetMyMatchQuery{ParticipantID: idOne})
	require.NoError(t, err)
	assert.Equal(t, "run-old", dto.RunID)
	require.NotNil(t, dto.Partner)
	assert.Equal(t, idTwo, dto.Partner.ID)
}
