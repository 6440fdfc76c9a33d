package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emma-hub/emma-backend/internal/domain/matchrun"
	"github.com/emma-hub/emma-backend/internal/domain/participant"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MY MATCH QUERY
// Возвращает результат последнего прогона подбора с точки зрения одного
// участника, с профилями партнёра или членов группы. Это главный read-path
// системы: сперва пробуем прогретый Redis-кеш, при промахе читаем
// последний прогон из Postgres.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNotMatched - участник не попал ни в пару, ни в группу в последнем прогоне.
	ErrNotMatched = errors.New("participant was not matched in the latest run")
)

// MatchViewCache - прогреваемый кеш результатов подбора.
// Реализация - internal/infrastructure/persistence/redis.
type MatchViewCache interface {
	GetMyMatch(ctx context.Context, participantID string) (*matchrun.ParticipantView, error)
	SetMyMatch(ctx context.Context, participantID string, view *matchrun.ParticipantView) error
}

// GetMyMatchQuery содержит параметры запроса результата подбора.
// Участник идентифицируется по email (как в форме) или по внутреннему ID.
type GetMyMatchQuery struct {
	// Email - email участника.
	Email string

	// ParticipantID - внутренний идентификатор (альтернатива email).
	ParticipantID string
}

// Validate проверяет корректность параметров запроса.
func (q GetMyMatchQuery) Validate() error {
	if q.Email == "" && q.ParticipantID == "" {
		return errors.New("either email or participant_id must be provided")
	}
	return nil
}

// MatchedProfile - профиль партнёра или члена группы.
type MatchedProfile struct {
	// ID - внутренний идентификатор.
	ID string `json:"id"`

	// FirstName и LastName - имя и фамилия.
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Email - контакт для связи.
	Email string `json:"email"`

	// Grade - класс.
	Grade string `json:"grade"`
}

// MyMatchDTO - результат подбора для одного участника.
type MyMatchDTO struct {
	// RunID - прогон, из которого взят результат.
	RunID string `json:"run_id"`

	// Kind - вид результата: friend, date или group.
	Kind string `json:"kind"`

	// Score - балл совместимости пары (только для friend/date).
	Score float64 `json:"score,omitempty"`

	// Partner - профиль партнёра (только для friend/date).
	Partner *MatchedProfile `json:"partner,omitempty"`

	// Members - профили всех членов группы, включая самого участника
	// (только для group).
	Members []MatchedProfile `json:"members,omitempty"`

	// CreatedAt - когда выполнен прогон.
	CreatedAt time.Time `json:"created_at"`
}

// GetMyMatchHandler обрабатывает запросы результата подбора.
type GetMyMatchHandler struct {
	participantRepo participant.Repository
	matchRepo       matchrun.Repository
	matchCache      MatchViewCache
}

// NewGetMyMatchHandler создаёт новый обработчик.
func NewGetMyMatchHandler(
	participantRepo participant.Repository,
	matchRepo matchrun.Repository,
	matchCache MatchViewCache,
) *GetMyMatchHandler {
	return &GetMyMatchHandler{
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		matchCache:      matchCache,
	}
}

// Handle выполняет запрос результата подбора.
// Ошибки кеша не фатальны: при любом сбое Redis запрос обслуживается из базы.
func (h *GetMyMatchHandler) Handle(ctx context.Context, query GetMyMatchQuery) (*MyMatchDTO, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("get_my_match: %w", err)
	}

	p, err := h.resolveParticipant(ctx, query)
	if err != nil {
		return nil, err
	}

	view, err := h.loadView(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return h.buildDTO(ctx, view)
}

// resolveParticipant находит участника по email или по ID.
func (h *GetMyMatchHandler) resolveParticipant(ctx context.Context, query GetMyMatchQuery) (*participant.Participant, error) {
	if query.ParticipantID != "" {
		p, err := h.participantRepo.GetByID(ctx, query.ParticipantID)
		if err != nil {
			return nil, fmt.Errorf("get_my_match: %w", err)
		}
		return p, nil
	}

	email, err := participant.NewEmail(query.Email)
	if err != nil {
		return nil, fmt.Errorf("get_my_match: %w", err)
	}

	p, err := h.participantRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get_my_match: %w", err)
	}
	return p, nil
}

// loadView достаёт персональное представление: кеш, затем последний прогон.
func (h *GetMyMatchHandler) loadView(ctx context.Context, participantID string) (*matchrun.ParticipantView, error) {
	if h.matchCache != nil {
		if view, err := h.matchCache.GetMyMatch(ctx, participantID); err == nil && view != nil {
			return view, nil
		}
	}

	run, err := h.matchRepo.Latest(ctx)
	if err != nil {
		if errors.Is(err, matchrun.ErrNotFound) {
			return nil, matchrun.ErrNotFound
		}
		return nil, fmt.Errorf("get_my_match: %w", err)
	}

	view, ok := run.ViewFor(participantID)
	if !ok {
		return nil, ErrNotMatched
	}

	if h.matchCache != nil {
		_ = h.matchCache.SetMyMatch(ctx, participantID, view)
	}

	return view, nil
}

// buildDTO разворачивает идентификаторы представления в профили.
func (h *GetMyMatchHandler) buildDTO(ctx context.Context, view *matchrun.ParticipantView) (*MyMatchDTO, error) {
	dto := &MyMatchDTO{
		RunID:     view.RunID,
		Kind:      view.Kind,
		Score:     view.Score,
		CreatedAt: view.CreatedAt,
	}

	if view.Partner != "" {
		profile, err := h.loadProfile(ctx, view.Partner)
		if err != nil {
			return nil, err
		}
		dto.Partner = profile
		return dto, nil
	}

	dto.Members = make([]MatchedProfile, 0, len(view.Members))
	for _, id := range view.Members {
		profile, err := h.loadProfile(ctx, id)
		if err != nil {
			// Профиль мог быть удалён после прогона; пропускаем.
			if errors.Is(err, participant.ErrNotFound) {
				continue
			}
			return nil, err
		}
		dto.Members = append(dto.Members, *profile)
	}

	return dto, nil
}

func (h *GetMyMatchHandler) loadProfile(ctx context.Context, id string) (*MatchedProfile, error) {
	p, err := h.participantRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			return nil, participant.ErrNotFound
		}
		return nil, fmt.Errorf("get_my_match: load profile: %w", err)
	}

	return &MatchedProfile{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email.String(),
		Grade:     string(p.Grade),
	}, nil
}
