package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emma-hub/emma-backend/internal/domain/participant"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PARTICIPANT QUERY
// Возвращает профиль участника по идентификатору. Ответы анкеты наружу
// не отдаются, только факт отправки и категория подбора.
// ══════════════════════════════════════════════════════════════════════════════

// GetParticipantQuery содержит параметры запроса профиля.
type GetParticipantQuery struct {
	// ParticipantID - внутренний идентификатор участника.
	ParticipantID string
}

// Validate проверяет корректность параметров запроса.
func (q GetParticipantQuery) Validate() error {
	if q.ParticipantID == "" {
		return errors.New("participant_id is required")
	}
	// Кривой идентификатор отсекаем до похода в базу.
	if _, err := shared.NewParticipantID(q.ParticipantID); err != nil {
		return err
	}
	return nil
}

// ParticipantDTO - публичное представление профиля.
type ParticipantDTO struct {
	// ID - внутренний идентификатор.
	ID string `json:"id"`

	// Email - нормализованный email.
	Email string `json:"email"`

	// FirstName и LastName - имя и фамилия, как введены при регистрации.
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Grade - класс, как введён участником.
	Grade string `json:"grade"`

	// Gender - пол в нижнем регистре.
	Gender string `json:"gender,omitempty"`

	// PreferredGenders - принимаемые полы.
	PreferredGenders []string `json:"preferred_genders,omitempty"`

	// Intent - категория подбора (пустая до отправки анкеты).
	Intent string `json:"intent,omitempty"`

	// HasSubmitted - отправлена ли анкета.
	HasSubmitted bool `json:"has_submitted"`

	// SubmittedAt - когда отправлена анкета.
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	// CreatedAt - когда создан профиль.
	CreatedAt time.Time `json:"created_at"`
}

// GetParticipantHandler обрабатывает запросы профиля участника.
type GetParticipantHandler struct {
	participantRepo participant.Repository
}

// NewGetParticipantHandler создаёт новый обработчик.
func NewGetParticipantHandler(participantRepo participant.Repository) *GetParticipantHandler {
	return &GetParticipantHandler{participantRepo: participantRepo}
}

// Handle выполняет запрос профиля участника.
func (h *GetParticipantHandler) Handle(ctx context.Context, query GetParticipantQuery) (*ParticipantDTO, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("get_participant: %w", err)
	}

	p, err := h.participantRepo.GetByID(ctx, query.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("get_participant: %w", err)
	}

	return toParticipantDTO(p), nil
}

// toParticipantDTO формирует DTO из доменной сущности.
func toParticipantDTO(p *participant.Participant) *ParticipantDTO {
	return &ParticipantDTO{
		ID:               p.ID,
		Email:            p.Email.String(),
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Grade:            string(p.Grade),
		Gender:           p.Gender,
		PreferredGenders: p.PreferredGenders,
		Intent:           p.Intent,
		HasSubmitted:     p.HasCompletedQuiz(),
		SubmittedAt:      p.SubmittedAt,
		CreatedAt:        p.CreatedAt,
	}
}
