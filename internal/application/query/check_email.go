// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/emma-hub/emma-backend/internal/domain/participant"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK EMAIL QUERY
// Проверяет статус email перед регистрацией: свободен ли адрес, и если
// занят - отправлена ли уже анкета. Фронтенд по этому ответу решает,
// показывать форму регистрации или сразу анкету.
// ══════════════════════════════════════════════════════════════════════════════

// CheckEmailQuery содержит параметры проверки email.
type CheckEmailQuery struct {
	// Email - проверяемый адрес в любом регистре.
	Email string
}

// Validate проверяет корректность параметров запроса.
func (q CheckEmailQuery) Validate() error {
	if q.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

// CheckEmailResult содержит статус адреса.
type CheckEmailResult struct {
	// Registered - зарегистрирован ли участник с этим email.
	Registered bool `json:"registered"`

	// HasSubmitted - отправлена ли анкета (false, если не зарегистрирован).
	HasSubmitted bool `json:"has_submitted"`

	// ParticipantID - идентификатор участника (пустой, если не зарегистрирован).
	ParticipantID string `json:"participant_id,omitempty"`
}

// CheckEmailHandler обрабатывает запросы проверки email.
type CheckEmailHandler struct {
	participantRepo participant.Repository
}

// NewCheckEmailHandler создаёт новый обработчик.
func NewCheckEmailHandler(participantRepo participant.Repository) *CheckEmailHandler {
	return &CheckEmailHandler{participantRepo: participantRepo}
}

// Handle выполняет проверку email.
func (h *CheckEmailHandler) Handle(ctx context.Context, query CheckEmailQuery) (*CheckEmailResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("check_email: %w", err)
	}

	email, err := participant.NewEmail(query.Email)
	if err != nil {
		return nil, fmt.Errorf("check_email: %w", err)
	}

	p, err := h.participantRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			return &CheckEmailResult{Registered: false, HasSubmitted: false}, nil
		}
		return nil, fmt.Errorf("check_email: %w", err)
	}

	return &CheckEmailResult{
		Registered:    true,
		HasSubmitted:  p.HasCompletedQuiz(),
		ParticipantID: p.ID,
	}, nil
}
