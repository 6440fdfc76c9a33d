// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emma-hub/emma-backend/internal/domain/participant"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ANSWERS COMMAND
// Records a participant's full quiz submission. Resubmission overwrites the
// previous answers - participants are allowed to change their mind before a
// matchmaking run. A Redis-backed guard rejects concurrent submissions for
// the same participant.
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionGuard prevents concurrent submissions for the same participant.
// Implemented by the Redis submission guard; nil disables guarding.
type SubmissionGuard interface {
	Acquire(ctx context.Context, participantID string) (bool, error)
	Release(ctx context.Context, participantID string) error
}

// SubmitAnswersCommand contains a full quiz submission.
type SubmitAnswersCommand struct {
	// ParticipantID identifies the submitting participant.
	ParticipantID string

	// Intent is the matchmaking category: friend, date, or group.
	Intent string

	// Answers maps question number to the chosen answer.
	Answers map[int]string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SubmitAnswersCommand) Validate() error {
	if c.ParticipantID == "" {
		return errors.New("submit_answers: participant_id is required")
	}
	if c.Intent == "" {
		return errors.New("submit_answers: intent is required")
	}
	if len(c.Answers) == 0 {
		return errors.New("submit_answers: answers are required")
	}
	return nil
}

// SubmitAnswersResult contains the result of a submission.
type SubmitAnswersResult struct {
	// ParticipantID is the submitting participant.
	ParticipantID string

	// AnswerCount is the number of recorded answers.
	AnswerCount int

	// SubmittedAt is when the submission was recorded.
	SubmittedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswersHandler handles the SubmitAnswersCommand.
type SubmitAnswersHandler struct {
	participantRepo participant.Repository
	guard           SubmissionGuard
	eventPublisher  shared.EventPublisher
}

// NewSubmitAnswersHandler creates a new SubmitAnswersHandler.
func NewSubmitAnswersHandler(
	participantRepo participant.Repository,
	guard SubmissionGuard,
	eventPublisher shared.EventPublisher,
) *SubmitAnswersHandler {
	return &SubmitAnswersHandler{
		participantRepo: participantRepo,
		guard:           guard,
		eventPublisher:  eventPublisher,
	}
}

// Handle executes the submit answers command.
func (h *SubmitAnswersHandler) Handle(ctx context.Context, cmd SubmitAnswersCommand) (*SubmitAnswersResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_answers: validation failed: %w", err)
	}

	if h.guard != nil {
		acquired, err := h.guard.Acquire(ctx, cmd.ParticipantID)
		if err != nil {
			return nil, fmt.Errorf("submit_answers: guard: %w", err)
		}
		if !acquired {
			return nil, participant.ErrAlreadySubmitted
		}
		defer func() { _ = h.guard.Release(ctx, cmd.ParticipantID) }()
	}

	p, err := h.participantRepo.GetByID(ctx, cmd.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("submit_answers: %w", err)
	}

	submittedAt := time.Now().UTC()
	if err := p.SubmitQuiz(cmd.Answers, cmd.Intent, submittedAt); err != nil {
		return nil, fmt.Errorf("submit_answers: %w", err)
	}

	if err := h.participantRepo.SaveSubmission(ctx, p, submittedAt); err != nil {
		return nil, fmt.Errorf("submit_answers: %w", err)
	}

	if h.eventPublisher != nil {
		event := shared.NewAnswersSubmittedEvent(p.ID, p.Intent, len(p.Answers))
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		_ = h.eventPublisher.Publish(event)
	}

	return &SubmitAnswersResult{
		ParticipantID: p.ID,
		AnswerCount:   len(p.Answers),
		SubmittedAt:   submittedAt,
	}, nil
}
