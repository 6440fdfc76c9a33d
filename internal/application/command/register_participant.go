// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emma-hub/emma-backend/internal/domain/participant"
	"github.com/emma-hub/emma-backend/internal/domain/shared"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER PARTICIPANT COMMAND
// Creates a participant profile, or refreshes the profile fields when the
// email is already registered. The quiz comes later - registration only
// captures the fields matchmaking needs to gate pairs (grade, gender,
// preferred genders) plus contact identity.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterParticipantCommand contains the data to register a participant.
type RegisterParticipantCommand struct {
	// FirstName is the participant's first name.
	FirstName string

	// LastName is the participant's last name.
	LastName string

	// Email is the unique contact address.
	Email string

	// Grade is the school grade as entered ("11", "11th", ...).
	Grade string

	// Gender is the participant's gender.
	Gender string

	// PreferredGenders lists genders the participant accepts for dates.
	// Empty means no restriction.
	PreferredGenders []string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RegisterParticipantCommand) Validate() error {
	if c.FirstName == "" {
		return errors.New("register_participant: first_name is required")
	}
	if c.LastName == "" {
		return errors.New("register_participant: last_name is required")
	}
	if c.Email == "" {
		return errors.New("register_participant: email is required")
	}
	if c.Grade == "" {
		return errors.New("register_participant: grade is required")
	}
	if c.Gender == "" {
		return errors.New("register_participant: gender is required")
	}
	return nil
}

// RegisterParticipantResult contains the result of a registration.
type RegisterParticipantResult struct {
	// ParticipantID is the ID of the created participant.
	ParticipantID string

	// Email is the normalized email.
	Email string

	// Created is true for a new profile, false for a profile refresh.
	Created bool

	// CreatedAt is when the profile was created.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterParticipantHandler handles the RegisterParticipantCommand.
type RegisterParticipantHandler struct {
	participantRepo participant.Repository
	eventPublisher  shared.EventPublisher
}

// NewRegisterParticipantHandler creates a new RegisterParticipantHandler.
func NewRegisterParticipantHandler(
	participantRepo participant.Repository,
	eventPublisher shared.EventPublisher,
) *RegisterParticipantHandler {
	return &RegisterParticipantHandler{
		participantRepo: participantRepo,
		eventPublisher:  eventPublisher,
	}
}

// Handle executes the register participant command.
// Signing up with an already registered email refreshes the profile fields
// instead of failing, matching the behavior of the signup form.
func (h *RegisterParticipantHandler) Handle(ctx context.Context, cmd RegisterParticipantCommand) (*RegisterParticipantResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_participant: validation failed: %w", err)
	}

	email, err := participant.NewEmail(cmd.Email)
	if err != nil {
		return nil, fmt.Errorf("register_participant: %w", err)
	}

	existing, err := h.participantRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return h.refresh(ctx, existing, cmd)
	case errors.Is(err, participant.ErrNotFound):
		return h.create(ctx, cmd)
	default:
		return nil, fmt.Errorf("register_participant: %w", err)
	}
}

func (h *RegisterParticipantHandler) create(ctx context.Context, cmd RegisterParticipantCommand) (*RegisterParticipantResult, error) {
	p, err := participant.NewParticipant(participant.NewParticipantParams{
		ID:               uuid.New().String(),
		FirstName:        cmd.FirstName,
		LastName:         cmd.LastName,
		Email:            cmd.Email,
		Grade:            cmd.Grade,
		Gender:           cmd.Gender,
		PreferredGenders: cmd.PreferredGenders,
	})
	if err != nil {
		return nil, fmt.Errorf("register_participant: %w", err)
	}

	if err := h.participantRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("register_participant: %w", err)
	}

	if h.eventPublisher != nil {
		event := shared.NewParticipantRegisteredEvent(p.ID, p.Email.String(), p.FirstName, p.Grade.String())
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		_ = h.eventPublisher.Publish(event)
	}

	return &RegisterParticipantResult{
		ParticipantID: p.ID,
		Email:         p.Email.String(),
		Created:       true,
		CreatedAt:     p.CreatedAt,
	}, nil
}

func (h *RegisterParticipantHandler) refresh(ctx context.Context, p *participant.Participant, cmd RegisterParticipantCommand) (*RegisterParticipantResult, error) {
	err := p.UpdateProfile(participant.NewParticipantParams{
		FirstName:        cmd.FirstName,
		LastName:         cmd.LastName,
		Email:            cmd.Email,
		Grade:            cmd.Grade,
		Gender:           cmd.Gender,
		PreferredGenders: cmd.PreferredGenders,
	})
	if err != nil {
		return nil, fmt.Errorf("register_participant: %w", err)
	}

	if err := h.participantRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("register_participant: %w", err)
	}

	if h.eventPublisher != nil {
		event := shared.NewParticipantUpdatedEvent(p.ID, p.Email.String())
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		_ = h.eventPublisher.Publish(event)
	}

	return &RegisterParticipantResult{
		ParticipantID: p.ID,
		Email:         p.Email.String(),
		Created:       false,
		CreatedAt:     p.CreatedAt,
	}, nil
}
