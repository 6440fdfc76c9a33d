package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emma-hub/emma-backend/internal/domain/participant"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
)

func registerCmd() RegisterParticipantCommand {
	return RegisterParticipantCommand{
		FirstName:     "Aruzhan",
		LastName:      "Bekova",
		Email:         "Aruzhan@Example.com",
		Grade:         "11",
		Gender:        "female",
		CorrelationID: "corr-1",
	}
}

func TestRegisterParticipant_Success(t *testing.T) {
	repo := newMemParticipantRepo()
	publisher := &capturePublisher{}
	handler := NewRegisterParticipantHandler(repo, publisher)

	result, err := handler.Handle(context.Background(), registerCmd())
	require.NoError(t, err)

	assert.NotEmpty(t, result.ParticipantID)
	assert.Equal(t, "aruzhan@example.com", result.Email)
	assert.True(t, result.Created)

	stored, err := repo.GetByID(context.Background(), result.ParticipantID)
	require.NoError(t, err)
	assert.Equal(t, "Aruzhan", stored.FirstName)

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventParticipantRegistered, events[0].EventType())
}

func TestRegisterParticipant_ExistingEmailRefreshes(t *testing.T) {
	repo := newMemParticipantRepo()
	publisher := &capturePublisher{}
	handler := NewRegisterParticipantHandler(repo, publisher)

	first, err := handler.Handle(context.Background(), registerCmd())
	require.NoError(t, err)

	cmd := registerCmd()
	cmd.FirstName = "Aru"
	cmd.Grade = "12"
	second, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, first.ParticipantID, second.ParticipantID)
	assert.False(t, second.Created)

	stored, err := repo.GetByID(context.Background(), first.ParticipantID)
	require.NoError(t, err)
	assert.Equal(t, "Aru", stored.FirstName)
	assert.Equal(t, participant.Grade("12"), stored.Grade)

	events := publisher.published()
	require.Len(t, events, 2)
	assert.Equal(t, shared.EventParticipantUpdated, events[1].EventType())
}

func TestRegisterParticipant_InvalidEmail(t *testing.T) {
	handler := NewRegisterParticipantHandler(newMemParticipantRepo(), nil)

	cmd := registerCmd()
	cmd.Email = "not-an-email"
	_, err := handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, participant.ErrInvalidEmail)
}

func TestRegisterParticipant_ValidationFails(t *testing.T) {
	handler := NewRegisterParticipantHandler(newMemParticipantRepo(), nil)

	cmd := registerCmd()
	cmd.FirstName = ""
	_, err := handler.Handle(context.Background(), cmd)
	assert.Error(t, err)
}
