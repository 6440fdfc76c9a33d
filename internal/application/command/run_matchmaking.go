package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emma-hub/emma-backend/internal/domain/matchmaking"
	"github.com/emma-hub/emma-backend/internal/domain/matchrun"
	"github.com/emma-hub/emma-backend/internal/domain/participant"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN MATCHMAKING COMMAND
// Executes a full matchmaking run: loads every participant with a completed
// quiz, builds the roster snapshot, runs the engine and persists the result
// as a new immutable match run.
// ══════════════════════════════════════════════════════════════════════════════

// RunMetrics records matchmaking run outcomes. Implemented by the Prometheus
// collector; nil disables recording.
type RunMetrics interface {
	RecordRun(baseline float64, rosterSize int, duration time.Duration)
	RecordRunResult(friendPairs, datePairs, groups int)
	RecordRunFailure()
}

// RunMatchmakingCommand triggers a matchmaking run.
type RunMatchmakingCommand struct {
	// Baseline is the minimum similarity for a pair to be eligible, in [0, 1].
	Baseline float64

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RunMatchmakingCommand) Validate() error {
	if _, err := shared.NewBaseline(c.Baseline); err != nil {
		return fmt.Errorf("run_matchmaking: %w", err)
	}
	return nil
}

// RunMatchmakingResult summarizes a completed run.
type RunMatchmakingResult struct {
	// RunID is the identifier of the persisted run.
	RunID string

	// Baseline the run was executed with.
	Baseline float64

	// RosterSize is the number of participants considered.
	RosterSize int

	// FriendPairs, DatePairs and Groups count the produced matches.
	FriendPairs int
	DatePairs   int
	Groups      int

	// CreatedAt is when the run was executed.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RunMatchmakingHandler handles the RunMatchmakingCommand.
type RunMatchmakingHandler struct {
	participantRepo participant.Repository
	matchRepo       matchrun.Repository
	engine          *matchmaking.Engine
	eventPublisher  shared.EventPublisher
	metrics         RunMetrics
}

// NewRunMatchmakingHandler creates a new RunMatchmakingHandler.
func NewRunMatchmakingHandler(
	participantRepo participant.Repository,
	matchRepo matchrun.Repository,
	engine *matchmaking.Engine,
	eventPublisher shared.EventPublisher,
	metrics RunMetrics,
) *RunMatchmakingHandler {
	return &RunMatchmakingHandler{
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		engine:          engine,
		eventPublisher:  eventPublisher,
		metrics:         metrics,
	}
}

// Handle executes the matchmaking run.
func (h *RunMatchmakingHandler) Handle(ctx context.Context, cmd RunMatchmakingCommand) (*RunMatchmakingResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	participants, err := h.participantRepo.ListCompleted(ctx)
	if err != nil {
		h.recordFailure(cmd, "load roster")
		return nil, fmt.Errorf("run_matchmaking: load roster: %w", err)
	}

	roster := buildRoster(participants)

	started := time.Now()
	result, err := h.engine.Run(roster, cmd.Baseline)
	if err != nil {
		h.recordFailure(cmd, "engine")
		return nil, fmt.Errorf("run_matchmaking: %w", err)
	}
	elapsed := time.Since(started)

	run := &matchrun.MatchRun{
		ID:        uuid.New().String(),
		Baseline:  cmd.Baseline,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.matchRepo.Create(ctx, run); err != nil {
		h.recordFailure(cmd, "persist")
		return nil, fmt.Errorf("run_matchmaking: persist run: %w", err)
	}

	if h.metrics != nil {
		h.metrics.RecordRun(cmd.Baseline, len(roster), elapsed)
		h.metrics.RecordRunResult(len(result.FriendPairs), len(result.DatePairs), len(result.Groups))
	}

	if h.eventPublisher != nil {
		event := shared.NewMatchRunCompletedEvent(
			run.ID, run.Baseline, len(roster),
			len(result.FriendPairs), len(result.DatePairs), len(result.Groups),
		)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		_ = h.eventPublisher.Publish(event)
	}

	return &RunMatchmakingResult{
		RunID:       run.ID,
		Baseline:    run.Baseline,
		RosterSize:  len(roster),
		FriendPairs: len(result.FriendPairs),
		DatePairs:   len(result.DatePairs),
		Groups:      len(result.Groups),
		CreatedAt:   run.CreatedAt,
	}, nil
}

func (h *RunMatchmakingHandler) recordFailure(cmd RunMatchmakingCommand, reason string) {
	if h.metrics != nil {
		h.metrics.RecordRunFailure()
	}
	if h.eventPublisher != nil {
		event := shared.NewMatchRunFailedEvent("", reason)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		_ = h.eventPublisher.Publish(event)
	}
}

// buildRoster converts stored participants into engine snapshots.
// Only participants with a completed quiz are expected here.
func buildRoster(participants []*participant.Participant) []matchmaking.Participant {
	roster := make([]matchmaking.Participant, 0, len(participants))
	for _, p := range participants {
		answers := make(map[int]string, len(p.Answers))
		for q, a := range p.Answers {
			answers[q] = a
		}
		roster = append(roster, matchmaking.Participant{
			ID:               p.ID,
			Grade:            p.Grade.Year(),
			Intent:           matchmaking.ParseIntent(p.Intent),
			Gender:           p.Gender,
			PreferredGenders: p.PreferredGenders,
			Answers:          answers,
		})
	}
	return roster
}
