// Package jobs contains implementations of scheduled jobs for Emma Hub.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/emma-hub/emma-backend/internal/application/command"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
	"github.com/emma-hub/emma-backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULED MATCHMAKING JOB
// ══════════════════════════════════════════════════════════════════════════════

// ScheduledMatchmakingJob runs a full matchmaking pass on schedule.
// The nightly run keeps pairings fresh as new quizzes come in, without
// requiring an operator to hit the admin endpoint by hand.
type ScheduledMatchmakingJob struct {
	// Dependencies
	runHandler *command.RunMatchmakingHandler
	logger     *slog.Logger

	// Configuration
	config ScheduledMatchmakingConfig

	// State
	lastRunStats atomic.Value // *MatchmakingRunStats
}

// ScheduledMatchmakingConfig contains configuration for the scheduled run.
type ScheduledMatchmakingConfig struct {
	// Baseline is the similarity threshold passed to every scheduled run.
	Baseline float64

	// Timeout is the maximum duration for one run.
	Timeout time.Duration

	// RetryAttempts is how many times to retry a failed run.
	RetryAttempts int
}

// DefaultScheduledMatchmakingConfig returns sensible defaults.
func DefaultScheduledMatchmakingConfig() ScheduledMatchmakingConfig {
	return ScheduledMatchmakingConfig{
		Baseline:      0,
		Timeout:       5 * time.Minute,
		RetryAttempts: 3,
	}
}

// MatchmakingRunStats contains statistics from the last scheduled run.
type MatchmakingRunStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	RunID       string
	RosterSize  int
	FriendPairs int
	DatePairs   int
	Groups      int
	Err         error
}

// NewScheduledMatchmakingJob creates a new scheduled matchmaking job.
func NewScheduledMatchmakingJob(
	runHandler *command.RunMatchmakingHandler,
	logger *slog.Logger,
	config ScheduledMatchmakingConfig,
) *ScheduledMatchmakingJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &ScheduledMatchmakingJob{
		runHandler: runHandler,
		logger:     logger,
		config:     config,
	}
}

// Name returns the job name.
func (j *ScheduledMatchmakingJob) Name() string {
	return "scheduled_matchmaking"
}

// Description returns a human-readable description.
func (j *ScheduledMatchmakingJob) Description() string {
	return "Runs a full matchmaking pass over all completed quizzes"
}

// Run executes the matchmaking job.
func (j *ScheduledMatchmakingJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &MatchmakingRunStats{StartedAt: startedAt}

	j.logger.Info("starting scheduled_matchmaking job",
		"baseline", j.config.Baseline,
	)

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	cmd := command.RunMatchmakingCommand{
		Baseline:      j.config.Baseline,
		CorrelationID: fmt.Sprintf("scheduled-%d", startedAt.Unix()),
	}

	result, err := retry.DoWithData(ctx, func(ctx context.Context) (*command.RunMatchmakingResult, error) {
		return j.runHandler.Handle(ctx, cmd)
	},
		retry.WithMaxAttempts(j.config.RetryAttempts),
		retry.WithInitialDelay(time.Second),
		retry.WithMaxDelay(30*time.Second),
		// A bad baseline never fixes itself, everything else is worth retrying.
		retry.WithRetryIf(func(err error) bool {
			return !errors.Is(err, shared.ErrValueOutOfRange)
		}),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			j.logger.Warn("scheduled run failed, retrying",
				"attempt", attempt,
				"delay", delay.String(),
				"error", err,
			)
		}),
	)

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)

	if err != nil {
		stats.Err = err
		j.lastRunStats.Store(stats)
		return fmt.Errorf("scheduled matchmaking failed: %w", err)
	}

	stats.RunID = result.RunID
	stats.RosterSize = result.RosterSize
	stats.FriendPairs = result.FriendPairs
	stats.DatePairs = result.DatePairs
	stats.Groups = result.Groups
	j.lastRunStats.Store(stats)

	j.logger.Info("scheduled_matchmaking job completed",
		"run_id", result.RunID,
		"duration", stats.Duration.String(),
		"roster_size", result.RosterSize,
		"friend_pairs", result.FriendPairs,
		"date_pairs", result.DatePairs,
		"groups", result.Groups,
	)

	return nil
}

// LastRunStats returns statistics from the last scheduled run.
func (j *ScheduledMatchmakingJob) LastRunStats() *MatchmakingRunStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*MatchmakingRunStats)
}
