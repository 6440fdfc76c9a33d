// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они реагируют на завершение
// прогонов подбора и запускают побочные эффекты вроде прогрева кешей.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/emma-hub/emma-backend/internal/domain/matchrun"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON MATCH RUN COMPLETED HANDLER
// Прогревает Redis после завершения прогона подбора: сбрасывает устаревшие
// персональные представления и записывает свежие, чтобы GET /api/my-match
// обслуживался из кеша без обращения к Postgres.
// ══════════════════════════════════════════════════════════════════════════════

// RunCache - часть кеша результатов, нужная для прогрева.
// Реализация - internal/infrastructure/persistence/redis.
type RunCache interface {
	SetLatest(ctx context.Context, run *matchrun.MatchRun) error
	SetMyMatch(ctx context.Context, participantID string, view *matchrun.ParticipantView) error
	InvalidateViews(ctx context.Context) error
}

// OnMatchRunCompletedHandler обрабатывает событие завершения прогона.
type OnMatchRunCompletedHandler struct {
	matchRepo matchrun.Repository
	cache     RunCache
	logger    *slog.Logger

	// WarmTimeout ограничивает длительность прогрева одного прогона.
	warmTimeout time.Duration
}

// NewOnMatchRunCompletedHandler создаёт новый обработчик.
func NewOnMatchRunCompletedHandler(
	matchRepo matchrun.Repository,
	cache RunCache,
	logger *slog.Logger,
) *OnMatchRunCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnMatchRunCompletedHandler{
		matchRepo:   matchRepo,
		cache:       cache,
		logger:      logger.With("handler", "on_match_run_completed"),
		warmTimeout: 30 * time.Second,
	}
}

// Handle обрабатывает событие завершения прогона.
// Реализует shared.EventHandler. Сбои прогрева не возвращаются наружу:
// кеш - ускорение, а не источник истины.
func (h *OnMatchRunCompletedHandler) Handle(event shared.Event) error {
	runEvent, ok := event.(shared.MatchRunCompletedEvent)
	if !ok {
		h.logger.Warn("received non-MatchRunCompletedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.warmTimeout)
	defer cancel()

	run, err := h.matchRepo.GetByID(ctx, runEvent.RunID)
	if err != nil {
		h.logger.Error("failed to load completed run for cache warming",
			"run_id", runEvent.RunID,
			"error", err,
		)
		return nil
	}

	if err := h.cache.InvalidateViews(ctx); err != nil {
		h.logger.Warn("failed to invalidate stale match views",
			"run_id", run.ID,
			"error", err,
		)
	}

	if err := h.cache.SetLatest(ctx, run); err != nil {
		h.logger.Warn("failed to cache latest run",
			"run_id", run.ID,
			"error", err,
		)
		return nil
	}

	warmed := h.warmViews(ctx, run)

	h.logger.Info("match run cache warmed",
		"run_id", run.ID,
		"friend_pairs", runEvent.FriendPairs,
		"date_pairs", runEvent.DatePairs,
		"groups", runEvent.Groups,
		"views_warmed", warmed,
	)

	return nil
}

// warmViews записывает персональное представление для каждого участника прогона.
func (h *OnMatchRunCompletedHandler) warmViews(ctx context.Context, run *matchrun.MatchRun) int {
	if run.Result == nil {
		return 0
	}

	ids := make([]string, 0)
	for _, pair := range run.Result.FriendPairs {
		ids = append(ids, pair.A, pair.B)
	}
	for _, pair := range run.Result.DatePairs {
		ids = append(ids, pair.A, pair.B)
	}
	for _, group := range run.Result.Groups {
		ids = append(ids, group.Members...)
	}

	warmed := 0
	for _, id := range ids {
		view, ok := run.ViewFor(id)
		if !ok {
			continue
		}
		if err := h.cache.SetMyMatch(ctx, id, view); err != nil {
			h.logger.Warn("failed to warm match view",
				"participant_id", id,
				"error", err,
			)
			continue
		}
		warmed++
	}

	return warmed
}
