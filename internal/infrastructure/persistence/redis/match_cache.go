package redis

import (
	"context"
	"errors"

	"github.com/emma-hub/emma-backend/internal/domain/matchrun"
	"github.com/emma-hub/emma-backend/internal/infrastructure/metrics"
)

// MatchCache caches matchmaking results using the generic Redis Cache.
// The latest run is stored whole, and per-participant views are warmed
// after each run so GET /api/my-match never has to scan the full result.
type MatchCache struct {
	cache *Cache
}

// NewMatchCache creates a new MatchCache.
func NewMatchCache(cache *Cache) *MatchCache {
	return &MatchCache{
		cache: cache,
	}
}

// GetLatest gets the latest match run from cache.
func (m *MatchCache) GetLatest(ctx context.Context) (*matchrun.MatchRun, error) {
	var run matchrun.MatchRun
	if err := m.cache.Get(ctx, LatestRunKey(), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// SetLatest stores the latest match run in cache.
func (m *MatchCache) SetLatest(ctx context.Context, run *matchrun.MatchRun) error {
	if run == nil {
		return nil
	}
	if err := m.cache.Set(ctx, LatestRunKey(), run, TTLMatchCache); err != nil {
		return err
	}
	return m.cache.Set(ctx, MatchRunKey(run.ID), run, TTLMatchCache)
}

// GetMyMatch gets a participant's match view from cache.
func (m *MatchCache) GetMyMatch(ctx context.Context, participantID string) (*matchrun.ParticipantView, error) {
	var view matchrun.ParticipantView
	if err := m.cache.Get(ctx, MyMatchKey(participantID), &view); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			metrics.RecordCacheMiss()
		}
		return nil, err
	}
	metrics.RecordCacheHit()
	return &view, nil
}

// SetMyMatch stores a participant's match view in cache.
func (m *MatchCache) SetMyMatch(ctx context.Context, participantID string, view *matchrun.ParticipantView) error {
	if view == nil {
		return nil
	}
	return m.cache.Set(ctx, MyMatchKey(participantID), view, TTLMyMatchCache)
}

// InvalidateViews drops all per-participant views. Called before warming the
// cache for a new run so stale pairings never survive a rerun.
func (m *MatchCache) InvalidateViews(ctx context.Context) error {
	return m.cache.DeleteByPattern(ctx, PrefixMyMatch+"*")
}

// InvalidateAll clears everything the match cache owns.
func (m *MatchCache) InvalidateAll(ctx context.Context) error {
	if err := m.cache.DeleteByPattern(ctx, PrefixMatchRun+"*"); err != nil {
		return err
	}
	return m.cache.DeleteByPattern(ctx, PrefixMyMatch+"*")
}
