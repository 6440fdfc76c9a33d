package redis

import (
	"context"
)

// SubmissionGuard prevents concurrent quiz submissions for the same
// participant. Acquire uses SET NX with a short TTL, so a crashed request
// releases the lock automatically.
type SubmissionGuard struct {
	cache *Cache
}

// NewSubmissionGuard creates a new SubmissionGuard.
func NewSubmissionGuard(cache *Cache) *SubmissionGuard {
	return &SubmissionGuard{
		cache: cache,
	}
}

// Acquire tries to take the submission lock for a participant.
// Returns false if a submission is already in flight.
func (g *SubmissionGuard) Acquire(ctx context.Context, participantID string) (bool, error) {
	return g.cache.SetNX(ctx, SubmissionGuardKey(participantID), 1, TTLSubmissionGuard)
}

// Release frees the submission lock.
func (g *SubmissionGuard) Release(ctx context.Context, participantID string) error {
	return g.cache.Delete(ctx, SubmissionGuardKey(participantID))
}
