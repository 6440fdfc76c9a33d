// Package postgres implements PostgreSQL persistence layer for Emma Hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emma-hub/emma-backend/internal/domain/matchmaking"
	"github.com/emma-hub/emma-backend/internal/domain/matchrun"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH RUN REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MatchRunRepository implements matchrun.Repository for PostgreSQL.
// Runs are append-only: every matchmaking execution writes a new row and
// queries always read the most recent one.
type MatchRunRepository struct {
	conn *Connection
}

// NewMatchRunRepository creates a new MatchRunRepository.
func NewMatchRunRepository(conn *Connection) *MatchRunRepository {
	return &MatchRunRepository{conn: conn}
}

// Create appends a completed run to the history.
func (r *MatchRunRepository) Create(ctx context.Context, run *matchrun.MatchRun) error {
	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal match result: %w", err)
	}

	query := `
		INSERT INTO match_runs (id, baseline, result, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = r.conn.Exec(ctx, query, run.ID, run.Baseline, resultJSON, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match run: %w", err)
	}

	return nil
}

// Latest returns the most recent run, or matchrun.ErrNotFound if no run
// has been executed yet.
func (r *MatchRunRepository) Latest(ctx context.Context) (*matchrun.MatchRun, error) {
	query := `
		SELECT id, baseline, result, created_at
		FROM match_runs
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	row := r.conn.QueryRow(ctx, query)
	return r.scanMatchRun(row)
}

// GetByID returns a specific run.
func (r *MatchRunRepository) GetByID(ctx context.Context, id string) (*matchrun.MatchRun, error) {
	query := `
		SELECT id, baseline, result, created_at
		FROM match_runs
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanMatchRun(row)
}

// scanMatchRun scans a single run from a row.
func (r *MatchRunRepository) scanMatchRun(row pgx.Row) (*matchrun.MatchRun, error) {
	var run matchrun.MatchRun
	var resultJSON []byte

	err := row.Scan(&run.ID, &run.Baseline, &resultJSON, &run.CreatedAt)

	if IsNoRows(err) {
		return nil, matchrun.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan match run: %w", err)
	}

	var result matchmaking.MatchResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match result: %w", err)
	}
	run.Result = &result

	return &run, nil
}
