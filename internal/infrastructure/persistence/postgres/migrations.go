// Package postgres implements PostgreSQL persistence layer for Emma Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PARTICIPANTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create participants table
-- Version: 001

-- Main participants table
CREATE TABLE IF NOT EXISTS participants (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(254) NOT NULL UNIQUE,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    grade VARCHAR(20) NOT NULL,
    gender VARCHAR(30) NOT NULL,
    preferred_genders TEXT[] NOT NULL DEFAULT '{}',
    intent VARCHAR(20),
    submitted_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_intent CHECK (intent IS NULL OR intent IN ('friend', 'date', 'group'))
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_participants_email ON participants(email);
CREATE INDEX IF NOT EXISTS idx_participants_created_at ON participants(created_at);
CREATE INDEX IF NOT EXISTS idx_participants_submitted ON participants(created_at) WHERE submitted_at IS NOT NULL;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ANSWERS AND SUBMISSIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create quiz answers and submission audit tables
-- Version: 002

-- Current answers, one row per (participant, question). Resubmission overwrites.
CREATE TABLE IF NOT EXISTS answers (
    participant_id UUID NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
    question_id INTEGER NOT NULL,
    answer TEXT NOT NULL,

    PRIMARY KEY (participant_id, question_id)
);

CREATE INDEX IF NOT EXISTS idx_answers_participant_id ON answers(participant_id);

-- Append-only audit of full submissions. Keeps a JSONB snapshot so we can
-- reconstruct what a participant submitted even after a resubmission.
CREATE TABLE IF NOT EXISTS participant_submissions (
    id SERIAL PRIMARY KEY,
    participant_id UUID NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
    intent VARCHAR(20) NOT NULL,
    answers JSONB NOT NULL,
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_submission_intent CHECK (intent IN ('friend', 'date', 'group'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_participant_id ON participant_submissions(participant_id);
CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON participant_submissions(submitted_at DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE MATCH RUNS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create match run history
-- Version: 003

-- Append-only history of matchmaking runs. The result column stores the full
-- payload (friends, dates, groups) as produced by the engine.
CREATE TABLE IF NOT EXISTS match_runs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    baseline DOUBLE PRECISION NOT NULL,
    result JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_baseline CHECK (baseline >= 0 AND baseline <= 1)
);

CREATE INDEX IF NOT EXISTS idx_match_runs_created_at ON match_runs(created_at DESC);
`

