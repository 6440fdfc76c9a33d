// Package postgres implements PostgreSQL persistence layer for Emma Hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/emma-hub/emma-backend/internal/domain/participant"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPANT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ParticipantRepository implements participant.Repository for PostgreSQL.
type ParticipantRepository struct {
	conn *Connection
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(conn *Connection) *ParticipantRepository {
	return &ParticipantRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new participant.
func (r *ParticipantRepository) Create(ctx context.Context, p *participant.Participant) error {
	query := `
		INSERT INTO participants (
			id, email, first_name, last_name, grade, gender,
			preferred_genders, intent, submitted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID,
		p.Email.String(),
		p.FirstName,
		p.LastName,
		p.Grade.String(),
		p.Gender,
		p.PreferredGenders,
		p.Intent,
		p.SubmittedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return participant.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}

	return nil
}

// Update updates a participant's registration profile.
func (r *ParticipantRepository) Update(ctx context.Context, p *participant.Participant) error {
	query := `
		UPDATE participants SET
			email = $1,
			first_name = $2,
			last_name = $3,
			grade = $4,
			gender = $5,
			preferred_genders = $6,
			updated_at = $7
		WHERE id = $8
	`

	result, err := r.conn.Exec(ctx, query,
		p.Email.String(),
		p.FirstName,
		p.LastName,
		p.Grade.String(),
		p.Gender,
		p.PreferredGenders,
		time.Now().UTC(),
		p.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return participant.ErrAlreadyExists
		}
		return fmt.Errorf("failed to update participant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return participant.ErrNotFound
	}

	return nil
}

// GetByID returns a participant by internal ID, with quiz answers attached.
func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*participant.Participant, error) {
	query := `
		SELECT id, email, first_name, last_name, grade, gender,
			   preferred_genders, COALESCE(intent, ''), submitted_at, created_at, updated_at
		FROM participants
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	p, err := r.scanParticipant(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadAnswers(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// GetByEmail returns a participant by normalized email, with quiz answers attached.
func (r *ParticipantRepository) GetByEmail(ctx context.Context, email participant.Email) (*participant.Participant, error) {
	query := `
		SELECT id, email, first_name, last_name, grade, gender,
			   preferred_genders, COALESCE(intent, ''), submitted_at, created_at, updated_at
		FROM participants
		WHERE email = $1
	`

	row := r.conn.QueryRow(ctx, query, email.String())
	p, err := r.scanParticipant(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadAnswers(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Quiz Submission
// ─────────────────────────────────────────────────────────────────────────────

// SaveSubmission stores a full quiz submission in a single transaction:
// the current answers are replaced, the participant row gets the intent and
// timestamp, and an append-only audit snapshot is recorded.
func (r *ParticipantRepository) SaveSubmission(ctx context.Context, p *participant.Participant, submittedAt time.Time) error {
	snapshot, err := answersToJSON(p.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers snapshot: %w", err)
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM answers WHERE participant_id = $1", p.ID); err != nil {
			return fmt.Errorf("failed to clear previous answers: %w", err)
		}

		insertAnswer := `
			INSERT INTO answers (participant_id, question_id, answer)
			VALUES ($1, $2, $3)
		`
		for questionID, answer := range p.Answers {
			if _, err := tx.Exec(ctx, insertAnswer, p.ID, questionID, answer); err != nil {
				return fmt.Errorf("failed to insert answer %d: %w", questionID, err)
			}
		}

		updateParticipant := `
			UPDATE participants
			SET intent = $1, submitted_at = $2, updated_at = $3
			WHERE id = $4
		`
		result, err := tx.Exec(ctx, updateParticipant, p.Intent, submittedAt, submittedAt, p.ID)
		if err != nil {
			return fmt.Errorf("failed to update participant submission: %w", err)
		}
		if result.RowsAffected() == 0 {
			return participant.ErrNotFound
		}

		insertAudit := `
			INSERT INTO participant_submissions (participant_id, intent, answers, submitted_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.Exec(ctx, insertAudit, p.ID, p.Intent, snapshot, submittedAt); err != nil {
			return fmt.Errorf("failed to record submission audit: %w", err)
		}

		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Roster
// ─────────────────────────────────────────────────────────────────────────────

// ListCompleted returns all participants with a completed quiz, with answers
// attached, in stable registration order.
func (r *ParticipantRepository) ListCompleted(ctx context.Context) ([]*participant.Participant, error) {
	query := `
		SELECT id, email, first_name, last_name, grade, gender,
			   preferred_genders, COALESCE(intent, ''), submitted_at, created_at, updated_at
		FROM participants
		WHERE submitted_at IS NOT NULL
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed participants: %w", err)
	}
	defer rows.Close()

	participants, err := r.scanParticipants(rows)
	if err != nil {
		return nil, err
	}

	if len(participants) == 0 {
		return participants, nil
	}

	if err := r.loadAllAnswers(ctx, participants); err != nil {
		return nil, err
	}

	return participants, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// scanParticipant scans a single participant from a row.
func (r *ParticipantRepository) scanParticipant(row pgx.Row) (*participant.Participant, error) {
	var p participant.Participant
	var email, grade string

	err := row.Scan(
		&p.ID,
		&email,
		&p.FirstName,
		&p.LastName,
		&grade,
		&p.Gender,
		&p.PreferredGenders,
		&p.Intent,
		&p.SubmittedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, participant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan participant: %w", err)
	}

	p.Email = participant.Email(email)
	p.Grade = participant.Grade(grade)
	p.Answers = make(map[int]string)

	return &p, nil
}

// scanParticipants scans multiple participants from rows.
func (r *ParticipantRepository) scanParticipants(rows pgx.Rows) ([]*participant.Participant, error) {
	var participants []*participant.Participant

	for rows.Next() {
		var p participant.Participant
		var email, grade string

		err := rows.Scan(
			&p.ID,
			&email,
			&p.FirstName,
			&p.LastName,
			&grade,
			&p.Gender,
			&p.PreferredGenders,
			&p.Intent,
			&p.SubmittedAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}

		p.Email = participant.Email(email)
		p.Grade = participant.Grade(grade)
		p.Answers = make(map[int]string)

		participants = append(participants, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return participants, nil
}

// loadAnswers loads quiz answers for a single participant.
func (r *ParticipantRepository) loadAnswers(ctx context.Context, p *participant.Participant) error {
	query := `
		SELECT question_id, answer
		FROM answers
		WHERE participant_id = $1
	`

	rows, err := r.conn.Query(ctx, query, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var questionID int
		var answer string
		if err := rows.Scan(&questionID, &answer); err != nil {
			return fmt.Errorf("failed to scan answer: %w", err)
		}
		p.Answers[questionID] = answer
	}

	return rows.Err()
}

// loadAllAnswers loads quiz answers for a batch of participants in one query.
func (r *ParticipantRepository) loadAllAnswers(ctx context.Context, participants []*participant.Participant) error {
	byID := make(map[string]*participant.Participant, len(participants))
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	query := `
		SELECT participant_id, question_id, answer
		FROM answers
		WHERE participant_id = ANY($1)
	`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var participantID, answer string
		var questionID int
		if err := rows.Scan(&participantID, &questionID, &answer); err != nil {
			return fmt.Errorf("failed to scan answer: %w", err)
		}
		if p, ok := byID[participantID]; ok {
			p.Answers[questionID] = answer
		}
	}

	return rows.Err()
}

// answersToJSON serializes the answers map with string question keys for JSONB.
func answersToJSON(answers map[int]string) ([]byte, error) {
	m := make(map[string]string, len(answers))
	for q, a := range answers {
		m[strconv.Itoa(q)] = a
	}
	return json.Marshal(m)
}
