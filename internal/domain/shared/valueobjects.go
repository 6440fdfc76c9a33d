// Package shared contains common domain types, errors, and events
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// ParticipantID represents a unique participant identifier (UUID format).
type ParticipantID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the participant ID is a valid UUID.
func (p ParticipantID) IsValid() bool {
	return uuidRegex.MatchString(string(p))
}

// String returns the string representation.
func (p ParticipantID) String() string {
	return string(p)
}

// IsEmpty checks if the ID is empty.
func (p ParticipantID) IsEmpty() bool {
	return p == ""
}

// NewParticipantID creates a new ParticipantID with validation.
func NewParticipantID(id string) (ParticipantID, error) {
	pid := ParticipantID(strings.ToLower(strings.TrimSpace(id)))
	if !pid.IsValid() {
		return "", NewDomainError("shared", "NewParticipantID", ErrInvalidFormat, "invalid participant ID format")
	}
	return pid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Baseline Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Baseline represents the minimum similarity score required to form a pair.
type Baseline float64

const (
	MinBaseline Baseline = 0.0
	MaxBaseline Baseline = 1.0
)

// IsValid checks if the baseline is within [0, 1].
func (b Baseline) IsValid() bool {
	return b >= MinBaseline && b <= MaxBaseline
}

// Float64 returns the underlying float64 value.
func (b Baseline) Float64() float64 {
	return float64(b)
}

// NewBaseline creates a new Baseline with validation.
func NewBaseline(value float64) (Baseline, error) {
	b := Baseline(value)
	if !b.IsValid() {
		return 0, NewDomainError("shared", "NewBaseline", ErrValueOutOfRange, "baseline must be between 0 and 1")
	}
	return b, nil
}
