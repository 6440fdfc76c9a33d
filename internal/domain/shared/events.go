// Package shared contains common domain types, errors, and events
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Participant events
	EventParticipantRegistered EventType = "participant.registered"
	EventParticipantUpdated    EventType = "participant.updated"
	EventAnswersSubmitted      EventType = "participant.answers_submitted"

	// Matchmaking events
	EventMatchRunCompleted EventType = "matchmaking.run_completed"
	EventMatchRunFailed    EventType = "matchmaking.run_failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Participant Events
// ═══════════════════════════════════════════════════════════════════════════

// ParticipantRegisteredEvent is emitted when a new participant signs up.
type ParticipantRegisteredEvent struct {
	BaseEvent
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Grade     string `json:"grade"`
}

// Payload implements Event interface.
func (e ParticipantRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":      e.Email,
		"first_name": e.FirstName,
		"grade":      e.Grade,
	}
}

// NewParticipantRegisteredEvent creates a new ParticipantRegisteredEvent.
func NewParticipantRegisteredEvent(participantID, email, firstName, grade string) ParticipantRegisteredEvent {
	return ParticipantRegisteredEvent{
		BaseEvent: NewBaseEvent(EventParticipantRegistered, participantID),
		Email:     email,
		FirstName: firstName,
		Grade:     grade,
	}
}

// ParticipantUpdatedEvent is emitted when an existing participant signs up
// again and refreshes their profile.
type ParticipantUpdatedEvent struct {
	BaseEvent
	Email string `json:"email"`
}

// Payload implements Event interface.
func (e ParticipantUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email": e.Email,
	}
}

// NewParticipantUpdatedEvent creates a new ParticipantUpdatedEvent.
func NewParticipantUpdatedEvent(participantID, email string) ParticipantUpdatedEvent {
	return ParticipantUpdatedEvent{
		BaseEvent: NewBaseEvent(EventParticipantUpdated, participantID),
		Email:     email,
	}
}

// AnswersSubmittedEvent is emitted when a participant completes the quiz.
type AnswersSubmittedEvent struct {
	BaseEvent
	Intent      string `json:"intent"`
	AnswerCount int    `json:"answer_count"`
}

// Payload implements Event interface.
func (e AnswersSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"intent":       e.Intent,
		"answer_count": e.AnswerCount,
	}
}

// NewAnswersSubmittedEvent creates a new AnswersSubmittedEvent.
func NewAnswersSubmittedEvent(participantID, intent string, answerCount int) AnswersSubmittedEvent {
	return AnswersSubmittedEvent{
		BaseEvent:   NewBaseEvent(EventAnswersSubmitted, participantID),
		Intent:      intent,
		AnswerCount: answerCount,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Matchmaking Events
// ═══════════════════════════════════════════════════════════════════════════

// MatchRunCompletedEvent is emitted when a matchmaking run finishes and its
// result has been persisted. Subscribers use it to warm caches.
type MatchRunCompletedEvent struct {
	BaseEvent
	RunID       string  `json:"run_id"`
	Baseline    float64 `json:"baseline"`
	RosterSize  int     `json:"roster_size"`
	FriendPairs int     `json:"friend_pairs"`
	DatePairs   int     `json:"date_pairs"`
	Groups      int     `json:"groups"`
}

// Payload implements Event interface.
func (e MatchRunCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"run_id":       e.RunID,
		"baseline":     e.Baseline,
		"roster_size":  e.RosterSize,
		"friend_pairs": e.FriendPairs,
		"date_pairs":   e.DatePairs,
		"groups":       e.Groups,
	}
}

// NewMatchRunCompletedEvent creates a new MatchRunCompletedEvent.
func NewMatchRunCompletedEvent(runID string, baseline float64, rosterSize, friendPairs, datePairs, groups int) MatchRunCompletedEvent {
	return MatchRunCompletedEvent{
		BaseEvent:   NewBaseEvent(EventMatchRunCompleted, runID),
		RunID:       runID,
		Baseline:    baseline,
		RosterSize:  rosterSize,
		FriendPairs: friendPairs,
		DatePairs:   datePairs,
		Groups:      groups,
	}
}

// MatchRunFailedEvent is emitted when a matchmaking run cannot complete.
type MatchRunFailedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// Payload implements Event interface.
func (e MatchRunFailedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"reason": e.Reason,
	}
}

// NewMatchRunFailedEvent creates a new MatchRunFailedEvent.
func NewMatchRunFailedEvent(runID, reason string) MatchRunFailedEvent {
	return MatchRunFailedEvent{
		BaseEvent: NewBaseEvent(EventMatchRunFailed, runID),
		Reason:    reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
