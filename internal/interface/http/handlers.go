// Package http implements the REST API for Emma Hub.
package http

import (
	"errors"
	"net/http"

	"github.com/emma-hub/emma-backend/internal/application/command"
	"github.com/emma-hub/emma-backend/internal/application/query"
	"github.com/emma-hub/emma-backend/internal/domain/matchrun"
	"github.com/emma-hub/emma-backend/internal/domain/participant"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
	"github.com/emma-hub/emma-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Emma Hub API",
		"version":     "v1",
		"description": "Matchmaking backend for the Emma Hub compatibility quiz",
		"endpoints": map[string]string{
			"health":      "/health",
			"check_email": "/api/check-email",
			"signup":      "/api/signup",
			"submit":      "/api/submit",
			"my_match":    "/api/my-match",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPANT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCheckEmail handles GET /api/check-email?email=
func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	if s.deps.CheckEmailHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Check email handler not configured")
		return
	}

	email := getQueryParam(r, "email", "")
	if email == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "email query parameter is required")
		return
	}

	result, err := s.deps.CheckEmailHandler.Handle(r.Context(), query.CheckEmailQuery{Email: email})
	if err != nil {
		if errors.Is(err, participant.ErrInvalidEmail) {
			writeJSONError(w, http.StatusBadRequest, "invalid_email", "Email address is not valid")
			return
		}
		s.logger.Error("failed to check email", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to check email")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSignup handles POST /api/signup
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if s.deps.RegisterParticipantHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Signup handler not configured")
		return
	}

	var req SignupRequest
	if err := s.validate.decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cmd := command.RegisterParticipantCommand{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Grade:            req.Grade,
		Gender:           req.Gender,
		PreferredGenders: req.PreferredGenders,
		CorrelationID:    getRequestID(r.Context()),
	}

	result, err := s.deps.RegisterParticipantHandler.Handle(r.Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, participant.ErrInvalidEmail), errors.Is(err, participant.ErrMissingFields):
			writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			s.logger.Error("failed to register participant", logger.Err(err), logger.Email(req.Email))
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to register participant")
		}
		return
	}

	// Repeat signup with a known email refreshes the profile.
	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// handleSubmit handles POST /api/submit
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitAnswersHandler == nil || s.deps.CheckEmailHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Submit handler not configured")
		return
	}

	var req SubmitRequest
	if err := s.validate.decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	answers, err := req.ParsedAnswers()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	// Participants submit by email; resolve the internal id first.
	check, err := s.deps.CheckEmailHandler.Handle(r.Context(), query.CheckEmailQuery{Email: req.Email})
	if err != nil {
		if errors.Is(err, participant.ErrInvalidEmail) {
			writeJSONError(w, http.StatusBadRequest, "invalid_email", "Email address is not valid")
			return
		}
		s.logger.Error("failed to resolve participant", logger.Err(err), logger.Email(req.Email))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to resolve participant")
		return
	}
	if !check.Registered {
		writeJSONError(w, http.StatusNotFound, "not_registered", "No participant with this email, sign up first")
		return
	}

	cmd := command.SubmitAnswersCommand{
		ParticipantID: check.ParticipantID,
		Intent:        req.Intent,
		Answers:       answers,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.SubmitAnswersHandler.Handle(r.Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, participant.ErrNotEnoughAnswers), errors.Is(err, participant.ErrMissingFields):
			writeJSONError(w, http.StatusBadRequest, "invalid_submission", err.Error())
		case errors.Is(err, participant.ErrAlreadySubmitted):
			writeJSONError(w, http.StatusConflict, "submission_in_progress", "A submission for this participant is already being processed")
		case errors.Is(err, participant.ErrNotFound):
			writeJSONError(w, http.StatusNotFound, "not_registered", "Participant not found")
		default:
			s.logger.Error("failed to submit answers", logger.Err(err), logger.ParticipantID(check.ParticipantID))
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to submit answers")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetUser handles GET /api/user/{id}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetParticipantHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "User handler not configured")
		return
	}

	participantID := r.PathValue("id")
	if participantID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Participant ID is required")
		return
	}

	result, err := s.deps.GetParticipantHandler.Handle(r.Context(), query.GetParticipantQuery{
		ParticipantID: participantID,
	})
	if err != nil {
		// A malformed ID identifies nobody, same as an unknown one.
		if errors.Is(err, participant.ErrNotFound) || shared.IsNotFound(err) || errors.Is(err, shared.ErrInvalidFormat) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Participant not found")
			return
		}
		s.logger.Error("failed to get participant", logger.Err(err), logger.ParticipantID(participantID))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get participant")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleMyMatch handles GET /api/my-match?email=
func (s *Server) handleMyMatch(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetMyMatchHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Match handler not configured")
		return
	}

	q := query.GetMyMatchQuery{
		Email:         getQueryParam(r, "email", ""),
		ParticipantID: getQueryParam(r, "participant_id", ""),
	}
	if q.Email == "" && q.ParticipantID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "email or participant_id query parameter is required")
		return
	}

	result, err := s.deps.GetMyMatchHandler.Handle(r.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, participant.ErrNotFound):
			writeJSONError(w, http.StatusNotFound, "not_registered", "Participant not found")
		case errors.Is(err, participant.ErrInvalidEmail):
			writeJSONError(w, http.StatusBadRequest, "invalid_email", "Email address is not valid")
		case errors.Is(err, matchrun.ErrNotFound):
			writeJSONError(w, http.StatusNotFound, "no_match_run", "Matchmaking has not been run yet")
		case errors.Is(err, query.ErrNotMatched):
			writeJSONError(w, http.StatusNotFound, "not_matched", "You were not matched in the latest run")
		default:
			s.logger.Error("failed to get match", logger.Err(err))
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get match")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRunMatchmaking handles POST /api/run-matchmaking
func (s *Server) handleRunMatchmaking(w http.ResponseWriter, r *http.Request) {
	if s.deps.RunMatchmakingHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Matchmaking handler not configured")
		return
	}

	var req RunMatchmakingRequest
	if err := s.validate.decodeEmptyOK(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cmd := command.RunMatchmakingCommand{
		Baseline:      req.BaselineOrDefault(s.config.DefaultBaseline),
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.RunMatchmakingHandler.Handle(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, shared.ErrValueOutOfRange) {
			writeJSONError(w, http.StatusBadRequest, "invalid_baseline", "Baseline must be within [0, 1]")
			return
		}
		s.logger.Error("matchmaking run failed", logger.Err(err))
		writeJSONErrorWithDetails(w, http.StatusInternalServerError, "run_failed", "Matchmaking run failed", err.Error())
		return
	}

	s.logger.Info("matchmaking run completed via API",
		logger.RunID(result.RunID),
		logger.Baseline(result.Baseline),
		logger.RosterSize(result.RosterSize),
	)

	writeJSON(w, http.StatusOK, result)
}
