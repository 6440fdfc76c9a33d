package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// SignupRequest is the payload for POST /api/signup.
type SignupRequest struct {
	FirstName        string   `json:"first_name" validate:"required,max=100"`
	LastName         string   `json:"last_name" validate:"required,max=100"`
	Email            string   `json:"email" validate:"required,email,max=254"`
	Grade            string   `json:"grade" validate:"required,max=20"`
	Gender           string   `json:"gender" validate:"max=30"`
	PreferredGenders []string `json:"preferred_genders" validate:"max=10,dive,max=30"`
}

// SubmitRequest is the payload for POST /api/submit.
// Answer keys are question numbers sent as JSON object keys.
type SubmitRequest struct {
	Email   string            `json:"email" validate:"required,email,max=254"`
	Intent  string            `json:"intent" validate:"required,max=20"`
	Answers map[string]string `json:"answers" validate:"required,min=1,dive,keys,max=10,endkeys,max=500"`
}

// ParsedAnswers converts the string-keyed answer map to question numbers.
func (r SubmitRequest) ParsedAnswers() (map[int]string, error) {
	answers := make(map[int]string, len(r.Answers))
	for key, value := range r.Answers {
		q, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("answer key %q is not a question number", key)
		}
		answers[q] = value
	}
	return answers, nil
}

// RunMatchmakingRequest is the payload for POST /api/run-matchmaking.
// Baseline falls back to the configured default when the body omits it.
type RunMatchmakingRequest struct {
	Baseline *float64 `json:"baseline" validate:"omitempty,min=0,max=1"`
}

// BaselineOrDefault returns the requested baseline, or fallback when absent.
func (r RunMatchmakingRequest) BaselineOrDefault(fallback float64) float64 {
	if r.Baseline == nil {
		return fallback
	}
	return *r.Baseline
}

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// requestValidator decodes and validates JSON request bodies.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// decodeAndValidate reads the request body into dst and validates it.
// The returned error message is safe to show to the client.
func (v *requestValidator) decodeAndValidate(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON: %s", decodeErrorMessage(err))
	}

	if err := v.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errors.New(validationErrorMessage(verrs))
		}
		return err
	}

	return nil
}

// decodeEmptyOK is decodeAndValidate but tolerates an empty body.
func (v *requestValidator) decodeEmptyOK(r *http.Request, dst interface{}) error {
	err := v.decodeAndValidate(r, dst)
	if err != nil && err.Error() == "request body is required" {
		return nil
	}
	return err
}

// decodeErrorMessage turns json decode errors into client-safe text.
func decodeErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field %q has wrong type", typeErr.Field)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("syntax error at offset %d", syntaxErr.Offset)
	}

	return "malformed request body"
}

// validationErrorMessage renders the first validation failure.
func validationErrorMessage(verrs validator.ValidationErrors) string {
	if len(verrs) == 0 {
		return "validation failed"
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: friend, date, group", field)
	case "min":
		return fmt.Sprintf("%s is below the minimum of %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s exceeds the maximum of %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
