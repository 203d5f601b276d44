package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidyasetu/auth-api/internal/application/flow"
	"github.com/vidyasetu/auth-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// AttemptEnvelope wraps authentication-attempt responses. The embedded
// snapshot carries the current step, the captcha token, and the masked mobile.
type AttemptEnvelope struct {
	AttemptID string `json:"attempt_id,omitempty"`
	flow.Snapshot
	Error string `json:"error,omitempty"`
}

// VerdictEnvelope wraps the outcome of a code submission.
type VerdictEnvelope struct {
	Signal  flow.Signal       `json:"signal"`
	Role    domain.Role       `json:"role,omitempty"`
	Reason  flow.RejectReason `json:"reason,omitempty"`
	Bearer  string            `json:"Bearer,omitempty"`
	Session *domain.Session   `json:"session,omitempty"`
	Message string            `json:"message,omitempty"`
}

// ProfileEnvelope wraps profile responses.
type ProfileEnvelope struct {
	Profile *domain.Profile `json:"profile,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// statusFor maps domain sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCaptchaMismatch),
		errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSendFailure),
		errors.Is(err, domain.ErrVerifyFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAttemptDone):
		return http.StatusGone
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrProvision):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
