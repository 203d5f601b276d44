package handler

import (
	"context"
	"net/http"

	"github.com/vidyasetu/auth-api/internal/transport/http/middleware"
)

type sessionCloser interface {
	Logout(ctx context.Context, sessionID string) error
}

// SessionHandler handles session endpoints.
type SessionHandler struct {
	svc sessionCloser
}

func NewSessionHandler(svc sessionCloser) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Logout disables the caller's session.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Logout(r.Context(), claims.SessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}
