package handler

import (
	"context"
	"net/http"

	"github.com/vidyasetu/auth-api/internal/domain"
	"github.com/vidyasetu/auth-api/internal/transport/http/middleware"
)

type profileReader interface {
	ActiveSession(ctx context.Context, sessionID string) (*domain.Session, error)
	GetProfile(ctx context.Context, identityID string) (*domain.Profile, error)
}

// ProfileHandler serves the authenticated identity's profile.
type ProfileHandler struct {
	svc profileReader
}

func NewProfileHandler(svc profileReader) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Me returns the caller's own profile. The session is re-checked against the
// store so a forced sign-out takes effect before the token expires.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sess, err := h.svc.ActiveSession(r.Context(), claims.SessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	profile, err := h.svc.GetProfile(r.Context(), sess.IdentityID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Profile: profile})
}
