package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vidyasetu/auth-api/internal/application/flow"
	"github.com/vidyasetu/auth-api/internal/domain"
)

// sessionIssuer records admitted identities and mints their tokens.
type sessionIssuer interface {
	CreateSession(ctx context.Context, identityID string, role domain.Role) (*domain.Session, error)
}

type tokenSigner interface {
	Sign(identityID string, role domain.Role, sessionID string) (string, error)
}

// AuthHandler drives authentication attempts over HTTP. Each attempt is a
// server-side state machine held in the registry; the handler translates
// requests into machine events and machine outcomes into responses.
type AuthHandler struct {
	registry *flow.Registry
	deps     flow.Deps
	sessions sessionIssuer
	signer   tokenSigner
}

func NewAuthHandler(registry *flow.Registry, deps flow.Deps, sessions sessionIssuer, signer tokenSigner) *AuthHandler {
	return &AuthHandler{registry: registry, deps: deps, sessions: sessions, signer: signer}
}

// StartLogin opens a login attempt for the role in the path. The response
// carries the attempt ID and the captcha token for the entry form.
func (h *AuthHandler) StartLogin(w http.ResponseWriter, r *http.Request) {
	role, err := domain.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	c := flow.NewLogin(role, h.deps)
	attemptID := h.registry.Add(c)
	writeJSON(w, http.StatusCreated, AttemptEnvelope{AttemptID: attemptID, Snapshot: c.Snapshot()})
}

// StartRegistration opens a registration attempt. Admin accounts are never
// self-registered.
func (h *AuthHandler) StartRegistration(w http.ResponseWriter, r *http.Request) {
	role, err := domain.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	if role == domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin accounts cannot be self-registered")
		return
	}
	c := flow.NewRegistration(role, h.deps)
	attemptID := h.registry.Add(c)
	writeJSON(w, http.StatusCreated, AttemptEnvelope{AttemptID: attemptID, Snapshot: c.Snapshot()})
}

// RefreshCaptcha regenerates the attempt's captcha on user request.
func (h *AuthHandler) RefreshCaptcha(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := c.RefreshCaptcha(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AttemptEnvelope{Snapshot: c.Snapshot()})
}

// SendOtpRequest is the entry-form submission. Login attempts carry the
// captcha answer; registration attempts carry the role attribute form.
type SendOtpRequest struct {
	Mobile  string            `json:"mobile"`
	Captcha string            `json:"captcha,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// SendOtp submits the entry form and requests code delivery. On success the
// attempt advances to the code-entry step.
func (h *AuthHandler) SendOtp(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req SendOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch c.Kind() {
	case flow.KindLogin:
		err = c.SubmitIdentifier(r.Context(), req.Mobile, req.Captcha)
	case flow.KindRegistration:
		err = c.SubmitDetails(r.Context(), req.Mobile, req.Details)
	}
	if errors.Is(err, domain.ErrCaptchaMismatch) {
		// The challenge was regenerated; hand the fresh token back with the error.
		writeJSON(w, http.StatusBadRequest, AttemptEnvelope{Snapshot: c.Snapshot(), Error: err.Error()})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AttemptEnvelope{Snapshot: c.Snapshot()})
}

// VerifyRequest carries the code the user received.
type VerifyRequest struct {
	Code string `json:"code"`
}

// Verify submits the OTP. A terminal decision removes the attempt from the
// registry; a recoverable failure leaves it at the code-entry step.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "id")
	c, err := h.registry.Get(attemptID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	decision, err := c.SubmitCode(r.Context(), req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.registry.Remove(attemptID)

	switch decision.Signal {
	case flow.SignalAdmitted:
		sess, err := h.sessions.CreateSession(r.Context(), decision.Identity.IdentityID, decision.Role)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		bearer, err := h.signer.Sign(sess.IdentityID, sess.Role, sess.SessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, VerdictEnvelope{
			Signal:  decision.Signal,
			Role:    decision.Role,
			Bearer:  bearer,
			Session: sess,
		})
	case flow.SignalNeedsRegistration:
		writeJSON(w, http.StatusOK, VerdictEnvelope{
			Signal:  decision.Signal,
			Reason:  decision.Reason,
			Message: "no account found for this mobile number, please register first",
		})
	case flow.SignalRejected:
		writeJSON(w, http.StatusForbidden, VerdictEnvelope{
			Signal:  decision.Signal,
			Reason:  decision.Reason,
			Message: "this mobile number is not registered for this role",
		})
	}
}

// ChangeMobile returns the attempt to its entry step so a different number can
// be submitted.
func (h *AuthHandler) ChangeMobile(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := c.ChangeIdentifier(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AttemptEnvelope{Snapshot: c.Snapshot()})
}

// Cancel destroys the attempt.
func (h *AuthHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.registry.Remove(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "attempt cancelled"})
}
