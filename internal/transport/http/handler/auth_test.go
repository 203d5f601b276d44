package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidyasetu/auth-api/internal/application/flow"
	"github.com/vidyasetu/auth-api/internal/domain"
)

// --- stubs ---

type stubOtp struct {
	requestFn func(ctx context.Context, identifier string) error
	verifyFn  func(ctx context.Context, identifier, code string) (domain.VerifiedIdentity, error)
}

func (s *stubOtp) Request(ctx context.Context, identifier string) error {
	if s.requestFn != nil {
		return s.requestFn(ctx, identifier)
	}
	return nil
}

func (s *stubOtp) Verify(ctx context.Context, identifier, code string) (domain.VerifiedIdentity, error) {
	if s.verifyFn != nil {
		return s.verifyFn(ctx, identifier, code)
	}
	return domain.VerifiedIdentity{IdentityID: "id1", Phone: "+91" + identifier}, nil
}

func (s *stubOtp) Discard(string) {}

type stubGuard struct {
	authorizeFn func(ctx context.Context, identity domain.VerifiedIdentity, expected domain.Role) (domain.Role, error)
}

func (s *stubGuard) Authorize(ctx context.Context, identity domain.VerifiedIdentity, expected domain.Role) (domain.Role, error) {
	if s.authorizeFn != nil {
		return s.authorizeFn(ctx, identity, expected)
	}
	return expected, nil
}

type stubProvisioner struct {
	created map[string]string
}

func (s *stubProvisioner) ValidateAttributes(domain.Role, map[string]string) error { return nil }

func (s *stubProvisioner) CreateIfAbsent(_ context.Context, _ domain.VerifiedIdentity, _ domain.Role, attrs map[string]string) error {
	s.created = attrs
	return nil
}

type stubSessions struct {
	err error
}

func (s *stubSessions) CreateSession(_ context.Context, identityID string, role domain.Role) (*domain.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Session{SessionID: "sess1", IdentityID: identityID, Role: role, Enable: true}, nil
}

type stubSigner struct{}

func (stubSigner) Sign(string, domain.Role, string) (string, error) { return "signed-token", nil }

// --- helpers ---

type authFixture struct {
	otp      *stubOtp
	guard    *stubGuard
	prov     *stubProvisioner
	sessions *stubSessions
	router   http.Handler
}

// newAuthFixture wires an AuthHandler onto the same route shape the real
// router uses, backed by stubbed collaborators.
func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		otp:      &stubOtp{},
		guard:    &stubGuard{},
		prov:     &stubProvisioner{},
		sessions: &stubSessions{},
	}
	deps := flow.Deps{Otp: f.otp, Guard: f.guard, Provisioner: f.prov, CallingCode: "+91"}
	h := NewAuthHandler(flow.NewRegistry(time.Hour), deps, f.sessions, stubSigner{})

	r := chi.NewRouter()
	r.Post("/v1/auth/{role}/login", h.StartLogin)
	r.Post("/v1/auth/{role}/register", h.StartRegistration)
	r.Route("/v1/auth/attempts/{id}", func(r chi.Router) {
		r.Post("/captcha", h.RefreshCaptcha)
		r.Post("/otp", h.SendOtp)
		r.Post("/verify", h.Verify)
		r.Post("/identifier", h.ChangeMobile)
		r.Delete("/", h.Cancel)
	})
	f.router = r
	return f
}

func (f *authFixture) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, target, bytes.NewReader(b))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, r)
	return rr
}

func decodeAttempt(t *testing.T, rr *httptest.ResponseRecorder) AttemptEnvelope {
	t.Helper()
	var env AttemptEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

// --- start tests ---

func TestStartLogin_ReturnsAttemptWithCaptcha(t *testing.T) {
	f := newAuthFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/auth/student/login", nil)
	assert.Equal(t, http.StatusCreated, rr.Code)

	env := decodeAttempt(t, rr)
	assert.NotEmpty(t, env.AttemptID)
	assert.Equal(t, flow.StateCollectingIdentifier, env.State)
	assert.Len(t, env.Captcha, 6)
}

func TestStartLogin_UnknownRole(t *testing.T) {
	f := newAuthFixture(t)
	rr := f.do(t, http.MethodPost, "/v1/auth/teacher/login", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStartRegistration_AdminForbidden(t *testing.T) {
	f := newAuthFixture(t)
	rr := f.do(t, http.MethodPost, "/v1/auth/admin/register", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestStartRegistration_BeginsAtDetails(t *testing.T) {
	f := newAuthFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/auth/institution/register", nil)
	assert.Equal(t, http.StatusCreated, rr.Code)

	env := decodeAttempt(t, rr)
	assert.Equal(t, flow.StateCollectingDetails, env.State)
	assert.Empty(t, env.Captcha)
}

// --- attempt lifecycle tests ---

func TestSendOtp_UnknownAttempt(t *testing.T) {
	f := newAuthFixture(t)
	rr := f.do(t, http.MethodPost, "/v1/auth/attempts/nope/otp", SendOtpRequest{Mobile: "9876543210"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSendOtp_WrongCaptcha_RegeneratesChallenge(t *testing.T) {
	f := newAuthFixture(t)
	start := decodeAttempt(t, f.do(t, http.MethodPost, "/v1/auth/student/login", nil))

	rr := f.do(t, http.MethodPost, "/v1/auth/attempts/"+start.AttemptID+"/otp",
		SendOtpRequest{Mobile: "9876543210", Captcha: "______"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	env := decodeAttempt(t, rr)
	assert.NotEmpty(t, env.Error)
	assert.Len(t, env.Captcha, 6)
	assert.NotEqual(t, start.Captcha, env.Captcha)
}

func TestLogin_HappyPath_ReturnsBearer(t *testing.T) {
	f := newAuthFixture(t)
	start := decodeAttempt(t, f.do(t, http.MethodPost, "/v1/auth/student/login", nil))
	base := "/v1/auth/attempts/" + start.AttemptID

	rr := f.do(t, http.MethodPost, base+"/otp", SendOtpRequest{Mobile: "9876543210", Captcha: start.Captcha})
	require.Equal(t, http.StatusOK, rr.Code)
	env := decodeAttempt(t, rr)
	assert.Equal(t, flow.StateAwaitingOtp, env.State)
	assert.Equal(t, "+91 98******10", env.Mobile)

	rr = f.do(t, http.MethodPost, base+"/verify", VerifyRequest{Code: "123456"})
	require.Equal(t, http.StatusOK, rr.Code)
	var verdict VerdictEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&verdict))
	assert.Equal(t, flow.SignalAdmitted, verdict.Signal)
	assert.Equal(t, domain.RoleStudent, verdict.Role)
	assert.Equal(t, "signed-token", verdict.Bearer)
	require.NotNil(t, verdict.Session)
	assert.Equal(t, "id1", verdict.Session.IdentityID)

	// terminal attempts are dropped from the registry
	rr = f.do(t, http.MethodPost, base+"/verify", VerifyRequest{Code: "123456"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLogin_NoProfile_SignalsNeedsRegistration(t *testing.T) {
	f := newAuthFixture(t)
	f.guard.authorizeFn = func(context.Context, domain.VerifiedIdentity, domain.Role) (domain.Role, error) {
		return "", domain.ErrNoProfile
	}
	start := decodeAttempt(t, f.do(t, http.MethodPost, "/v1/auth/student/login", nil))
	base := "/v1/auth/attempts/" + start.AttemptID

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, base+"/otp",
		SendOtpRequest{Mobile: "9876543210", Captcha: start.Captcha}).Code)

	rr := f.do(t, http.MethodPost, base+"/verify", VerifyRequest{Code: "123456"})
	require.Equal(t, http.StatusOK, rr.Code)
	var verdict VerdictEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&verdict))
	assert.Equal(t, flow.SignalNeedsRegistration, verdict.Signal)
	assert.Equal(t, flow.ReasonNoProfile, verdict.Reason)
	assert.Empty(t, verdict.Bearer)
}

func TestLogin_RoleMismatch_Forbidden(t *testing.T) {
	f := newAuthFixture(t)
	f.guard.authorizeFn = func(context.Context, domain.VerifiedIdentity, domain.Role) (domain.Role, error) {
		return "", domain.ErrRoleMismatch
	}
	start := decodeAttempt(t, f.do(t, http.MethodPost, "/v1/auth/admin/login", nil))
	base := "/v1/auth/attempts/" + start.AttemptID

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, base+"/otp",
		SendOtpRequest{Mobile: "9876543210", Captcha: start.Captcha}).Code)

	rr := f.do(t, http.MethodPost, base+"/verify", VerifyRequest{Code: "123456"})
	require.Equal(t, http.StatusForbidden, rr.Code)
	var verdict VerdictEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&verdict))
	assert.Equal(t, flow.SignalRejected, verdict.Signal)
	assert.Equal(t, flow.ReasonRoleMismatch, verdict.Reason)
}

func TestLogin_WrongCode_AttemptStaysLive(t *testing.T) {
	f := newAuthFixture(t)
	f.otp.verifyFn = func(context.Context, string, string) (domain.VerifiedIdentity, error) {
		return domain.VerifiedIdentity{}, domain.ErrVerifyFailure
	}
	start := decodeAttempt(t, f.do(t, http.MethodPost, "/v1/auth/student/login", nil))
	base := "/v1/auth/attempts/" + start.AttemptID

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, base+"/otp",
		SendOtpRequest{Mobile: "9876543210", Captcha: start.Captcha}).Code)

	rr := f.do(t, http.MethodPost, base+"/verify", VerifyRequest{Code: "000000"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	// a later correct code still goes through
	f.otp.verifyFn = nil
	rr = f.do(t, http.MethodPost, base+"/verify", VerifyRequest{Code: "123456"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRegistration_HappyPath_Provisions(t *testing.T) {
	f := newAuthFixture(t)
	start := decodeAttempt(t, f.do(t, http.MethodPost, "/v1/auth/gram_panchayat/register", nil))
	base := "/v1/auth/attempts/" + start.AttemptID

	details := map[string]string{
		"panchayat_name": "Rampur",
		"panchayat_id":   "GP-042",
		"district":       "Varanasi",
		"state":          "Uttar Pradesh",
		"contact_person": "S. Devi",
	}
	rr := f.do(t, http.MethodPost, base+"/otp", SendOtpRequest{Mobile: "9876543210", Details: details})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodPost, base+"/verify", VerifyRequest{Code: "123456"})
	require.Equal(t, http.StatusOK, rr.Code)
	var verdict VerdictEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&verdict))
	assert.Equal(t, flow.SignalAdmitted, verdict.Signal)
	assert.Equal(t, domain.RoleGramPanchayat, verdict.Role)
	assert.Equal(t, details, f.prov.created)
}

func TestChangeMobile_ResetsToEntryStep(t *testing.T) {
	f := newAuthFixture(t)
	start := decodeAttempt(t, f.do(t, http.MethodPost, "/v1/auth/student/login", nil))
	base := "/v1/auth/attempts/" + start.AttemptID

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, base+"/otp",
		SendOtpRequest{Mobile: "9876543210", Captcha: start.Captcha}).Code)

	rr := f.do(t, http.MethodPost, base+"/identifier", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	env := decodeAttempt(t, rr)
	assert.Equal(t, flow.StateCollectingIdentifier, env.State)
	assert.Len(t, env.Captcha, 6)
	assert.Empty(t, env.Mobile)
}

func TestCancel_AttemptGone(t *testing.T) {
	f := newAuthFixture(t)
	start := decodeAttempt(t, f.do(t, http.MethodPost, "/v1/auth/student/login", nil))
	base := "/v1/auth/attempts/" + start.AttemptID

	rr := f.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodPost, base+"/otp", SendOtpRequest{Mobile: "9876543210", Captcha: start.Captcha})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestVerify_SessionStoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.sessions.err = errors.New("dynamo unavailable")
	start := decodeAttempt(t, f.do(t, http.MethodPost, "/v1/auth/student/login", nil))
	base := "/v1/auth/attempts/" + start.AttemptID

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, base+"/otp",
		SendOtpRequest{Mobile: "9876543210", Captcha: start.Captcha}).Code)

	rr := f.do(t, http.MethodPost, base+"/verify", VerifyRequest{Code: "123456"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
