// Package directory implements the identity and directory service behind the
// authentication flow: OTP issuing and verification, the phone-to-identity
// mapping, profile storage, and session lifecycle. The flow components only
// see the narrow interfaces they each declare; this service satisfies all of
// them.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidyasetu/auth-api/internal/domain"
	"github.com/vidyasetu/auth-api/internal/pkg/id"
	"github.com/vidyasetu/auth-api/internal/pkg/otpcode"
	"golang.org/x/crypto/bcrypt"
)

type otpStore interface {
	Put(ctx context.Context, s *domain.OtpSession) error
	Get(ctx context.Context, phone string) (*domain.OtpSession, error)
	Delete(ctx context.Context, phone string) error
}

type identityStore interface {
	GetOrCreate(ctx context.Context, phone string) (*domain.IdentityLink, error)
}

type profileStore interface {
	Get(ctx context.Context, identityID string) (*domain.Profile, error)
	InsertIfAbsent(ctx context.Context, p *domain.Profile) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	DisableByIdentity(ctx context.Context, identityID string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Service is the concrete directory backend.
type Service struct {
	otpRepo      otpStore
	identityRepo identityStore
	profileRepo  profileStore
	sessionRepo  sessionStore
	sms          smsSender
	otpTTL       time.Duration
}

type ServiceDeps struct {
	OtpRepo      otpStore
	IdentityRepo identityStore
	ProfileRepo  profileStore
	SessionRepo  sessionStore
	SMSSender    smsSender
	OtpTTL       time.Duration
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		otpRepo:      deps.OtpRepo,
		identityRepo: deps.IdentityRepo,
		profileRepo:  deps.ProfileRepo,
		sessionRepo:  deps.SessionRepo,
		sms:          deps.SMSSender,
		otpTTL:       deps.OtpTTL,
	}
}

// SendOtp issues a fresh six-digit code for the phone, stores its bcrypt hash
// with a TTL, and delivers it over SMS. A repeated send replaces the previous
// code.
func (s *Service) SendOtp(ctx context.Context, e164Phone string) error {
	code, err := otpcode.Numeric(6)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	sess := &domain.OtpSession{
		Phone:     e164Phone,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(s.otpTTL).Unix(),
	}
	if err := s.otpRepo.Put(ctx, sess); err != nil {
		return err
	}
	return s.sms.SendSMS(ctx, e164Phone, "Your verification code: "+code)
}

// VerifyOtp checks the submitted code against the stored hash. The stored
// session is consumed on success, so a code verifies at most once. Returns the
// stable identity handle for the phone, allocating one on first verification.
func (s *Service) VerifyOtp(ctx context.Context, e164Phone, code string) (string, error) {
	sess, err := s.otpRepo.Get(ctx, e164Phone)
	if err != nil {
		return "", fmt.Errorf("no active otp session: %w", domain.ErrVerifyFailure)
	}
	if sess.ExpiresAt < time.Now().Unix() {
		if derr := s.otpRepo.Delete(ctx, e164Phone); derr != nil {
			slog.Warn("failed to delete expired otp session", "phone", e164Phone, "err", derr)
		}
		return "", fmt.Errorf("otp expired: %w", domain.ErrVerifyFailure)
	}
	if bcrypt.CompareHashAndPassword([]byte(sess.CodeHash), []byte(code)) != nil {
		return "", fmt.Errorf("wrong otp: %w", domain.ErrVerifyFailure)
	}
	if err := s.otpRepo.Delete(ctx, e164Phone); err != nil {
		// Single use is a hard guarantee; refuse the verification rather than
		// leave a replayable code behind.
		return "", fmt.Errorf("consume otp session: %w", err)
	}
	link, err := s.identityRepo.GetOrCreate(ctx, e164Phone)
	if err != nil {
		return "", err
	}
	return link.IdentityID, nil
}

// SignOut disables every session held by the identity.
func (s *Service) SignOut(ctx context.Context, identityID string) error {
	return s.sessionRepo.DisableByIdentity(ctx, identityID)
}

// GetProfileRole returns the authoritative role for the identity, or
// ErrNoProfile when no profile exists.
func (s *Service) GetProfileRole(ctx context.Context, identityID string) (domain.Role, error) {
	p, err := s.profileRepo.Get(ctx, identityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("identity %s: %w", identityID, domain.ErrNoProfile)
		}
		return "", err
	}
	return p.Role, nil
}

// GetProfile returns the stored profile for the identity.
func (s *Service) GetProfile(ctx context.Context, identityID string) (*domain.Profile, error) {
	return s.profileRepo.Get(ctx, identityID)
}

// InsertProfileIfAbsent stores the profile unless one already exists for the
// identity. ErrConflict surfaces when a profile is present; callers decide
// whether that is an error.
func (s *Service) InsertProfileIfAbsent(ctx context.Context, p *domain.Profile) error {
	return s.profileRepo.InsertIfAbsent(ctx, p)
}

// CreateSession records an admitted identity and returns the new session.
func (s *Service) CreateSession(ctx context.Context, identityID string, role domain.Role) (*domain.Session, error) {
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:  id.New(),
		IdentityID: identityID,
		Role:       role,
		Enable:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ActiveSession loads a session and rejects disabled ones.
func (s *Service) ActiveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session disabled: %w", domain.ErrUnauthorized)
	}
	return sess, nil
}

// Logout disables a single session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}
