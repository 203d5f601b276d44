package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Authentication-flow errors. Every one of them leaves the flow in a retryable
// state; none is fatal to the process.
var (
	// ErrSendFailure covers malformed identifiers and upstream OTP delivery errors.
	ErrSendFailure = errors.New("otp send failure")
	// ErrVerifyFailure covers wrong or expired codes and verifications without
	// an active OTP session.
	ErrVerifyFailure = errors.New("otp verify failure")
	// ErrNoProfile means the verified identity has no profile yet; the caller
	// routes to registration, never to a dashboard.
	ErrNoProfile = errors.New("no profile for identity")
	// ErrRoleMismatch means the profile carries a different role than the
	// dashboard being entered. The guard signs the identity out as a side effect.
	ErrRoleMismatch = errors.New("role mismatch")
	// ErrProvision is a backing-store failure during profile creation.
	// "Already exists" is never a provisioning error.
	ErrProvision = errors.New("profile provisioning failure")
	// ErrCaptchaMismatch is recovered locally: the challenge is regenerated and
	// the flow stays at the entry step.
	ErrCaptchaMismatch = errors.New("captcha mismatch")
	// ErrBusy rejects an event that arrives while a network-bound call for the
	// same attempt is still outstanding.
	ErrBusy = errors.New("attempt busy")
	// ErrAttemptDone rejects events against a concluded or cancelled attempt.
	ErrAttemptDone = errors.New("attempt concluded")
)
