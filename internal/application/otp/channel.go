// Package otp mediates OTP requests and verifications for mobile identifiers
// against the directory service. Expiry of issued codes belongs to the
// directory; the channel only tracks which identifiers have an outstanding
// request so a verification can never precede a successful send.
package otp

import (
	"context"
	"fmt"
	"sync"

	"github.com/vidyasetu/auth-api/internal/domain"
	"github.com/vidyasetu/auth-api/internal/pkg/phone"
)

// directory is the slice of the identity service the channel needs.
type directory interface {
	SendOtp(ctx context.Context, e164Phone string) error
	VerifyOtp(ctx context.Context, e164Phone, code string) (string, error)
}

// Channel requests and verifies OTPs for ten-digit identifiers.
type Channel struct {
	dir         directory
	callingCode string

	mu      sync.Mutex
	pending map[string]bool // normalized identifier -> outstanding request
}

func NewChannel(dir directory, callingCode string) *Channel {
	return &Channel{
		dir:         dir,
		callingCode: callingCode,
		pending:     make(map[string]bool),
	}
}

// Request validates the identifier locally, normalizes it, and asks the
// directory to deliver an OTP. Malformed identifiers fail before any upstream
// call. A repeated request for the same identifier replaces the outstanding one.
func (c *Channel) Request(ctx context.Context, identifier string) error {
	e164, err := phone.Validate(identifier, c.callingCode)
	if err != nil {
		return err
	}
	if err := c.dir.SendOtp(ctx, e164); err != nil {
		return fmt.Errorf("send otp: %v: %w", err, domain.ErrSendFailure)
	}
	c.mu.Lock()
	c.pending[e164] = true
	c.mu.Unlock()
	return nil
}

// Verify checks the submitted code for an identifier with an outstanding
// request. On success the pending session is consumed: verifying the same
// already-used code again fails.
func (c *Channel) Verify(ctx context.Context, identifier, code string) (domain.VerifiedIdentity, error) {
	e164 := phone.Normalize(identifier, c.callingCode)

	c.mu.Lock()
	outstanding := c.pending[e164]
	c.mu.Unlock()
	if !outstanding {
		return domain.VerifiedIdentity{}, fmt.Errorf("no otp requested for identifier: %w", domain.ErrVerifyFailure)
	}

	identityID, err := c.dir.VerifyOtp(ctx, e164, code)
	if err != nil {
		return domain.VerifiedIdentity{}, fmt.Errorf("verify otp: %v: %w", err, domain.ErrVerifyFailure)
	}

	c.mu.Lock()
	delete(c.pending, e164)
	c.mu.Unlock()

	return domain.VerifiedIdentity{IdentityID: identityID, Phone: identifier}, nil
}

// Discard drops any outstanding request for the identifier. Used when the user
// abandons the attempt or changes the number.
func (c *Channel) Discard(identifier string) {
	e164 := phone.Normalize(identifier, c.callingCode)
	c.mu.Lock()
	delete(c.pending, e164)
	c.mu.Unlock()
}
