// Package guard is the security boundary between OTP verification and
// dashboard admission. OTP verification proves phone ownership, never role
// membership; every admission passes through Authorize keyed to the dashboard
// being entered.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vidyasetu/auth-api/internal/domain"
)

// directory is the slice of the identity service the guard needs.
type directory interface {
	GetProfileRole(ctx context.Context, identityID string) (domain.Role, error)
	SignOut(ctx context.Context, identityID string) error
}

// Guard accepts or rejects a verified identity against an expected role.
type Guard struct {
	dir directory
}

func New(dir directory) *Guard {
	return &Guard{dir: dir}
}

// Authorize looks up the stored role for the identity. No profile routes the
// caller to registration; a mismatched role is rejected and, as a safety
// action, every session granted to the identity is terminated regardless of
// whether the caller acknowledges the rejection.
func (g *Guard) Authorize(ctx context.Context, identity domain.VerifiedIdentity, expected domain.Role) (domain.Role, error) {
	role, err := g.dir.GetProfileRole(ctx, identity.IdentityID)
	if err != nil {
		if errors.Is(err, domain.ErrNoProfile) || errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("identity %s has no profile: %w", identity.IdentityID, domain.ErrNoProfile)
		}
		return "", err
	}
	if role != expected {
		if soErr := g.dir.SignOut(ctx, identity.IdentityID); soErr != nil {
			slog.Warn("forced sign-out failed after role mismatch",
				"identity_id", identity.IdentityID, "err", soErr)
		}
		return "", fmt.Errorf("profile role %q does not grant %q access: %w", role, expected, domain.ErrRoleMismatch)
	}
	return role, nil
}
