// Package provision turns a bare verified identity into a role-scoped account.
// Creation is conditioned on absence: registering twice with the same verified
// identity neither errors nor duplicates nor overwrites.
package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vidyasetu/auth-api/internal/domain"
	"github.com/vidyasetu/auth-api/internal/pkg/validate"
)

// profileStore is the slice of the identity service the provisioner needs.
// InsertProfileIfAbsent must be atomic; the idempotence guarantee leans on it.
type profileStore interface {
	InsertProfileIfAbsent(ctx context.Context, p *domain.Profile) error
}

// attributeSchema declares which registration attributes a role requires.
// Attribute values are stored verbatim; only presence and a handful of format
// rules are checked, matching what each registration form collects.
type attributeSchema struct {
	required []string
}

var schemas = map[domain.Role]attributeSchema{
	domain.RoleStudent: {
		required: []string{"full_name", "aadhaar"},
	},
	domain.RoleInstitution: {
		required: []string{"full_name", "institution_id", "address", "contact_person"},
	},
	domain.RoleGramPanchayat: {
		required: []string{"panchayat_name", "panchayat_id", "district", "state", "contact_person"},
	},
	// admin is provisioned out-of-band; no self-registration schema exists.
}

type formatRules struct {
	Aadhaar string `validate:"omitempty,len=12,numeric"`
	Email   string `validate:"omitempty,email"`
}

// Provisioner creates role-tagged profiles for first-time identities.
type Provisioner struct {
	store profileStore
}

func New(store profileStore) *Provisioner {
	return &Provisioner{store: store}
}

// ValidateAttributes checks the attribute set against the role's schema. It is
// called by the registration flow before any OTP is sent, so form errors fail
// fast without a network round-trip.
func (p *Provisioner) ValidateAttributes(role domain.Role, attrs map[string]string) error {
	schema, ok := schemas[role]
	if !ok {
		return fmt.Errorf("role %q does not self-register: %w", role, domain.ErrForbidden)
	}
	for _, name := range schema.required {
		if attrs[name] == "" {
			return fmt.Errorf("missing required attribute %q: %w", name, domain.ErrBadRequest)
		}
	}
	rules := formatRules{Aadhaar: attrs["aadhaar"], Email: attrs["email"]}
	if err := validate.Struct(rules); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	return nil
}

// CreateIfAbsent inserts a profile for the identity unless one already exists.
// An existing profile is a successful no-op: the stored record keeps the
// attributes from the first successful call. Only backing-store failures are
// reported, wrapped as ErrProvision.
func (p *Provisioner) CreateIfAbsent(ctx context.Context, identity domain.VerifiedIdentity, role domain.Role, attrs map[string]string) error {
	if err := p.ValidateAttributes(role, attrs); err != nil {
		return err
	}
	profile := &domain.Profile{
		IdentityID: identity.IdentityID,
		Phone:      identity.Phone,
		Role:       role,
		Attributes: attrs,
		CreatedAt:  time.Now().UTC(),
	}
	if err := p.store.InsertProfileIfAbsent(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("insert profile: %v: %w", err, domain.ErrProvision)
	}
	return nil
}
