package domain

import "fmt"

// Role is the closed set of account types the portal serves. Exactly one role
// is authoritative per identity once a profile exists.
type Role string

const (
	RoleStudent       Role = "student"
	RoleInstitution   Role = "institution"
	RoleGramPanchayat Role = "gram_panchayat"
	RoleAdmin         Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleStudent, RoleInstitution, RoleGramPanchayat, RoleAdmin}

// ParseRole converts a wire string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q: %w", s, ErrBadRequest)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstitution, RoleGramPanchayat, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
