package domain

import "time"

// Profile is the durable role-tagged account record owned by the directory
// service. It is created exactly once per identity, at first successful
// registration; creation is conditioned on absence.
type Profile struct {
	IdentityID string            `json:"id" dynamodbav:"identity_id"`
	Phone      string            `json:"phone" dynamodbav:"phone"`
	Role       Role              `json:"role" dynamodbav:"role"`
	Attributes map[string]string `json:"attributes,omitempty" dynamodbav:"attributes"`
	CreatedAt  time.Time         `json:"created" dynamodbav:"created_at"`
}

// VerifiedIdentity is proof that a phone number passed OTP verification in the
// current attempt. It is consumed immediately by the role guard or the
// provisioner and never persisted by the core.
type VerifiedIdentity struct {
	IdentityID string `json:"id"`
	Phone      string `json:"phone"`
}
