package domain

import "time"

// Session is the directory-side record of an admitted identity. Disabled
// sessions are rejected by the auth middleware; the role guard disables every
// session of an identity on a role mismatch.
type Session struct {
	SessionID  string    `json:"id" dynamodbav:"session_id"`
	IdentityID string    `json:"identity_id" dynamodbav:"identity_id"`
	Role       Role      `json:"role" dynamodbav:"role"`
	Enable     bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
}
