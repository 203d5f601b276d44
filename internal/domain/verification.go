package domain

// OtpSession is the directory-side record of an issued OTP.
// PK: phone (E.164). Only a bcrypt hash of the code is stored.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OtpSession struct {
	Phone     string `json:"phone" dynamodbav:"phone"`
	CodeHash  string `json:"-" dynamodbav:"code_hash"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// IdentityLink maps a verified phone number to its stable identity handle.
// PK: phone (E.164). The handle is assigned on first successful verification
// and never changes afterwards.
type IdentityLink struct {
	Phone      string `json:"phone" dynamodbav:"phone"`
	IdentityID string `json:"identity_id" dynamodbav:"identity_id"`
	CreatedAt  int64  `json:"created_at" dynamodbav:"created_at"`
}
