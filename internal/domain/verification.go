package domain

import "time"

// OTPLifetime is how long an issued code stays valid.
const OTPLifetime = 10 * time.Minute

// EmailVerification is the single live OTP record for an email address.
// PK: email. Every issue overwrites the whole item.
// ExpiresAt is unix milliseconds and is checked on every verify; TTL is the
// DynamoDB sweep attribute (unix seconds) and is never used in logic.
type EmailVerification struct {
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"-" dynamodbav:"code"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"`
	Verified  bool      `json:"verified" dynamodbav:"verified"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	TTL       int64     `json:"-" dynamodbav:"ttl"`
}

// Expired reports whether now is past the record's expiry.
func (v *EmailVerification) Expired(now time.Time) bool {
	return now.UnixMilli() > v.ExpiresAt
}
