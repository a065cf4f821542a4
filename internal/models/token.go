package models

import "time"

// RefreshToken is a persisted refresh token row. One live row per user:
// login replaces any prior row, rotation updates the row in place.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VerificationValue tags rows in the verifications table that belong to
// the email-verification flow.
const VerificationValue = "email_verification"

// Verification is a single-use email verification entry. The ID is the
// code delivered to the user.
type Verification struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"` // subject email
	Value      string    `json:"value"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Expired reports whether the entry is past its expiry at the given time.
func (v *Verification) Expired(now time.Time) bool {
	return v.ExpiresAt.Before(now)
}
