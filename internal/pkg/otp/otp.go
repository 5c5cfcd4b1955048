// Package otp manages short-lived one-time codes for email verification and
// password reset. Codes are six digits, scoped to a subject and purpose, and
// stored hashed. At most one live code exists per subject and purpose; issuing
// again replaces the previous code.
package otp

import (
	"errors"
	"time"
)

// Purpose scopes a code to the flow it was issued for. A code issued for one
// purpose never verifies under another.
type Purpose string

const (
	// PurposeSignupVerification covers the post-signup email check.
	PurposeSignupVerification Purpose = "signup_verification"
	// PurposePasswordReset covers the forgot-password flow.
	PurposePasswordReset Purpose = "password_reset"
)

func (p Purpose) String() string {
	return string(p)
}

var (
	// ErrCodeExpired is returned when no live code exists for the subject and
	// purpose, whether it expired, was consumed, was replaced, or was removed
	// after too many failed attempts.
	ErrCodeExpired = errors.New("verification code has expired or does not exist")

	// ErrCodeMismatch is returned when a live code exists but the submitted
	// value does not match it.
	ErrCodeMismatch = errors.New("verification code does not match")
)

// Record is a stored one-time code. Only the hash of the code is kept.
type Record struct {
	Subject   string
	Purpose   Purpose
	CodeHash  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Attempts  int
}

// Expired reports whether the record is past its expiry at the given time.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
