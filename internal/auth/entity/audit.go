package entity

import "time"

// AuditAction names a security-relevant event recorded in the audit trail.
type AuditAction string

const (
	AuditSignup             AuditAction = "signup"
	AuditEmailVerified      AuditAction = "email_verified"
	AuditSignin             AuditAction = "signin"
	AuditSigninDenied       AuditAction = "signin_denied"
	AuditSignout            AuditAction = "signout"
	AuditPasswordResetStart AuditAction = "password_reset_start"
	AuditPasswordResetDone  AuditAction = "password_reset_done"
	AuditOTPResend          AuditAction = "otp_resend"
	AuditDataSourceSelected AuditAction = "data_source_selected"
)

// AuditEvent is one row in the audit trail. Metadata never contains codes,
// passwords, or session tokens.
type AuditEvent struct {
	ID        int64
	UserID    string
	Email     string
	Action    AuditAction
	IP        string
	Metadata  map[string]string
	CreatedAt time.Time
}
