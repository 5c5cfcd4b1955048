// Package idp holds the identity provider clients. The hosted driver talks
// to the upstream provider's admin REST API; the local driver keeps accounts
// in process memory for development and tests.
package idp

import "time"

const (
	// DriverHosted selects the upstream provider's admin REST API.
	DriverHosted = "hosted"
	// DriverLocal selects the in-memory development driver.
	DriverLocal = "local"
)

// userPayload is the wire shape shared by the hosted API endpoints.
type userPayload struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Department    string    `json:"department"`
	EmailVerified bool      `json:"email_verified"`
	DataSource    string    `json:"data_source"`
	CreatedAt     time.Time `json:"created_at"`
}
