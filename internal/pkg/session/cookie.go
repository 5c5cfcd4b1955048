package session

import (
	"net/http"
	"time"
)

// CookieName is the session cookie written on signin and cleared on signout.
const CookieName = "authgate_session"

// CookieConfig controls how the session cookie is written.
type CookieConfig struct {
	// Secure marks the cookie as HTTPS-only. Disable only for local development.
	Secure bool
	// Domain optionally scopes the cookie to a domain.
	Domain string
	// TTL matches the session token lifetime.
	TTL time.Duration
}

// NewCookie builds the session cookie carrying the signed token.
func NewCookie(token string, cfg CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds an expired session cookie so the browser drops it.
func ClearCookie(cfg CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ReadToken extracts the session token from the request cookie, or "" when absent.
func ReadToken(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
