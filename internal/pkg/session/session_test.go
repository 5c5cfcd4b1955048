package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type staticUUID struct{}

func (staticUUID) Generate() string {
	return "token-id-1"
}

func newTestSession(t *testing.T) (*Symmetric, *fakeClock) {
	t.Helper()

	clk := &fakeClock{now: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}
	sess, err := NewHS512(Config{
		Secret:    []byte(testSecret),
		Issuer:    "authgate-test",
		Audiences: []string{"authgate"},
		TTL:       30 * time.Minute,
		Clock:     clk,
		UUID:      staticUUID{},
	})
	if err != nil {
		t.Fatalf("NewHS512 returned error: %v", err)
	}

	return sess, clk
}

func testIdentity() Identity {
	return Identity{
		UserID:                "user-1",
		Email:                 "jamie@example.com",
		Name:                  "Jamie Doe",
		Role:                  "qa",
		Department:            "Quality",
		HasSelectedDataSource: true,
	}
}

func TestNewHS512RejectsShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("too-short")})
	if !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
	}
}

func TestGenerateAndVerifyRoundTrip(t *testing.T) {
	sess, _ := newTestSession(t)

	token, err := sess.Generate(testIdentity())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	clm, err := sess.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if clm.UserID != "user-1" || clm.Email != "jamie@example.com" || clm.Role != "qa" {
		t.Fatalf("unexpected claims %+v", clm)
	}
	if !clm.HasSelectedDataSource {
		t.Fatal("HasSelectedDataSource must round trip")
	}
	if clm.Subject != "user-1" {
		t.Fatalf("subject should carry the user id, got %q", clm.Subject)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	sess, clk := newTestSession(t)

	token, err := sess.Generate(testIdentity())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	clk.Advance(31 * time.Minute)

	_, err = sess.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	sess, _ := newTestSession(t)

	token, err := sess.Generate(testIdentity())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := sess.Verify(tampered); err == nil {
		t.Fatal("tampered token must not verify")
	}
}

func TestVerifyRejectsTokenFromOtherKey(t *testing.T) {
	sess, _ := newTestSession(t)

	otherSecret := strings.Repeat("x", 64)
	other, err := NewHS512(Config{
		Secret:    []byte(otherSecret),
		Issuer:    "authgate-test",
		Audiences: []string{"authgate"},
		TTL:       30 * time.Minute,
		Clock:     &fakeClock{now: time.Now()},
		UUID:      staticUUID{},
	})
	if err != nil {
		t.Fatalf("NewHS512 returned error: %v", err)
	}

	token, err := other.Generate(testIdentity())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if _, err := sess.Verify(token); err == nil {
		t.Fatal("token signed with another key must not verify")
	}
}

func TestCookieRoundTrip(t *testing.T) {
	cfg := CookieConfig{Secure: true, TTL: 30 * time.Minute}

	c := NewCookie("the-token", cfg)
	if c.Name != CookieName || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes %+v", c)
	}
	if c.MaxAge != int((30 * time.Minute).Seconds()) {
		t.Fatalf("unexpected MaxAge %d", c.MaxAge)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	if got := ReadToken(r); got != "the-token" {
		t.Fatalf("ReadToken returned %q", got)
	}

	if got := ReadToken(httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Fatalf("ReadToken without cookie returned %q", got)
	}

	cleared := ClearCookie(cfg)
	if cleared.MaxAge != -1 || cleared.Value != "" {
		t.Fatalf("ClearCookie should expire the cookie, got %+v", cleared)
	}
}
