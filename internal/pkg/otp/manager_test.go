package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eklabs/authgate/internal/pkg/hash"
)

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

func newTestManager(t *testing.T) (*Manager, *fakeClock, *MemoryStore) {
	t.Helper()

	clk := &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	mgr := NewManager(Config{
		Store:  store,
		Clock:  clk,
		Hasher: hash.NewHMACSHA256("unit-test-secret"),
	})

	return mgr, clk, store
}

func TestManagerIssueAndVerify(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	code, err := mgr.Issue(ctx, "user-1", PurposeSignupVerification)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	if err := mgr.Verify(ctx, "user-1", PurposeSignupVerification, code); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	// Codes are single use.
	err = mgr.Verify(ctx, "user-1", PurposeSignupVerification, code)
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired on reuse, got %v", err)
	}
}

func TestManagerVerifyMismatchKeepsCodeLive(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	code, err := mgr.Issue(ctx, "user-1", PurposeSignupVerification)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	err = mgr.Verify(ctx, "user-1", PurposeSignupVerification, wrong)
	if !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}

	if err := mgr.Verify(ctx, "user-1", PurposeSignupVerification, code); err != nil {
		t.Fatalf("correct code after one mismatch should verify, got %v", err)
	}
}

func TestManagerAttemptLimit(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	code, err := mgr.Issue(ctx, "user-1", PurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := range DefaultMaxAttempts {
		err = mgr.Verify(ctx, "user-1", PurposePasswordReset, wrong)
		if !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("attempt %d: expected ErrCodeMismatch, got %v", i+1, err)
		}
	}

	// The code is gone after the limit, even the right value cannot verify.
	err = mgr.Verify(ctx, "user-1", PurposePasswordReset, code)
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired after attempt limit, got %v", err)
	}
}

func TestManagerTTLBoundary(t *testing.T) {
	mgr, clk, _ := newTestManager(t)
	ctx := context.Background()

	code, err := mgr.Issue(ctx, "user-1", PurposeSignupVerification)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	clk.Advance(DefaultTTL - time.Second)
	if err := mgr.Verify(ctx, "user-1", PurposeSignupVerification, code); err != nil {
		t.Fatalf("code just inside the TTL should verify, got %v", err)
	}

	code, err = mgr.Issue(ctx, "user-1", PurposeSignupVerification)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	clk.Advance(DefaultTTL + time.Second)
	err = mgr.Verify(ctx, "user-1", PurposeSignupVerification, code)
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired past the TTL, got %v", err)
	}
}

func TestManagerReissueReplacesPreviousCode(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	first, err := mgr.Issue(ctx, "user-1", PurposeSignupVerification)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	second, err := mgr.Issue(ctx, "user-1", PurposeSignupVerification)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if first != second {
		err = mgr.Verify(ctx, "user-1", PurposeSignupVerification, first)
		if !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("replaced code should mismatch, got %v", err)
		}
	}

	if err := mgr.Verify(ctx, "user-1", PurposeSignupVerification, second); err != nil {
		t.Fatalf("latest code should verify, got %v", err)
	}
}

func TestManagerPurposeIsolation(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	signupCode, err := mgr.Issue(ctx, "user-1", PurposeSignupVerification)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	resetCode, err := mgr.Issue(ctx, "user-1", PurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if signupCode != resetCode {
		err = mgr.Verify(ctx, "user-1", PurposePasswordReset, signupCode)
		if !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("code issued for another purpose should mismatch, got %v", err)
		}
	}

	if err := mgr.Verify(ctx, "user-1", PurposeSignupVerification, signupCode); err != nil {
		t.Fatalf("signup code should verify under its own purpose, got %v", err)
	}
	if err := mgr.Verify(ctx, "user-1", PurposePasswordReset, resetCode); err != nil {
		t.Fatalf("reset code should verify under its own purpose, got %v", err)
	}
}

func TestManagerCheckDoesNotConsume(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	code, err := mgr.Issue(ctx, "user-1", PurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if err := mgr.Check(ctx, "user-1", PurposePasswordReset, code); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	// The same code must still verify afterwards.
	if err := mgr.Verify(ctx, "user-1", PurposePasswordReset, code); err != nil {
		t.Fatalf("Verify after Check returned error: %v", err)
	}
}

func TestManagerInvalidateAndLive(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	code, err := mgr.Issue(ctx, "user-1", PurposeSignupVerification)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	live, err := mgr.Live(ctx, "user-1", PurposeSignupVerification)
	if err != nil || !live {
		t.Fatalf("expected live code, got live=%v err=%v", live, err)
	}

	if err := mgr.Invalidate(ctx, "user-1", PurposeSignupVerification); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}

	live, err = mgr.Live(ctx, "user-1", PurposeSignupVerification)
	if err != nil || live {
		t.Fatalf("expected no live code, got live=%v err=%v", live, err)
	}

	err = mgr.Verify(ctx, "user-1", PurposeSignupVerification, code)
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired after invalidate, got %v", err)
	}
}

func TestManagerConcurrentIssueLeavesOneLiveCode(t *testing.T) {
	mgr, clk, store := newTestManager(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	codes := make([]string, 8)
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := mgr.Issue(ctx, "user-1", PurposeSignupVerification)
			if err != nil {
				t.Errorf("Issue returned error: %v", err)
				return
			}
			codes[i] = code
		}()
	}
	wg.Wait()

	rec, ok, err := store.Get(ctx, "user-1", PurposeSignupVerification, clk.Now())
	if err != nil || !ok {
		t.Fatalf("expected one live record, got ok=%v err=%v", ok, err)
	}

	// The stored hash must belong to one of the issued codes.
	hasher := hash.NewHMACSHA256("unit-test-secret")
	matched := false
	for _, code := range codes {
		if hasher.Verify(rec.CodeHash, code) {
			matched = true
			break
		}
	}
	if !matched {
		t.Fatal("stored record does not match any issued code")
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	mgr, clk, store := newTestManager(t)
	ctx := context.Background()

	if _, err := mgr.Issue(ctx, "user-1", PurposeSignupVerification); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := mgr.Issue(ctx, "user-2", PurposePasswordReset); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	clk.Advance(DefaultTTL + time.Minute)
	if _, err := mgr.Issue(ctx, "user-3", PurposeSignupVerification); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	dropped, err := mgr.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if dropped != 2 {
		t.Fatalf("expected 2 expired records dropped, got %d", dropped)
	}

	live, err := mgr.Live(ctx, "user-3", PurposeSignupVerification)
	if err != nil || !live {
		t.Fatalf("fresh record should survive sweep, got live=%v err=%v", live, err)
	}

	_, ok, _ := store.Get(ctx, "user-1", PurposeSignupVerification, clk.Now())
	if ok {
		t.Fatal("expired record should be gone after sweep")
	}
}
