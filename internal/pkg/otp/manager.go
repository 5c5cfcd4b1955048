package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	// DefaultTTL is the code lifetime used when Config.TTL is zero.
	DefaultTTL = 10 * time.Minute
	// DefaultMaxAttempts is the mismatch limit used when Config.MaxAttempts is zero.
	DefaultMaxAttempts = 5
)

type clocker interface {
	Now() time.Time
}

type hasher interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// Config defines the inputs for building a Manager.
type Config struct {
	// Store persists code records.
	Store Store
	// Clock provides the current time source.
	Clock clocker
	// Hasher hashes codes at rest. Use a keyed hash so stored values cannot
	// be reversed into verifiable codes without the key.
	Hasher hasher
	// TTL is the code lifetime. Zero means DefaultTTL.
	TTL time.Duration
	// MaxAttempts is the mismatch limit before the code is removed. Zero
	// means DefaultMaxAttempts.
	MaxAttempts int
}

// Manager issues and verifies one-time codes. All operations are scoped by
// subject and purpose, and safe for concurrent use when the Store is.
type Manager struct {
	store       Store
	clock       clocker
	hasher      hasher
	ttl         time.Duration
	maxAttempts int
}

// NewManager creates a Manager, applying defaults for zero-valued knobs.
func NewManager(cfg Config) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Manager{
		store:       cfg.Store,
		clock:       cfg.Clock,
		hasher:      cfg.Hasher,
		ttl:         ttl,
		maxAttempts: maxAttempts,
	}
}

// TTL returns the configured code lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue generates a fresh six-digit code for the subject and purpose,
// replacing any previous code for the same pair, and returns the plaintext
// code exactly once. Callers must hand it to the delivery channel and drop it.
func (m *Manager) Issue(ctx context.Context, subject string, purpose Purpose) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	codeHash, err := m.hasher.Hash(code)
	if err != nil {
		return "", err
	}

	now := m.clock.Now()
	err = m.store.Put(ctx, Record{
		Subject:   subject,
		Purpose:   purpose,
		CodeHash:  string(codeHash),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
		Attempts:  0,
	})
	if err != nil {
		return "", err
	}

	return code, nil
}

// Verify consumes the code on success. On mismatch the attempt counter is
// bumped, and once it reaches the limit the code is removed so further calls
// report ErrCodeExpired.
func (m *Manager) Verify(ctx context.Context, subject string, purpose Purpose, code string) error {
	return m.verify(ctx, subject, purpose, code, true)
}

// Check validates the code without consuming it, so a follow-up operation can
// verify the same code again. Mismatches still count toward the attempt limit.
func (m *Manager) Check(ctx context.Context, subject string, purpose Purpose, code string) error {
	return m.verify(ctx, subject, purpose, code, false)
}

func (m *Manager) verify(ctx context.Context, subject string, purpose Purpose, code string, consume bool) error {
	rec, ok, err := m.store.Get(ctx, subject, purpose, m.clock.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeExpired
	}

	if !m.hasher.Verify(rec.CodeHash, code) {
		attempts, err := m.store.IncrementAttempts(ctx, subject, purpose)
		if err != nil {
			return err
		}
		if attempts >= m.maxAttempts {
			if err := m.store.Delete(ctx, subject, purpose); err != nil {
				return err
			}
		}
		return ErrCodeMismatch
	}

	if consume {
		if err := m.store.Delete(ctx, subject, purpose); err != nil {
			return err
		}
	}

	return nil
}

// Invalidate removes any live code for the subject and purpose.
func (m *Manager) Invalidate(ctx context.Context, subject string, purpose Purpose) error {
	return m.store.Delete(ctx, subject, purpose)
}

// Live reports whether a live code exists for the subject and purpose.
func (m *Manager) Live(ctx context.Context, subject string, purpose Purpose) (bool, error) {
	_, ok, err := m.store.Get(ctx, subject, purpose, m.clock.Now())
	return ok, err
}

// Sweep removes expired records from the store.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.Sweep(ctx, m.clock.Now())
}

// generateCode draws a uniform six-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}
