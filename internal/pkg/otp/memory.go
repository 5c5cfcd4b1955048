package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps code records in process memory. It is the default store
// for development and tests; use RedisStore when running more than one
// instance.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func memKey(subject string, purpose Purpose) string {
	return subject + "|" + purpose.String()
}

// Put stores the record, replacing any existing one for the same key.
func (m *MemoryStore) Put(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[memKey(rec.Subject, rec.Purpose)] = rec

	return nil
}

// Get returns the live record, dropping it lazily when expired.
func (m *MemoryStore) Get(_ context.Context, subject string, purpose Purpose, now time.Time) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memKey(subject, purpose)
	rec, ok := m.records[key]
	if !ok {
		return Record{}, false, nil
	}
	if rec.Expired(now) {
		delete(m.records, key)
		return Record{}, false, nil
	}

	return rec, true, nil
}

// IncrementAttempts bumps the failed-attempt counter.
func (m *MemoryStore) IncrementAttempts(_ context.Context, subject string, purpose Purpose) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memKey(subject, purpose)
	rec, ok := m.records[key]
	if !ok {
		return 0, nil
	}

	rec.Attempts++
	m.records[key] = rec

	return rec.Attempts, nil
}

// Delete removes the record if present.
func (m *MemoryStore) Delete(_ context.Context, subject string, purpose Purpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, memKey(subject, purpose))

	return nil
}

// Sweep drops all expired records.
func (m *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for key, rec := range m.records {
		if rec.Expired(now) {
			delete(m.records, key)
			dropped++
		}
	}

	return dropped, nil
}
