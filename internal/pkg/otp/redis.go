package otp

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "otp:"

// RedisStore persists code records in Redis hashes with a native TTL, so
// multiple gateway instances share the same live-code state.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(subject string, purpose Purpose) string {
	return redisPrefix + subject + "|" + purpose.String()
}

// Put stores the record and sets the key TTL to the record expiry.
func (r *RedisStore) Put(ctx context.Context, rec Record) error {
	key := redisKey(rec.Subject, rec.Purpose)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		"code_hash":  rec.CodeHash,
		"issued_at":  rec.IssuedAt.UnixMilli(),
		"expires_at": rec.ExpiresAt.UnixMilli(),
		"attempts":   rec.Attempts,
	})
	pipe.ExpireAt(ctx, key, rec.ExpiresAt)
	_, err := pipe.Exec(ctx)

	return err
}

// Get returns the live record for the subject and purpose.
func (r *RedisStore) Get(ctx context.Context, subject string, purpose Purpose, now time.Time) (Record, bool, error) {
	fields, err := r.client.HGetAll(ctx, redisKey(subject, purpose)).Result()
	if err != nil {
		return Record{}, false, err
	}
	if len(fields) == 0 {
		return Record{}, false, nil
	}

	issuedAt, _ := strconv.ParseInt(fields["issued_at"], 10, 64)
	expiresAt, _ := strconv.ParseInt(fields["expires_at"], 10, 64)
	attempts, _ := strconv.Atoi(fields["attempts"])

	rec := Record{
		Subject:   subject,
		Purpose:   purpose,
		CodeHash:  fields["code_hash"],
		IssuedAt:  time.UnixMilli(issuedAt),
		ExpiresAt: time.UnixMilli(expiresAt),
		Attempts:  attempts,
	}
	if rec.Expired(now) {
		// Redis TTL removes it shortly anyway, delete eagerly for consistency.
		_ = r.client.Del(ctx, redisKey(subject, purpose)).Err()
		return Record{}, false, nil
	}

	return rec, true, nil
}

// IncrementAttempts bumps the failed-attempt counter atomically.
func (r *RedisStore) IncrementAttempts(ctx context.Context, subject string, purpose Purpose) (int, error) {
	key := redisKey(subject, purpose)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}

	n, err := r.client.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

// Delete removes the record if present.
func (r *RedisStore) Delete(ctx context.Context, subject string, purpose Purpose) error {
	return r.client.Del(ctx, redisKey(subject, purpose)).Err()
}

// Sweep is a no-op because Redis expires keys natively.
func (r *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}
