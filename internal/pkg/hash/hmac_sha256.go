package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 implements Hash using a keyed SHA-256 MAC.
//
// It is deterministic, which makes it suitable for values that must be looked
// up by their hash (one-time codes, tokens at rest).
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a new hasher with the given secret key.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the hex-encoded HMAC-SHA256 of the input.
func (s *HMACSHA256) Hash(plaintext string) ([]byte, error) {
	return s.gen(plaintext), nil
}

// Verify checks whether the plaintext matches the given hash in constant time.
func (s *HMACSHA256) Verify(hashed, plaintext string) bool {
	expected := s.gen(plaintext)
	return subtle.ConstantTimeCompare([]byte(hashed), expected) == 1
}

func (s *HMACSHA256) gen(plaintext string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(plaintext))
	sum := h.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
