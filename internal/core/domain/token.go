package domain

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// APIToken authenticates a system against the read API. The bearer secret
// presented over the wire is a UUID; only the hex-encoded SHA-256 of its
// raw 16 bytes is ever persisted (§3, §9 — migration note: legacy
// deployments must rehash from the raw bytes, never the hex text).
type APIToken struct {
	ID          string
	SecretHash  string
	SystemID    string
	Description string
	ExpiresAt   *time.Time
	LastUsedAt  *time.Time
}

// HashSecret computes the stored hash for a raw bearer secret.
func HashSecret(secret uuid.UUID) string {
	sum := sha256.Sum256(secret[:])
	return hex.EncodeToString(sum[:])
}

// VerifySecretHash reports whether the raw secret's hash matches the stored
// one, using a constant-time comparison to resist timing attacks (§4.4).
func VerifySecretHash(secret uuid.UUID, storedHashHex string) bool {
	computed := HashSecret(secret)
	stored, err := hex.DecodeString(storedHashHex)
	if err != nil {
		return false
	}
	computedBytes, err := hex.DecodeString(computed)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(computedBytes, stored) == 1
}

// Expired reports whether the token's expiry has passed as of `at`.
func (t APIToken) Expired(at time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(at)
}
