package util

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// StableID derives a short deterministic identifier from text: the first 12
// hex characters of its md5 digest, upper-cased. Collision-tolerant, not
// cryptographic; the same text always yields the same ID across runs, which
// is what makes re-loading idempotent.
func StableID(text string) string {
	sum := md5.Sum([]byte(text))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:12])
}

// HashPII pseudonymizes a personal field with a one-way sha256 digest.
// Empty input yields nil so absent data stays absent in the store.
func HashPII(value string) *string {
	if value == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(value))
	digest := hex.EncodeToString(sum[:])
	return &digest
}
