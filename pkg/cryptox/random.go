package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Entropy sizes in bytes, before base64url encoding.
const (
	entropy128 = 16
	entropy256 = 32
)

// randomString returns size random bytes, base64url encoded without padding.
func randomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Fingerprint returns the base64url SHA-256 of value (43 chars). Storage keys
// are derived from it where the identifier itself should not appear, such as
// Redis key names.
func Fingerprint(value string) string {
	sum := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
