package security

import (
	"crypto/rand"
	"encoding/hex"
)

const tokenBytes = 32

// GenerateToken returns a cryptographically random, URL-safe verification
// token. 32 random bytes hex-encoded gives 64 characters and a collision
// probability that is negligible for the lifetime of the system.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
