package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const stateEntropyBytes = 1024

// NewState returns an anti-forgery state token: the hex encoded SHA-256 of
// 1024 random bytes.
func NewState() (string, error) {
	b := make([]byte, stateEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
