package auth

import (
	"crypto/rand"
	"encoding/hex"
)

const secretSize = 32

// GenerateSecret returns a random hex-encoded 32-byte key.
func GenerateSecret() (string, error) {
	b := make([]byte, secretSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// DecodeSecret accepts a hex-encoded key, falling back to the raw bytes.
func DecodeSecret(secret string) []byte {
	if b, err := hex.DecodeString(secret); err == nil && len(b) > 0 {
		return b
	}
	return []byte(secret)
}
