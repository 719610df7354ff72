package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes gives 32 hex characters per token.
const tokenBytes = 16

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
