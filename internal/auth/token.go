package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Session token format: gf_{64 hex chars}
const (
	TokenPrefix    = "gf_"
	tokenSecretLen = 32
)

var (
	// ErrInvalidTokenFormat indicates a malformed session token.
	ErrInvalidTokenFormat = errors.New("invalid session token format")

	tokenFormatRegex = regexp.MustCompile(`^gf_[a-f0-9]{64}$`)
)

// GeneratedToken is a freshly minted session token.
type GeneratedToken struct {
	Plaintext string // returned to the client once
	Hash      string // stored server-side
}

// GenerateSessionToken creates a random session token and its lookup hash.
func GenerateSessionToken() (*GeneratedToken, error) {
	secret := make([]byte, tokenSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	plaintext := TokenPrefix + hex.EncodeToString(secret)
	return &GeneratedToken{
		Plaintext: plaintext,
		Hash:      HashToken(plaintext),
	}, nil
}

// ValidateTokenFormat reports whether token looks like a session token.
func ValidateTokenFormat(token string) bool {
	return tokenFormatRegex.MatchString(token)
}

// HashToken returns the SHA-256 digest used to look a token up. Tokens carry
// 256 bits of entropy, so a fast hash is sufficient here.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
