package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Bearer tokens are opaque: 32 random bytes, hex encoded. Only the
// SHA-256 hash is stored server-side, so a leaked tokens table cannot
// be replayed. A token stays valid until it is revoked.

const tokenBytes = 32

var ErrTokenNotFound = errors.New("token not found")

type TokenRow struct {
	ID        string
	UserID    int64
	TokenHash string
	CreatedAt time.Time
}

// NewToken returns the plaintext token handed to the client.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)

	_, err := rand.Read(buf)

	if err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

// HashToken is the deterministic at-rest form of a plaintext token.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))

	return hex.EncodeToString(sum[:])
}
