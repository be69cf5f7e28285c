package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ResetTokenTTL bounds how long a mailed reset link stays usable
const ResetTokenTTL = 15 * time.Minute

// NewResetToken returns the plaintext token (mailed to the user) and the
// sha256 hex digest (the only form persisted).
func NewResetToken() (plain string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(buf)
	return plain, HashResetToken(plain), nil
}

// HashResetToken maps a plaintext reset token to its stored form
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
