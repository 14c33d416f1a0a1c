// Package auth verifies the admin password and manages admin sessions.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

const (
	scryptPrefix = "scrypt"
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16
)

// HashPassword derives a "scrypt:<saltHex>:<keyHex>" hash for password.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", eris.Wrap(err, "auth: generate salt")
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", eris.Wrap(err, "auth: derive key")
	}
	return scryptPrefix + ":" + hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPasswordHash reports whether password matches hash. Both scrypt
// hashes produced by HashPassword and bcrypt "$2" hashes are accepted;
// anything malformed never matches.
func VerifyPasswordHash(password, hash string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}

	parts := strings.Split(hash, ":")
	if len(parts) != 3 || parts[0] != scryptPrefix || parts[1] == "" || parts[2] == "" {
		return false
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false
	}
	return safeCompare(hex.EncodeToString(key), parts[2])
}

// VerifyPlainPassword compares password with expected in constant time.
func VerifyPlainPassword(password, expected string) bool {
	return safeCompare(password, expected)
}

func safeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Credentials is the configured admin secret. A hash takes precedence over
// a plain password.
type Credentials struct {
	PasswordHash string
	Password     string
}

// Configured reports whether any admin secret is set.
func (c Credentials) Configured() bool {
	return c.PasswordHash != "" || c.Password != ""
}

// Verify checks password against the configured secret.
func (c Credentials) Verify(password string) bool {
	switch {
	case c.PasswordHash != "":
		return VerifyPasswordHash(password, c.PasswordHash)
	case c.Password != "":
		return VerifyPlainPassword(password, c.Password)
	default:
		return false
	}
}
