package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_VerifiesGeneratedHash(t *testing.T) {
	hash, err := HashPassword("super-secret")
	require.NoError(t, err)

	parts := strings.Split(hash, ":")
	require.Len(t, parts, 3)
	assert.Equal(t, "scrypt", parts[0])
	assert.Len(t, parts[1], 32)
	assert.Len(t, parts[2], 128)

	assert.True(t, VerifyPasswordHash("super-secret", hash))
	assert.False(t, VerifyPasswordHash("wrong", hash))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordHash_RejectsMalformed(t *testing.T) {
	for _, hash := range []string{
		"",
		"scrypt",
		"scrypt::abcd",
		"scrypt:zz:abcd",
		"md5:0011:abcd",
		"scrypt:0011:abcd:extra",
	} {
		assert.False(t, VerifyPasswordHash("anything", hash), hash)
	}
}

func TestVerifyPasswordHash_AcceptsBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("12345"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPasswordHash("12345", string(hash)))
	assert.False(t, VerifyPasswordHash("54321", string(hash)))
}

func TestVerifyPlainPassword(t *testing.T) {
	assert.True(t, VerifyPlainPassword("abc123", "abc123"))
	assert.False(t, VerifyPlainPassword("abc123", "abc124"))
	assert.False(t, VerifyPlainPassword("abc", "abc123"))
}

func TestCredentials_HashTakesPrecedence(t *testing.T) {
	hash, err := HashPassword("from-hash")
	require.NoError(t, err)

	creds := Credentials{PasswordHash: hash, Password: "from-plain"}
	assert.True(t, creds.Configured())
	assert.True(t, creds.Verify("from-hash"))
	assert.False(t, creds.Verify("from-plain"))

	plain := Credentials{Password: "from-plain"}
	assert.True(t, plain.Verify("from-plain"))

	assert.False(t, Credentials{}.Configured())
	assert.False(t, Credentials{}.Verify(""))
}
