package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := IssueToken("s3cret", 42, true)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", token)
	require.NoError(t, err)
	require.EqualValues(t, 42, claims.UserId)
	require.True(t, claims.IsAdmin)
	require.Equal(t, "lensmart", claims.Issuer)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken("s3cret", 42, false)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", hash)
	require.True(t, CheckPassword(hash, "hunter22"))
	require.False(t, CheckPassword(hash, "hunter23"))
}

func TestResetTokenHashing(t *testing.T) {
	plain, hashed, err := NewResetToken()
	require.NoError(t, err)
	require.Len(t, plain, 64)
	require.Len(t, hashed, 64)
	require.NotEqual(t, plain, hashed)
	require.Equal(t, hashed, HashResetToken(plain))

	plain2, hashed2, err := NewResetToken()
	require.NoError(t, err)
	require.NotEqual(t, plain, plain2)
	require.NotEqual(t, hashed, hashed2)
}
