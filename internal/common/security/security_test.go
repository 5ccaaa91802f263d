package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	InitJWT([]byte("test-secret"), time.Hour)

	tokenString, err := GenerateToken("user-1", "admin@example.com", "admin")
	require.NoError(t, err)

	token, err := TokenAuth.Decode(tokenString)
	require.NoError(t, err)
	claims, err := token.AsMap(t.Context())
	require.NoError(t, err)

	id, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	role, err := GetUserRoleFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "admin", role)
	assert.Equal(t, "admin@example.com", GetEmailFromClaims(claims))
}

func TestClaimsHelpersRejectMissingValues(t *testing.T) {
	_, err := GetUserIDFromClaims(map[string]interface{}{})
	assert.Error(t, err)
	_, err = GetUserRoleFromClaims(map[string]interface{}{"role": 1})
	assert.Error(t, err)
	assert.Empty(t, GetEmailFromClaims(map[string]interface{}{}))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
