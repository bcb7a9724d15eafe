package session

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": subject}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-key"))
	require.NoError(t, err)
	return token
}

func TestIdentityFromUserToken(t *testing.T) {
	id, err := IdentityFromToken(signedToken(t, "alice@example.com", ""))
	require.NoError(t, err)
	require.False(t, id.Admin)
	require.Equal(t, "alice@example.com", id.Subject)
	require.Equal(t, "alice@example.com", id.Email)
}

func TestIdentityFromAdminRole(t *testing.T) {
	id, err := IdentityFromToken(signedToken(t, "root", "admin"))
	require.NoError(t, err)
	require.True(t, id.Admin)
	require.Equal(t, "root", id.Subject)
	require.Empty(t, id.Email)
}

func TestIdentityFromAdminSubjectPrefix(t *testing.T) {
	id, err := IdentityFromToken(signedToken(t, "admin:root", ""))
	require.NoError(t, err)
	require.True(t, id.Admin)
}

func TestIdentityFromMalformedToken(t *testing.T) {
	_, err := IdentityFromToken("not-a-jwt")
	require.ErrorIs(t, err, ErrMalformedToken)

	_, err = IdentityFromToken("")
	require.ErrorIs(t, err, ErrMalformedToken)
}
