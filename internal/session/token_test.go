package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fresh token", func(t *testing.T) {
		token := mintToken(t, now.Add(time.Hour))
		require.False(t, tokenExpired(token, now))
	})

	t.Run("expired token", func(t *testing.T) {
		token := mintToken(t, now.Add(-time.Minute))
		require.True(t, tokenExpired(token, now))
	})

	t.Run("opaque token assumed usable", func(t *testing.T) {
		require.False(t, tokenExpired("not-a-jwt", now))
	})

	t.Run("token without exp assumed usable", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		require.False(t, tokenExpired(signed, now))
	})
}
