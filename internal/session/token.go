package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired peeks at the exp claim of an access token without
// verifying its signature. Restore uses this to decide whether a stored
// token is worth presenting or should be rotated first.
//
// Opaque (non-JWT) tokens and tokens without an exp claim report false:
// the server remains the authority and will answer with an auth-expired
// failure if the token is dead.
func tokenExpired(token string, now time.Time) bool {
	parser := jwt.NewParser()

	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}

	if claims.ExpiresAt == nil {
		return false
	}

	return now.After(claims.ExpiresAt.Time)
}
