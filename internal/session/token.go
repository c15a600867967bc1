package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the registered claims the client reads from a bearer token
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// ReadTokenClaims reads subject and expiry from a JWT without verifying its
// signature; the remote API remains the only verifier. Opaque tokens yield
// empty claims and no error.
func ReadTokenClaims(token string) (TokenClaims, error) {
	if token == "" {
		return TokenClaims{}, fmt.Errorf("empty token")
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return TokenClaims{}, nil
	}

	var claims TokenClaims
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return TokenClaims{}, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if sub, err := parsed.Claims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	return claims, nil
}
