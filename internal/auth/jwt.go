package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"symposium/internal/model"
)

// Claims represents the session token payload the backend issues after
// OAuth login.
type Claims struct {
	Subject string     `json:"sub"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Role    model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs an access token for subject. Used by the stub API and by
// tests; the real backend issues its own tokens.
func Issue(subject, name, email string, role model.Role, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		Subject: subject,
		Name:    name,
		Email:   email,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns its claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	return *claims, nil
}

// PeekExpiry extracts the expiry from a token without verifying its
// signature. The station uses it only to short-circuit obviously expired
// tokens before a network round-trip; the backend remains the authority.
func PeekExpiry(tokenStr string) (time.Time, bool) {
	parser := jwt.NewParser()
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
