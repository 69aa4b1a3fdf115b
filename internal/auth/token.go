// Package auth issues and validates the bearer tokens that guard operator
// endpoints. Tokens are HS256 JWTs signed with the scraper key.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "pianosheets"

	// ScopeAdmin grants access to the admin endpoints
	ScopeAdmin = "admin"
)

var (
	// ErrKeyNotConfigured is returned when no signing key is set
	ErrKeyNotConfigured = errors.New("scraper key not configured")

	// ErrInvalidToken is returned for malformed, expired or foreign tokens
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by operator tokens
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for subject valid for ttl
func IssueToken(key, subject string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", ErrKeyNotConfigured
	}

	now := time.Now()
	claims := Claims{
		Scope: ScopeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(key))
}

// ValidateToken parses and verifies a token signed with key
func ValidateToken(key, tokenString string) (*Claims, error) {
	if key == "" {
		return nil, ErrKeyNotConfigured
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(key), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Scope != ScopeAdmin {
		return nil, fmt.Errorf("%w: missing admin scope", ErrInvalidToken)
	}
	return claims, nil
}
