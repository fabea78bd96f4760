// Package auth holds bearer-token signing and verification for the gramlock
// server, split out from the root server package so that server/middle can
// depend on it without an import cycle back through server.go's router
// wiring.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer is the constant iss claim gramserver both signs with and verifies
// against, mirroring the teacher's own single-hardcoded-issuer convention in
// server/server.go (there "tqs").
const issuer = "gramlock"

// GenerateToken signs a one-hour bearer token against secret. gramserver has
// no user/account model (see DESIGN.md): the token only attests "holder
// knows the configured secret", so the subject is fixed rather than a user
// ID.
func GenerateToken(secret []byte) (string, error) {
	claims := &jwt.MapClaims{
		"iss": issuer,
		"sub": "gramserver-client",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return tok.SignedString(secret)
}

// VerifyToken checks tokStr's signature, issuer, and expiry against secret.
func VerifyToken(secret []byte, tokStr string) error {
	_, err := jwt.Parse(tokStr, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(issuer), jwt.WithLeeway(time.Minute))
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	return nil
}

// NormalizeSecret repeats a short secret until it reaches 32 bytes and
// refuses one over 64, matching cmd/tqserver's historical validation in the
// teacher lineage.
func NormalizeSecret(s string) ([]byte, error) {
	secret := []byte(s)
	for len(secret) < 32 {
		secret = append(secret, secret...)
	}
	if len(secret) > 64 {
		return nil, fmt.Errorf("secret is %d bytes, but it must be <= 64 bytes", len(secret))
	}
	return secret, nil
}
