// Package middle provides HTTP middleware for the gramlock server: bearer
// JWT authentication, adapted from the teacher lineage's per-user
// AuthHandler down to a single shared-secret gate, since gramserver has no
// user/account domain of its own — every caller who knows the secret may
// create sessions and manage grammars.
package middle

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/gramlock/server/auth"
	"github.com/dekarrin/gramlock/server/result"
)

type ctxKey int

const (
	// AuthLoggedIn reports, as a bool, whether the request carried a valid
	// bearer token.
	AuthLoggedIn ctxKey = iota
)

// AuthHandler is middleware that extracts a bearer JWT, validates it against
// secret, and records the result in the request context before calling next.
// If required is set and validation fails, the request is rejected with
// HTTP-401 before next ever sees it.
type AuthHandler struct {
	secret        []byte
	required      bool
	unauthedDelay time.Duration
	next          http.Handler
}

func (ah *AuthHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	loggedIn := false

	tok, err := getBearerToken(req)
	if err == nil {
		err = auth.VerifyToken(ah.secret, tok)
	}
	if err != nil {
		if ah.required {
			r := result.Unauthorized("valid bearer token required", err.Error())
			time.Sleep(ah.unauthedDelay)
			r.WriteResponse(w)
			return
		}
	} else {
		loggedIn = true
	}

	ctx := context.WithValue(req.Context(), AuthLoggedIn, loggedIn)
	ah.next.ServeHTTP(w, req.WithContext(ctx))
}

// RequireAuth builds an AuthHandler that rejects requests without a valid
// bearer token.
func RequireAuth(secret []byte, unauthedDelay time.Duration, next http.Handler) *AuthHandler {
	return &AuthHandler{secret: secret, unauthedDelay: unauthedDelay, required: true, next: next}
}

// OptionalAuth builds an AuthHandler that annotates the request with
// AuthLoggedIn but never rejects it outright.
func OptionalAuth(secret []byte, unauthedDelay time.Duration, next http.Handler) *AuthHandler {
	return &AuthHandler{secret: secret, unauthedDelay: unauthedDelay, required: false, next: next}
}

func getBearerToken(req *http.Request) (string, error) {
	h := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", errNoBearerToken
	}
	return strings.TrimPrefix(h, prefix), nil
}

var errNoBearerToken = &authError{"no bearer token in Authorization header"}

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }
