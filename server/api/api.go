// Package api provides the HTTP handlers for the gramlock server: grammar
// storage (component H's /grammars CRUD) and the live session endpoints
// (/sessions/*) that wrap component F's Session.MaskScores/Advance/EnterRule
// for a host that talks HTTP instead of linking the engine directly.
//
// Modeled on the teacher lineage's own server/api package: an API struct
// carrying a service/store plus cross-cutting settings, httpEndpoint
// wrapping every handler for panic recovery and uniform logging, and
// result.Result as the single response currency.
package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dekarrin/gramlock"
	"github.com/dekarrin/gramlock/oracle"
	"github.com/dekarrin/gramlock/server/auth"
	"github.com/dekarrin/gramlock/server/dao"
	"github.com/dekarrin/gramlock/server/result"
	"github.com/dekarrin/gramlock/server/serr"
)

// API holds the persistence and cross-cutting settings every endpoint needs.
// Create one and assign its HTTP* methods as chi handlers.
type API struct {
	Store       dao.Store
	UnauthDelay time.Duration
	Secret      []byte

	mu       sync.Mutex
	sessions map[uuid.UUID]*liveSession
}

// liveSession is the in-memory counterpart to a dao.Checkpoint row: the
// actual *gramlock.Session a host is driving, plus the oracle.Oracle its
// vocab table produced, kept only as long as the process is up. A restart
// recovers from the last persisted checkpoint via RestoreSession.
type liveSession struct {
	Session   *gramlock.Session
	Oracle    oracle.Oracle
	GrammarID uuid.UUID
}

func (a *API) put(id uuid.UUID, ls *liveSession) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sessions == nil {
		a.sessions = make(map[uuid.UUID]*liveSession)
	}
	a.sessions[id] = ls
}

func (a *API) get(id uuid.UUID) (*liveSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ls, ok := a.sessions[id]
	return ls, ok
}

func (a *API) delete(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, id)
}

// HTTPCreateLogin exchanges the configured shared secret for a short-lived
// bearer token, the same credential-for-token shape as the teacher's own
// HTTPCreateLogin, simplified since gramserver has no per-user accounts.
func (a *API) HTTPCreateLogin() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epCreateLogin)
}

type loginRequest struct {
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (a *API) epCreateLogin(req *http.Request) result.Result {
	var body loginRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if body.Secret != string(a.Secret) {
		return result.Unauthorized(serr.ErrBadCredentials.Error(), "presented secret did not match")
	}

	tok, err := auth.GenerateToken(a.Secret)
	if err != nil {
		return result.InternalServerError("could not generate token: " + err.Error())
	}
	return result.Created(loginResponse{Token: tok}, "issued bearer token")
}

func httpEndpoint(unauthDelay time.Duration, ep func(req *http.Request) result.Result) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)
		r := ep(req)

		if r.Status == 0 {
			logHTTP(logrus.ErrorLevel, req, http.StatusInternalServerError, "endpoint result was never populated")
			http.Error(w, "An internal server error occurred", http.StatusInternalServerError)
			return
		}

		if err := r.PrepareMarshaledResponse(); err != nil {
			newResp := result.Err(r.Status, "An internal server error occurred", "could not marshal JSON response: "+err.Error())
			newResp.WriteResponse(w)
			return
		}

		if r.IsErr {
			logHTTP(logrus.ErrorLevel, req, r.Status, r.InternalMsg)
		} else {
			logHTTP(logrus.InfoLevel, req, r.Status, r.InternalMsg)
		}

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			time.Sleep(unauthDelay)
		}

		r.WriteResponse(w)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) {
	if panicErr := recover(); panicErr != nil {
		result.TextErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		).WriteResponse(w)
	}
}

func logHTTP(level logrus.Level, req *http.Request, status int, msg string) {
	remoteIP := strings.SplitN(req.RemoteAddr, ":", 2)[0]
	logrus.WithFields(logrus.Fields{
		"remote_ip": remoteIP,
		"method":    req.Method,
		"path":      req.URL.Path,
		"status":    status,
	}).Log(level, msg)
}

// v must be a pointer to a type.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if strings.ToLower(contentType) != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}
	return nil
}

func requireIDParam(req *http.Request, key string) (uuid.UUID, error) {
	valStr := chi.URLParam(req, key)
	if valStr == "" {
		return uuid.UUID{}, fmt.Errorf("parameter %q does not exist", key)
	}
	return uuid.Parse(valStr)
}

func chiURLParam(req *http.Request, key string) string {
	return chi.URLParam(req, key)
}

func encodeCheckpoint(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
