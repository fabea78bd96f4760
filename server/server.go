// Package server wires the gramlock HTTP API together: configuration,
// persistence, authentication middleware, and the chi router, the same
// shape as the teacher lineage's own server.go/endpoints.go split but
// rebuilt around component F's Session type instead of a game loop.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dekarrin/gramlock/server/api"
	"github.com/dekarrin/gramlock/server/auth"
	"github.com/dekarrin/gramlock/server/dao"
	"github.com/dekarrin/gramlock/server/middle"
)

// Server bundles an http.Server with the chi router and API backing it.
type Server struct {
	http *http.Server
	api  *api.API
}

// New builds a Server listening on cfg.ListenAddress, backed by st. The
// returned Server is ready for ListenAndServe; it has not started yet.
func New(cfg Config, st dao.Store) (*Server, error) {
	secret, err := auth.NormalizeSecret(cfg.Secret)
	if err != nil {
		return nil, err
	}

	a := &api.API{
		Store:       st,
		UnauthDelay: cfg.UnauthDelay(),
		Secret:      secret,
	}

	r := chi.NewRouter()

	r.Post("/login", a.HTTPCreateLogin())

	r.Route("/grammars", func(r chi.Router) {
		r.Use(requireAuth(secret, cfg.UnauthDelay()))
		r.Post("/", a.HTTPCreateGrammar())
		r.Get("/", a.HTTPGetAllGrammars())
		r.Get("/{id}", a.HTTPGetGrammar())
		r.Put("/{id}", a.HTTPUpdateGrammar())
		r.Delete("/{id}", a.HTTPDeleteGrammar())
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Use(requireAuth(secret, cfg.UnauthDelay()))
		r.Post("/", a.HTTPCreateSession())
		r.Get("/{id}", a.HTTPGetSession())
		r.Delete("/{id}", a.HTTPDeleteSession())
		r.Post("/{id}/mask", a.HTTPMaskSession())
		r.Post("/{id}/advance", a.HTTPAdvanceSession())
		r.Post("/{id}/enter/{rule}", a.HTTPEnterRule())
		r.Post("/{id}/checkpoint", a.HTTPCheckpointSession())
		r.Post("/{id}/restore", a.HTTPRestoreSession())
	})

	return &Server{
		http: &http.Server{
			Addr:    cfg.ListenAddress,
			Handler: r,
		},
		api: a,
	}, nil
}

func requireAuth(secret []byte, unauthedDelay time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return middle.RequireAuth(secret, unauthedDelay, next)
	}
}

// ListenAndServe starts the HTTP server and blocks until it exits or ctx is
// canceled, in which case it is shut down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
