// Package server exposes a resolver over HTTP.
//
// Routes:
//
//	GET /healthz
//	GET /v1/artifacts/{groupId}/{artifactId}/{constraint}
//	GET /v1/artifacts/{groupId}/{artifactId}/{version}/file
//	GET /v1/versions/{groupId}/{artifactId}
//
// Version constraints are path segments and must be URL-escaped, e.g.
// /v1/artifacts/org.slf4j/slf4j-api/%5B2.0,3.0%29. Errors are returned as
// JSON with the resolver's error code.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
	"github.com/matzehuels/mvnresolve/pkg/maven/resolver"
)

// Resolver is what the server needs from a [resolver.Resolver].
type Resolver interface {
	Resolve(ctx context.Context, groupID, artifactID, constraint string) (*pom.Descriptor, error)
	ListVersions(ctx context.Context, groupID, artifactID string) ([]resolver.RepositoryVersions, error)
}

// Server serves resolution requests.
type Server struct {
	res    Resolver
	logger *log.Logger
	router chi.Router
}

// New returns a Server backed by res. A nil logger defaults to log.Default().
func New(res Resolver, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{res: res, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/artifacts/{groupId}/{artifactId}/{constraint}", s.handleResolve)
		r.Get("/artifacts/{groupId}/{artifactId}/{version}/file", s.handleArtifactFile)
		r.Get("/versions/{groupId}/{artifactId}", s.handleVersions)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no such route", RequestID: requestIDFrom(r.Context())})
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
