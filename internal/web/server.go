// Package web is the server-rendered shell for the courseware client:
// a login form, the course pages behind the session gate, and the
// metrics endpoint.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"filippo.io/csrf"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/openlearn/courseware/internal/api"
	"github.com/openlearn/courseware/internal/gate"
	httpmiddleware "github.com/openlearn/courseware/internal/http"
	"github.com/openlearn/courseware/internal/metrics"
	"github.com/openlearn/courseware/internal/models"
	"github.com/openlearn/courseware/internal/session"
)

// Server serves the courseware web shell for one signed-in user.
type Server struct {
	store  *session.Store
	client *api.Client
	log    zerolog.Logger

	addr    string
	handler http.Handler
}

// NewServer wires the routes, gate middleware and CSRF protection.
func NewServer(addr string, store *session.Store, client *api.Client, registry *prometheus.Registry, log zerolog.Logger) *Server {
	s := &Server{
		store:  store,
		client: client,
		log:    log,
		addr:   addr,
	}

	r := chi.NewRouter()
	r.Use(httpmiddleware.ClientIPMiddleware())
	r.Use(httpmiddleware.RequestLogger(log))

	r.Get("/", s.home)
	r.Get("/login", s.loginForm)
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)
	r.Handle("/metrics", metrics.Handler(registry))

	r.Group(func(r chi.Router) {
		r.Use(gate.Require(store))
		r.Get("/courses", s.courses)
	})

	r.Group(func(r chi.Router) {
		r.Use(gate.Require(store, models.RoleInstructor))
		r.Get("/instructor", s.instructor)
	})

	r.Group(func(r chi.Router) {
		r.Use(gate.Require(store, models.RoleAdmin))
		r.Get("/admin", s.admin)
	})

	s.handler = csrf.New().Handler(r)
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("starting web shell")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.log.Info().Msg("shutting down web shell")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
