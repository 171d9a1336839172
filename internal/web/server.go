// Package web wires the HTTP server: routing, middleware and graceful
// shutdown.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/bhulekh-reconcile/internal/config"
	"github.com/bhulekh-reconcile/internal/store"
	"github.com/bhulekh-reconcile/internal/verify"
	"github.com/bhulekh-reconcile/internal/web/handlers"
	"github.com/bhulekh-reconcile/internal/web/middleware"
)

// Server is the HTTP front of the reconciliation service.
type Server struct {
	cfg        *config.Config
	store      *store.Store
	log        zerolog.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a server around an open store.
func NewServer(cfg *config.Config, st *store.Store, log zerolog.Logger) *Server {
	s := &Server{cfg: cfg, store: st, log: log}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	reconcileHandler := &handlers.ReconcileHandler{
		Store:    s.store,
		Matching: s.cfg.Matching,
		Log:      s.log,
	}
	matchesHandler := &handlers.MatchesHandler{
		Store:    s.store,
		Verifier: verify.NewVerifier(s.store, s.log),
		Log:      s.log,
	}

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/reconcile", reconcileHandler.Run).Methods("POST")
	api.HandleFunc("/reconcile/stats", reconcileHandler.Stats).Methods("GET")

	api.HandleFunc("/matches", matchesHandler.List).Methods("GET")
	api.HandleFunc("/matches/{id}", matchesHandler.Get).Methods("GET")
	api.HandleFunc("/matches/{id}/history", matchesHandler.History).Methods("GET")
	api.HandleFunc("/matches/{id}/verify", matchesHandler.Verify).Methods("POST")

	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(s.log))

	if s.cfg.Auth.Enabled {
		api.Use(middleware.Authentication(s.cfg.Auth.APIKey))
	}
}

// Start runs the server until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("server error")
		}
	}()

	<-stop
	s.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
