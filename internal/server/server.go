// Package server hosts the HTTP API and the websocket change feed.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/data-alchemist/internal/assistant"
	"github.com/ziadkadry99/data-alchemist/internal/audit"
	"github.com/ziadkadry99/data-alchemist/internal/confidence"
	"github.com/ziadkadry99/data-alchemist/internal/db"
	"github.com/ziadkadry99/data-alchemist/internal/export"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server exposes a workspace over HTTP.
type Server struct {
	cfg        Config
	ws         *workspace.Workspace
	db         *db.DB
	audit      *audit.Store
	scores     *confidence.Store
	parser     *assistant.Parser
	hub        *Hub
	router     chi.Router
	httpServer *http.Server
}

// New creates a server for ws. Audit entries and confidence scores are kept
// in database, and the workspace's changes are recorded there.
func New(cfg Config, ws *workspace.Workspace, database *db.DB, parser *assistant.Parser) *Server {
	if parser == nil {
		parser = assistant.NewParser(nil, "", 0)
	}
	s := &Server{
		cfg:    cfg,
		ws:     ws,
		db:     database,
		audit:  audit.NewStore(database),
		scores: confidence.NewStore(database),
		parser: parser,
		hub:    NewHub(),
	}
	ws.SetRecorder(s.audit)
	s.hub.Watch(ws)

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// The websocket stays open well past any request timeout.
	r.Get("/ws", s.hub.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		workspace.RegisterRoutes(r, s.ws)
		confidence.RegisterRoutes(r, s.scores, s.ws)
		assistant.RegisterRoutes(r, s.parser, s.ws, s.scores)
		export.RegisterRoutes(r, s.ws, s.audit)
		audit.RegisterRoutes(r, s.audit)
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Hub returns the websocket change feed.
func (s *Server) Hub() *Hub { return s.hub }

// Audit returns the audit log backing the server.
func (s *Server) Audit() *audit.Store { return s.audit }

// Start begins listening on the configured port. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	log.Printf("alchemist server listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown disconnects websocket subscribers and gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}
