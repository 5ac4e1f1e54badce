// Package web provides the HTTP surface of the bridge: the settings and
// history REST endpoints, the status endpoint, and the websocket upgrade
// into the hub.
package web

import (
	"bytes"
	"context"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sweeney/plant-bridge/internal/auth"
	"github.com/sweeney/plant-bridge/internal/history"
	"github.com/sweeney/plant-bridge/internal/hub"
	"github.com/sweeney/plant-bridge/internal/settings"
	"github.com/sweeney/plant-bridge/internal/status"
)

// Config wires a Server to its collaborators.
type Config struct {
	Addr     string
	Settings *settings.Manager
	Gate     auth.Validator
	Hub      *hub.Hub
	History  *history.Ring
	Tracker  *status.Tracker
}

// Server serves the bridge's HTTP API.
type Server struct {
	httpServer *http.Server
	settings   *settings.Manager
	gate       auth.Validator
	hub        *hub.Hub
	history    *history.Ring
	tracker    *status.Tracker
	log        *zap.Logger
}

// New creates a Server.
func New(cfg Config, log *zap.Logger) *Server {
	s := &Server{
		settings: cfg.Settings,
		gate:     cfg.Gate,
		hub:      cfg.Hub,
		history:  cfg.History,
		tracker:  cfg.Tracker,
		log:      log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/settings", s.requireAuth(s.handleGetSettings)).Methods(http.MethodGet)
	r.HandleFunc("/api/settings", s.requireAuth(s.handlePostSettings)).Methods(http.MethodPost)
	r.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.HandleWS)
	}

	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: handlers.CombinedLoggingHandler(&zapWriter{log: log}, r),
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// zapWriter adapts the access-log line stream to the structured logger.
type zapWriter struct {
	log *zap.Logger
}

func (w *zapWriter) Write(p []byte) (int, error) {
	w.log.Info("http", zap.ByteString("access", bytes.TrimRight(p, "\n")))
	return len(p), nil
}
