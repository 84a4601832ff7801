// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"
)

// Server is the API server.
type Server struct {
	http.Server
	stop func()
}

// NewServer creates a configured server bound to addr.
func NewServer(addr string, deps Deps) *Server {
	handler, stop := NewRouter(deps)
	return &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		stop: stop,
	}
}

// Shutdown gracefully shuts down the server and stops background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	return s.Server.Shutdown(ctx)
}
