// Package web exposes a finished resolution run over a read-only JSON
// API. The server holds one run in memory; nothing here mutates it.
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

	"github.com/storematch/internal/engine"
	"github.com/storematch/internal/store"
)

// Server serves a single resolution result.
type Server struct {
	result     *engine.Result
	directory  *store.Directory
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a web server instance for the given run.
func NewServer(host string, port int, res *engine.Result, directory *store.Directory) *Server {
	s := &Server{
		result:    res,
		directory: directory,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	s.router.Use(requestLogging())

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/summary", s.handleSummary).Methods("GET")
	api.HandleFunc("/assignments", s.handleAssignments).Methods("GET")
	api.HandleFunc("/assignments/{id}", s.handleAssignment).Methods("GET")
	api.HandleFunc("/stores/{id:[0-9]+}/assignments", s.handleStoreAssignments).Methods("GET")
	api.HandleFunc("/pairings", s.handlePairings).Methods("GET")
	api.HandleFunc("/conflicts", s.handleConflicts).Methods("GET")
	api.HandleFunc("/audit", s.handleAudit).Methods("GET")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// Start runs the server until SIGINT or SIGTERM, then shuts it down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Serving run %s on http://%s\n", s.result.RunID, s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	<-stop
	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	fmt.Println("Server stopped")
	return nil
}

// Handler returns the route tree, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
