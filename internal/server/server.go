package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/projectdiscovery/gologger"

	"linkdedup/internal/models"
	"linkdedup/internal/storage"
)

// Server exposes stored deduplication results as a local JSON API.
type Server struct {
	storage     *storage.Storage
	port        int
	idleTimeout time.Duration
	httpServer  *http.Server

	// Idle timeout management
	mu           sync.Mutex
	lastActivity time.Time
	shutdownChan chan struct{}
}

// New creates a new Server over the given results database.
func New(dbPath string, port int, idleTimeout time.Duration) (*Server, error) {
	store, err := storage.New(dbPath)
	if err != nil {
		return nil, err
	}

	return &Server{
		storage:      store,
		port:         port,
		idleTimeout:  idleTimeout,
		lastActivity: time.Now(),
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start runs the server until a shutdown signal or the idle timeout.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/batches", s.touch(s.handleBatches))
	mux.HandleFunc("/api/groups", s.touch(s.handleGroups))
	mux.HandleFunc("/api/stats", s.touch(s.handleStats))

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	if s.idleTimeout > 0 {
		go s.idleTimeoutChecker()
	}
	go s.handleShutdownSignals()

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleShutdownSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		gologger.Info().Msg("Shutting down server...")
	case <-s.shutdownChan:
		gologger.Info().Msg("Idle timeout reached. Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.httpServer.Shutdown(ctx)
	s.storage.Close()
}

func (s *Server) idleTimeoutChecker() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		idle := time.Since(s.lastActivity)
		s.mu.Unlock()
		if idle > s.idleTimeout {
			close(s.shutdownChan)
			return
		}
	}
}

// touch resets the idle clock on every request.
func (s *Server) touch(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.lastActivity = time.Now()
		s.mu.Unlock()
		h(w, r)
	}
}

func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.storage.Batches()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, batches)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	batchID, err := s.batchID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	groups, err := s.storage.Groups(batchID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// Singleton groups are noise to a consumer of this endpoint.
	dups := make([]*models.DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if g.DupCount() > 0 {
			dups = append(dups, g)
		}
	}
	writeJSON(w, dups)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	batchID, err := s.batchID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	batch, err := s.storage.Batch(batchID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, batch.Stats)
}

func (s *Server) batchID(r *http.Request) (string, error) {
	if id := r.URL.Query().Get("batch"); id != "" {
		return id, nil
	}
	return s.storage.LatestBatchID()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
