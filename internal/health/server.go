package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/infra/storage"
)

// StatsSource reports dataset-level statistics.
type StatsSource interface {
	Stats(ctx context.Context) (*storage.DatasetStats, error)
}

// TaskSource reports the state of the task queue. Satisfied by the
// coordinator.
type TaskSource interface {
	Counts(ctx context.Context) (map[domain.TaskState]int, error)
	Paused() bool
}

// Server provides HTTP endpoints for health monitoring and run status.
type Server struct {
	pinger storage.Pinger
	stats  StatsSource
	tasks  TaskSource
	server *http.Server
}

// NewServer creates a new health server.
func NewServer(pinger storage.Pinger, stats StatsSource, tasks TaskSource, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		pinger: pinger,
		stats:  stats,
		tasks:  tasks,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := map[string]string{"status": "ok"}
	code := http.StatusOK

	if err := s.pinger.Ping(ctx); err != nil {
		response = map[string]string{"status": "unavailable", "error": err.Error()}
		code = http.StatusServiceUnavailable
	} else if s.tasks.Paused() {
		// Store just recovered or is flapping; dispatch has not resumed.
		response["status"] = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}

// StatusReport is the /status payload.
type StatusReport struct {
	Tasks          map[domain.TaskState]int `json:"tasks"`
	DispatchPaused bool                     `json:"dispatch_paused"`
	Dataset        *storage.DatasetStats    `json:"dataset"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.tasks.Counts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stats, err := s.stats.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusReport{
		Tasks:          counts,
		DispatchPaused: s.tasks.Paused(),
		Dataset:        stats,
	})
}
