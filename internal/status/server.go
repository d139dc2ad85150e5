// Package status implements the Status Server (§4.P): a minimal, read-only
// HTTP surface over a book's on-disk progress, the ingestion metrics
// registry, and the entity graph's top-weighted nodes. It deliberately does
// not reuse engine/rag's chat-completion surface — this is an operator
// dashboard backend, not a query interface.
package status

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/Arjun3125/doctrine-ingest/engine/entitygraph"
	"github.com/Arjun3125/doctrine-ingest/engine/progress"
	"github.com/Arjun3125/doctrine-ingest/pkg/metrics"
)

// Server bundles the read-only collaborators the status endpoints query.
type Server struct {
	StorageRoot string
	Metrics     *metrics.Registry
	Graph       *entitygraph.GraphStore // nil: /status/entities/top reports an empty list
	Logger      *slog.Logger
}

// New builds a Server. A nil logger falls back to slog.Default.
func New(storageRoot string, reg *metrics.Registry, graph *entitygraph.GraphStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{StorageRoot: storageRoot, Metrics: reg, Graph: graph, Logger: logger}
}

// Routes registers the status endpoints on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /status/progress", s.handleProgress)
	mux.HandleFunc("GET /status/metrics", s.handleMetrics)
	mux.HandleFunc("GET /status/entities/top", s.handleTopEntities)
}

// handleProgress reports every book's last-recorded progress.json under
// StorageRoot, keyed by its storage-directory name.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if book := r.URL.Query().Get("book"); book != "" {
		rec, ok, err := progress.Read(bookDir(s.StorageRoot, book))
		if err != nil {
			http.Error(w, `{"error":"failed to read progress"}`, http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, `{"error":"no progress recorded for book"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, rec)
		return
	}

	books, err := progress.ListBooks(s.StorageRoot)
	if err != nil {
		s.Logger.Error("status: list books failed", "err", err)
		http.Error(w, `{"error":"failed to list books"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, books)
}

// handleMetrics renders the Prometheus text exposition format, same as the
// embedded metrics registry's own handler — exposed here too so a single
// status port can serve both dashboards and scrapers.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.Metrics.Handler().ServeHTTP(w, r)
}

// handleTopEntities reports the highest-weight entity-graph nodes of a kind
// (default "entity"; also accepts "domain").
func (s *Server) handleTopEntities(w http.ResponseWriter, r *http.Request) {
	if s.Graph == nil {
		writeJSON(w, []entitygraph.EntityNode{})
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "entity"
	}
	limit := 10

	nodes, err := s.Graph.TopWeighted(r.Context(), kind, limit)
	if err != nil {
		s.Logger.Error("status: top entities query failed", "err", err)
		http.Error(w, `{"error":"entity graph query failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, nodes)
}

func bookDir(storageRoot, book string) string {
	return filepath.Join(storageRoot, book)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
