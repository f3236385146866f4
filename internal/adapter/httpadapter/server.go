package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/county-data-pipeline/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotSource exposes the latest snapshot and service readiness.
type SnapshotSource interface {
	sharedobs.ReadinessChecker
	Snapshot() *domain.Snapshot
}

// Server exposes health, readiness, metrics, and the snapshot API.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and /api routes.
func NewServer(addr string, snapshots SnapshotSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(snapshots))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/snapshot", s.withSnapshot(s.handleSnapshot))
	mux.HandleFunc("GET /api/choropleths/{name}", s.withSnapshot(s.handleChoropleth))
	mux.HandleFunc("GET /api/scatters/{name}", s.withSnapshot(s.handleScatter))
	mux.HandleFunc("GET /api/trends/{name}", s.withSnapshot(s.handleTrend))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type snapshotHandler func(w http.ResponseWriter, r *http.Request, snap *domain.Snapshot)

// withSnapshot answers 503 until the first snapshot has loaded.
func (s *Server) withSnapshot(h snapshotHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.snapshots.Snapshot()
		if snap == nil {
			writeError(w, http.StatusServiceUnavailable, "no snapshot loaded yet")
			return
		}
		h(w, r, snap)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request, snap *domain.Snapshot) {
	writeJSON(w, http.StatusOK, summarize(snap))
}

func (s *Server) handleChoropleth(w http.ResponseWriter, r *http.Request, snap *domain.Snapshot) {
	name := r.PathValue("name")
	view, ok := snap.Choropleth(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown choropleth "+name)
		return
	}

	body, err := encodeChoropleth(view.Join)
	if err != nil {
		s.logger.Error("encode choropleth failed", "view", name, "error", err)
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Matched-Count", strconv.Itoa(view.Join.MatchedCount))
	w.Header().Set("X-Snapshot-Id", snap.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client disconnects are not actionable
}

func (s *Server) handleScatter(w http.ResponseWriter, r *http.Request, snap *domain.Snapshot) {
	name := r.PathValue("name")
	view, ok := snap.Scatter(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown scatter "+name)
		return
	}
	resp := scatterResponse{ScatterView: view}
	if view.Result != nil {
		resp.PointsOfInterest = view.Result.PointsOfInterest()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request, snap *domain.Snapshot) {
	name := r.PathValue("name")
	ts, ok := snap.Trend(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown trend "+name)
		return
	}
	resp := trendResponse{TrendSeries: ts, Change: ts.Change()}
	if pct, ok := ts.PercentChange(); ok {
		resp.PercentChange = &pct
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
