// Package api is the solve daemon's HTTP surface: one endpoint per
// analysis method, a model summary endpoint, the run archive, health, and
// Prometheus metrics.
package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/engine"
	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
	"github.com/rmax-ai/fluxlord/pkg/store"
	rediscache "github.com/rmax-ai/fluxlord/pkg/store/redis"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// Archive is the store surface the server needs. Nil disables archiving.
type Archive interface {
	RecordRun(ctx context.Context, run store.Run) (int64, error)
	RecentRuns(ctx context.Context, limit int) ([]store.Run, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// Cache is the solve-result cache surface. Nil disables caching.
type Cache interface {
	Get(ctx context.Context, key string) (analysis.Solution, bool, error)
	Set(ctx context.Context, key string, sol analysis.Solution) error
}

// Models is the uploaded-model store surface. Nil disables /models and
// solve-by-digest.
type Models interface {
	Put(ctx context.Context, m *model.Model) (string, error)
	Get(ctx context.Context, digest string) (*model.Model, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, digest string) error
}

// Server encapsulates the HTTP API server.
type Server struct {
	dispatcher *engine.Dispatcher
	archive    Archive
	cache      Cache
	models     Models
	server     *http.Server
	version    string
	started    time.Time
}

// NewServer wires routes and middleware. archive, cache and models may be nil.
func NewServer(d *engine.Dispatcher, archive Archive, cache Cache, models Models, version, addr string) *Server {
	s := &Server{
		dispatcher: d,
		archive:    archive,
		cache:      cache,
		models:     models,
		version:    version,
		started:    time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/solve/", s.handleSolve)
	mux.HandleFunc("/model/info", s.handleModelInfo)
	mux.HandleFunc("/models", s.handleModels)
	mux.HandleFunc("/models/", s.handleModelDelete)
	mux.HandleFunc("/v1/runs", s.handleRuns)
	mux.HandleFunc("/v1/runs/stats", s.handleRunStats)
	mux.Handle("/metrics", promhttp.Handler())

	if addr == "" {
		addr = ":8990"
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: withLogging(withRecovery(mux)),
		// Solves can legitimately run for minutes; only reads are bounded
		// tightly.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the middleware-wrapped handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the HTTP server (blocking).
func (s *Server) Start() error {
	fmt.Printf(`{"level":"info","msg":"server_starting","addr":"%s"}`+"\n", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println(`{"level":"info","msg":"server_stopping"}`)
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       s.version,
		UptimeSeconds: time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	method, err := analysis.ParseMethod(strings.TrimPrefix(r.URL.Path, "/solve/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json_body")
		return
	}
	ctx := r.Context()
	if req.Model == nil && req.ModelDigest != "" {
		if s.models == nil {
			writeError(w, http.StatusBadRequest, "model store disabled, send the model inline")
			return
		}
		m, err := s.models.Get(ctx, req.ModelDigest)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		req.Model = m
	}
	if req.Model == nil || len(req.Model.Reactions) == 0 {
		writeError(w, http.StatusBadRequest, "request carries no model")
		return
	}

	var cacheKey string
	if s.cache != nil {
		if cacheKey, err = rediscache.Key(method, req.Model, req.Options); err == nil {
			if sol, hit, err := s.cache.Get(ctx, cacheKey); err == nil && hit {
				writeJSON(w, http.StatusOK, sol)
				return
			}
		}
	}

	sol, err := s.dispatcher.Solve(ctx, method, req.Model, req.Options)
	if err != nil {
		var ue *analysis.UsageError
		if errors.As(err, &ue) {
			writeError(w, http.StatusBadRequest, ue.Msg)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.cache != nil && cacheKey != "" && sol.Status == lp.StatusOptimal {
		if err := s.cache.Set(ctx, cacheKey, sol); err != nil {
			fmt.Printf(`{"level":"warn","msg":"cache_set_failed","error":"%v"}`+"\n", err)
		}
	}
	s.recordRun(ctx, req.Model, sol)
	writeJSON(w, http.StatusOK, sol)
}

func (s *Server) recordRun(ctx context.Context, m *model.Model, sol analysis.Solution) {
	if s.archive == nil {
		return
	}
	_, err := s.archive.RecordRun(ctx, store.Run{
		Method:      sol.Method,
		Strategy:    sol.Strategy,
		Status:      string(sol.Status),
		Objective:   sol.ObjectiveValue,
		GrowthRate:  sol.GrowthRate,
		Phenotype:   sol.Phenotype,
		ModelID:     m.ID,
		Reactions:   len(m.Reactions),
		Metabolites: len(m.Metabolites),
		DurationMS:  sol.SolveTime.Milliseconds(),
	})
	if err != nil {
		fmt.Printf(`{"level":"warn","msg":"run_archive_failed","error":"%v"}`+"\n", err)
	}
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	var m model.Model
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json_body")
		return
	}
	if len(m.Reactions) == 0 {
		writeError(w, http.StatusBadRequest, "request carries no model")
		return
	}
	writeJSON(w, http.StatusOK, m.Info())
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.models == nil {
		writeError(w, http.StatusNotFound, "model store disabled")
		return
	}
	switch r.Method {
	case http.MethodPost:
		var m model.Model
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json_body")
			return
		}
		if len(m.Reactions) == 0 {
			writeError(w, http.StatusBadRequest, "request carries no model")
			return
		}
		digest, err := s.models.Put(r.Context(), &m)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, ModelUploadResponse{Digest: digest, Info: m.Info()})
	case http.MethodGet:
		digests, err := s.models.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if digests == nil {
			digests = []string{}
		}
		writeJSON(w, http.StatusOK, digests)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (s *Server) handleModelDelete(w http.ResponseWriter, r *http.Request) {
	if s.models == nil {
		writeError(w, http.StatusNotFound, "model store disabled")
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	digest := strings.TrimPrefix(r.URL.Path, "/models/")
	if err := s.models.Delete(r.Context(), digest); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": digest})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		s.handleRunsPrune(w, r)
		return
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if s.archive == nil {
		writeJSON(w, http.StatusOK, []store.Run{})
		return
	}
	runs, err := s.archive.RecentRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleRunsPrune deletes archived runs older than the requested age,
// given as a Go duration (e.g. older_than=720h).
func (s *Server) handleRunsPrune(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "run archive disabled")
		return
	}
	age, err := time.ParseDuration(r.URL.Query().Get("older_than"))
	if err != nil || age <= 0 {
		writeError(w, http.StatusBadRequest, "invalid older_than duration")
		return
	}
	pruned, err := s.archive.PruneBefore(r.Context(), time.Now().Add(-age))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RunsPruneResponse{Pruned: pruned})
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	if s.archive == nil {
		writeJSON(w, http.StatusOK, map[string]int{})
		return
	}
	counts, err := s.archive.CountByStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if counts == nil {
		counts = map[string]int{}
	}
	writeJSON(w, http.StatusOK, counts)
}

// Middleware

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				fmt.Printf(`{"level":"error","msg":"panic_recovered","error":"%v","path":"%s"}`+"\n", err, r.URL.Path)
				http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = generateTraceID()
		}
		r = r.WithContext(context.WithValue(r.Context(), traceIDKey, traceID))

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(ww, r)

		fmt.Printf(`{"level":"info","msg":"http_request","trace_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`+"\n",
			traceID, r.Method, r.URL.Path, ww.status, time.Since(start).Milliseconds())
	})
}

func generateTraceID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
