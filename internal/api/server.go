// Package api serves a report directory and the stored run history over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/trajectory.report/internal/db"
	"github.com/banshee-data/trajectory.report/internal/httputil"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const defaultRunsLimit = 50

// RunStore is the part of the results database the API reads.
type RunStore interface {
	Runs(ctx context.Context, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, id string) (*db.Run, error)
	RunStats(ctx context.Context, id string) ([]kinematics.Stats, error)
}

type Server struct {
	store     RunStore
	reportDir string
}

// NewServer creates a server. store may be nil, in which case the /api
// routes answer 404 and only the report directory is served.
func NewServer(store RunStore, reportDir string) *Server {
	return &Server{store: store, reportDir: reportDir}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the routes: the run API under /api/ and the report
// directory at the root.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/", s.runRoutes)
	if s.reportDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.reportDir)))
	}
	return mux
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "no results database")
		return
	}

	limit, err := httputil.QueryInt(r, "limit", defaultRunsLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	runs, err := s.store.Runs(r.Context(), limit)
	if err != nil {
		monitoring.Logf("list runs: %v", err)
		httputil.InternalServerError(w, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

// runRoutes handles /api/runs/{id}, /api/runs/{id}/stats and
// /api/runs/{id}/summary.
func (s *Server) runRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "no results database")
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/"), "/")
	id := parts[0]
	if id == "" || len(parts) > 2 {
		httputil.NotFound(w, "not found")
		return
	}

	view := ""
	if len(parts) == 2 {
		view = parts[1]
	}

	switch view {
	case "":
		run, err := s.store.GetRun(r.Context(), id)
		if err != nil {
			s.storeError(w, err)
			return
		}
		httputil.WriteJSONOK(w, run)
	case "stats":
		stats, err := s.store.RunStats(r.Context(), id)
		if err != nil {
			s.storeError(w, err)
			return
		}
		httputil.WriteJSONOK(w, stats)
	case "summary":
		stats, err := s.store.RunStats(r.Context(), id)
		if err != nil {
			s.storeError(w, err)
			return
		}
		httputil.WriteJSONOK(w, newSummaryResponse(kinematics.Summarise(stats)))
	default:
		httputil.NotFound(w, "not found")
	}
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	monitoring.Logf("run lookup: %v", err)
	httputil.InternalServerError(w, "failed to read run")
}

type summaryResponse struct {
	Entities          int     `json:"entities"`
	MeanTotalDistance float64 `json:"mean_total_distance"`
	MeanAverageSpeed  float64 `json:"mean_average_speed"`
	MeanDuration      float64 `json:"mean_duration"`
	MaxSpeed          float64 `json:"max_speed"`
	MaxSpeedEntity    string  `json:"max_speed_entity"`
	MostActive        string  `json:"most_active"`
	Fastest           string  `json:"fastest"`
	Longest           string  `json:"longest"`
	DominantDirection string  `json:"dominant_direction"`
	DominantShare     float64 `json:"dominant_share"`
}

func newSummaryResponse(sum kinematics.Summary) summaryResponse {
	return summaryResponse{
		Entities:          sum.Entities,
		MeanTotalDistance: sum.MeanTotalDistance,
		MeanAverageSpeed:  sum.MeanAverageSpeed,
		MeanDuration:      sum.MeanDuration,
		MaxSpeed:          sum.MaxSpeed,
		MaxSpeedEntity:    sum.MaxSpeedEntity,
		MostActive:        sum.MostActive.EntityID,
		Fastest:           sum.Fastest.EntityID,
		Longest:           sum.Longest.EntityID,
		DominantDirection: sum.DominantDirection,
		DominantShare:     sum.DominantShare,
	}
}
