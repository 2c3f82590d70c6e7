// Package api exposes sessions and their analysis results over HTTP JSON,
// plus HTML chart renderings of the reconstructed course.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/circuit.report/internal/analysis"
	"github.com/banshee-data/circuit.report/internal/config"
	"github.com/banshee-data/circuit.report/internal/db"
	"github.com/banshee-data/circuit.report/internal/laps"
	"github.com/banshee-data/circuit.report/internal/units"
	"github.com/banshee-data/circuit.report/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db     *db.DB
	tuning *config.Tuning
}

func NewServer(database *db.DB, tuning *config.Tuning) *Server {
	if tuning == nil {
		tuning = config.DefaultTuning()
	}
	return &Server{db: database, tuning: tuning}
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
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", s.listSessions)
	mux.HandleFunc("/laps", s.showLaps)
	mux.HandleFunc("/course", s.showCourse)
	mux.HandleFunc("/period", s.showPeriod)
	mux.HandleFunc("/config", s.showConfig)
	mux.HandleFunc("/version", s.showVersion)
	mux.HandleFunc("/charts/course", s.chartCourse)
	mux.HandleFunc("/charts/laptimes", s.chartLapTimes)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// analyzerForRequest resolves the session_id query param to a ready
// Analyzer over that session's rows.
func (s *Server) analyzerForRequest(w http.ResponseWriter, r *http.Request) (*analysis.Analyzer, string, bool) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "session_id query parameter is required")
		return nil, "", false
	}
	rows, err := s.db.LoadRows(sessionID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load session rows: %v", err))
		return nil, "", false
	}
	if len(rows) == 0 {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no telemetry for session %q", sessionID))
		return nil, "", false
	}
	return analysis.New(rows, s.tuning), sessionID, true
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessions, err := s.db.ListSessions()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	s.writeJSON(w, sessions)
}

func (s *Server) showLaps(w http.ResponseWriter, r *http.Request) {
	unit := r.URL.Query().Get("units")
	if unit == "" {
		unit = units.MS
	}
	if !units.IsValid(unit) {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid units %q (valid: %v)", unit, units.ValidUnits))
		return
	}

	a, sessionID, ok := s.analyzerForRequest(w, r)
	if !ok {
		return
	}
	report := a.Laps()

	// Cache the boundaries; failures are logged, not fatal, since the
	// report was computed fresh anyway. Stored durations stay in ms.
	if err := s.db.SaveBoundaries(sessionID, report.LapTimes, report.Method); err != nil {
		log.Printf("failed to cache boundaries for %s: %v", sessionID, err)
	}

	if unit != units.MS {
		report.PredictedBestLapMs = units.ConvertDuration(report.PredictedBestLapMs, unit)
		report.PredictedAverageLapMs = units.ConvertDuration(report.PredictedAverageLapMs, unit)
		report.DetectedPeriodMs = units.ConvertDuration(report.DetectedPeriodMs, unit)
		converted := make([]laps.Boundary, len(report.LapTimes))
		for i, b := range report.LapTimes {
			converted[i] = laps.Boundary{
				Lap:        b.Lap,
				StartMs:    units.ConvertDuration(b.StartMs, unit),
				EndMs:      units.ConvertDuration(b.EndMs, unit),
				DurationMs: units.ConvertDuration(b.DurationMs, unit),
			}
		}
		report.LapTimes = converted
	}
	s.writeJSON(w, report)
}

func (s *Server) showCourse(w http.ResponseWriter, r *http.Request) {
	a, sessionID, ok := s.analyzerForRequest(w, r)
	if !ok {
		return
	}
	shape := a.Course()
	if err := s.db.SaveCourse(sessionID, shape); err != nil {
		log.Printf("failed to cache course for %s: %v", sessionID, err)
	}
	s.writeJSON(w, shape)
}

func (s *Server) showPeriod(w http.ResponseWriter, r *http.Request) {
	a, _, ok := s.analyzerForRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, a.Period())
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, map[string]any{
		"direction":        string(s.tuning.GetDirection()),
		"lap_source":       s.tuning.GetLapSource(),
		"base_speed":       s.tuning.GetBaseSpeed(),
		"steer_gain":       s.tuning.GetSteerGain(),
		"steer_speed_loss": s.tuning.GetSteerSpeedLoss(),
		"brake_speed_loss": s.tuning.GetBrakeSpeedLoss(),
		"steer_gamma":      s.tuning.GetSteerGamma(),
		"smooth_window":    s.tuning.GetSmoothWindow(),
		"base_dt_ms":       s.tuning.GetBaseDtMs(),
	})
}
