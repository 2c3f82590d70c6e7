package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/circuit.report/internal/analysis"
	"github.com/banshee-data/circuit.report/internal/course"
	"github.com/banshee-data/circuit.report/internal/db"
	"github.com/banshee-data/circuit.report/internal/laps"
	"github.com/banshee-data/circuit.report/internal/testutil"
)

// testServer builds a server over a fresh database holding one analysable
// session, and returns its mux plus the session id.
func testServer(t *testing.T) (*http.ServeMux, *db.DB, string) {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	session, err := database.CreateSession("square laps")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	rows := testutil.SquareSession(20_000, 180_000, 50)
	if err := database.InsertRows(session.ID, rows); err != nil {
		t.Fatalf("InsertRows failed: %v", err)
	}

	return NewServer(database, nil).ServeMux(), database, session.ID
}

func get(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestListSessions(t *testing.T) {
	mux, _, _ := testServer(t)

	rec := get(t, mux, "/sessions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var sessions []db.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Name != "square laps" {
		t.Errorf("sessions: %+v", sessions)
	}
}

func TestListSessions_MethodNotAllowed(t *testing.T) {
	mux, _, _ := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status %d, want 405", rec.Code)
	}
}

func TestShowLaps(t *testing.T) {
	mux, database, sessionID := testServer(t)

	rec := get(t, mux, "/laps?session_id="+sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var report analysis.LapReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.PredictedLapCount < 8 {
		t.Errorf("lap count: got %d, want >= 8", report.PredictedLapCount)
	}
	if report.Method != laps.MethodTemplate {
		t.Errorf("method: got %q", report.Method)
	}

	// The handler caches boundaries for later inspection.
	cached, method, err := database.LoadBoundaries(sessionID)
	if err != nil {
		t.Fatalf("LoadBoundaries failed: %v", err)
	}
	if len(cached) != report.PredictedLapCount || method != report.Method {
		t.Errorf("cached %d boundaries (method %q), report had %d (%q)",
			len(cached), method, report.PredictedLapCount, report.Method)
	}
}

func TestShowLaps_UnitsConversion(t *testing.T) {
	mux, _, sessionID := testServer(t)

	rec := get(t, mux, "/laps?session_id="+sessionID+"&units=s")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var report analysis.LapReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.DetectedPeriodMs < 19 || report.DetectedPeriodMs > 21 {
		t.Errorf("period in seconds: got %v", report.DetectedPeriodMs)
	}
	for _, b := range report.LapTimes {
		if b.DurationMs > 25 {
			t.Errorf("lap duration should be in seconds, got %v", b.DurationMs)
		}
	}
}

func TestShowLaps_InvalidUnits(t *testing.T) {
	mux, _, sessionID := testServer(t)
	rec := get(t, mux, "/laps?session_id="+sessionID+"&units=hours")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}

func TestShowLaps_MissingSessionID(t *testing.T) {
	mux, _, _ := testServer(t)
	rec := get(t, mux, "/laps")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}

func TestShowLaps_UnknownSession(t *testing.T) {
	mux, _, _ := testServer(t)
	rec := get(t, mux, "/laps?session_id=nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestShowCourse(t *testing.T) {
	mux, database, sessionID := testServer(t)

	rec := get(t, mux, "/course?session_id="+sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var shape course.Shape
	if err := json.Unmarshal(rec.Body.Bytes(), &shape); err != nil {
		t.Fatalf("failed to decode shape: %v", err)
	}
	if len(shape.Points) != course.CanonicalPoints {
		t.Errorf("got %d points, want %d", len(shape.Points), course.CanonicalPoints)
	}

	cached, err := database.LoadCourse(sessionID)
	if err != nil {
		t.Fatalf("LoadCourse failed: %v", err)
	}
	if len(cached.Points) != len(shape.Points) {
		t.Errorf("cached %d points, served %d", len(cached.Points), len(shape.Points))
	}
}

func TestShowPeriod(t *testing.T) {
	mux, _, sessionID := testServer(t)

	rec := get(t, mux, "/period?session_id="+sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var est struct {
		PeriodMs      float64 `json:"period_ms"`
		LowConfidence bool    `json:"low_confidence"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &est); err != nil {
		t.Fatalf("failed to decode estimate: %v", err)
	}
	if est.PeriodMs < 19_000 || est.PeriodMs > 21_000 {
		t.Errorf("period: got %v", est.PeriodMs)
	}
	if est.LowConfidence {
		t.Error("strong signal should not be low confidence")
	}
}

func TestShowConfig(t *testing.T) {
	mux, _, _ := testServer(t)

	rec := get(t, mux, "/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var cfg map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}
	if cfg["base_speed"] != 1.0 {
		t.Errorf("base_speed: got %v", cfg["base_speed"])
	}
	if cfg["lap_source"] != "periodicity" {
		t.Errorf("lap_source: got %v", cfg["lap_source"])
	}
}

func TestShowVersion(t *testing.T) {
	mux, _, _ := testServer(t)

	rec := get(t, mux, "/version")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var v map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode version: %v", err)
	}
	if v["version"] == "" {
		t.Error("version should be set")
	}
}

func TestChartCourse(t *testing.T) {
	mux, _, sessionID := testServer(t)

	rec := get(t, mux, "/charts/course?session_id="+sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "echarts") {
		t.Error("expected an echarts page")
	}
}

func TestChartLapTimes(t *testing.T) {
	mux, _, sessionID := testServer(t)

	rec := get(t, mux, "/charts/laptimes?session_id="+sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: got %q", ct)
	}
}

func TestStatusCodeColor(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, colorBoldGreen + "200" + colorReset},
		{302, colorYellow + "302" + colorReset},
		{500, colorBoldRed + "500" + colorReset},
		{100, "100"},
	}
	for _, tt := range tests {
		if got := statusCodeColor(tt.code); got != tt.want {
			t.Errorf("statusCodeColor(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestLoggingMiddleware_PreservesStatus(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status %d, want 418", rec.Code)
	}
}
