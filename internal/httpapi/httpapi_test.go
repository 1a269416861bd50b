package httpapi

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"surfsup-api/internal/config"
	"surfsup-api/internal/db"
	"surfsup-api/internal/logging"
	"surfsup-api/internal/metrics"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	if _, err := conn.Exec(`CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT, date TEXT, prcp REAL, tobs REAL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return conn
}

func newTestServer(t *testing.T, conn *sql.DB) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(config.Config{HTTPAddr: ":0"}, logger, NewMux(conn, db.SQLite))
	ts := httptest.NewServer(srv.Handler)

	t.Cleanup(ts.Close)
	return ts
}

func mustGet(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, openTestDB(t))

	resp := mustGet(t, ts.Client(), ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if body["status"] != "ok" || body["database"] != "sqlite3" {
		t.Fatalf("body=%v want status ok on sqlite3", body)
	}
}

func TestHealthz_missingTable(t *testing.T) {
	conn := openTestDB(t)
	if _, err := conn.Exec(`DROP TABLE measurement`); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	ts := newTestServer(t, conn)

	resp := mustGet(t, ts.Client(), ts.URL+"/healthz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestHealthz_databaseClosed(t *testing.T) {
	conn := openTestDB(t)
	ts := newTestServer(t, conn)
	_ = conn.Close()

	resp := mustGet(t, ts.Client(), ts.URL+"/healthz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, openTestDB(t))
	mustGet(t, ts.Client(), ts.URL+"/healthz")

	resp := mustGet(t, ts.Client(), ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusOK)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `surfsup_http_requests_total{method="GET",route="GET /healthz",status="200"}`) {
		t.Errorf("metrics output missing healthz request counter")
	}
}

func TestRequestID(t *testing.T) {
	var logs bytes.Buffer
	h := Handler(slog.New(slog.NewTextHandler(&logs, nil)), NewMux(openTestDB(t), db.SQLite))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if id := rec.Header().Get(requestIDHeader); len(id) != 36 {
			t.Errorf("X-Request-ID=%q want uuid", id)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if id := rec.Header().Get(requestIDHeader); id != "abc-123" {
			t.Errorf("X-Request-ID=%q want abc-123", id)
		}
		if !strings.Contains(logs.String(), "request_id=abc-123") {
			t.Errorf("request log missing request id: %q", logs.String())
		}
	})
}

func TestRequestLogger_routeLabel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1.0/{start}", func(w http.ResponseWriter, r *http.Request) {
		if logging.FromContext(r.Context()) == slog.Default() {
			t.Error("handler got default logger, want request logger")
		}
		w.WriteHeader(http.StatusTeapot)
	})
	var logs bytes.Buffer
	h := Handler(slog.New(slog.NewTextHandler(&logs, nil)), mux)

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "GET /api/v1.0/{start}", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1.0/2017-01-01", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1.0/2017-01-01", nil))

	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "GET /api/v1.0/{start}", "418")); got != before+1 {
		t.Errorf("route counter = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("POST", "unmatched", "405")); got < 1 {
		t.Errorf("unmatched counter = %v, want >= 1", got)
	}
	if !strings.Contains(logs.String(), "status=418") {
		t.Errorf("log missing status: %q", logs.String())
	}
}
