package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics: %v", err)
	}
	return string(body)
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/v1/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/v1/sessions/abc", nil),
		httptest.NewRequest(http.MethodGet, "/v1/sessions/def", nil),
		httptest.NewRequest(http.MethodPost, "/v1/sessions", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	body := scrape(t)

	expected := []string{
		`http_request_total{method="GET",path="/v1/sessions/{id}",status="404"} 2`,
		`http_request_total{method="POST",path="/v1/sessions",status="200"} 1`,
		`http_request_duration_seconds_count{method="GET",path="/v1/sessions/{id}"} 2`,
		`http_request_in_flight 0`,
	}
	for _, line := range expected {
		if !strings.Contains(body, line) {
			t.Errorf("Expected metrics to contain %q", line)
		}
	}
	if strings.Contains(body, "/v1/sessions/abc") {
		t.Error("Raw session ids must not be used as labels")
	}
}

func TestObserveFetch(t *testing.T) {
	ObserveFetch(120*time.Millisecond, nil)
	ObserveFetch(50*time.Millisecond, errors.New("boom"))
	ObserveFetch(10*time.Millisecond, errors.New("boom"))

	body := scrape(t)

	for _, line := range []string{
		`catalog_fetch_total{result="success"} 1`,
		`catalog_fetch_total{result="failure"} 2`,
		`catalog_fetch_duration_seconds_count 3`,
	} {
		if !strings.Contains(body, line) {
			t.Errorf("Expected metrics to contain %q", line)
		}
	}
}

func TestSetSessionCounts(t *testing.T) {
	SetSessionCounts(map[string]int{"loading": 2, "ready": 5})
	SetSessionCounts(map[string]int{"ready": 3})

	body := scrape(t)

	if !strings.Contains(body, `catalog_sessions_active{status="ready"} 3`) {
		t.Error("Expected ready gauge to be 3")
	}
	if strings.Contains(body, `catalog_sessions_active{status="loading"}`) {
		t.Error("Expected stale statuses to be cleared")
	}
}
