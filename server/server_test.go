package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/medications-catalog/config"
	"github.com/giygas/medications-catalog/data"
	"github.com/giygas/medications-catalog/handlers"
	"github.com/giygas/medications-catalog/health"
	"github.com/giygas/medications-catalog/tabledata"
	"github.com/giygas/medications-catalog/validation"
)

const upstreamBody = `[
	{"id": 1, "name": "Aspirin", "description": "Pain reliever", "manufacturer": "Pharma Inc", "price": 5.0},
	{"id": 2, "name": "Ibuprofen", "description": "Anti-inflammatory", "manufacturer": "HealthCo", "price": 8.0},
	{"id": 3, "name": "Paracetamol", "description": "Pain reliever and fever reducer", "manufacturer": "PharmaCorp", "price": 5.5},
	{"id": 4, "name": "Amoxicillin", "description": "Antibiotic", "manufacturer": "MediLabs", "price": 12.0},
	{"id": 5, "name": "Cetirizine", "description": "Antihistamine", "manufacturer": "AllergyCo", "price": 7.25}
]`

func testConfig() *config.Config {
	return &config.Config{
		Port:            "0",
		Address:         "127.0.0.1",
		Env:             config.EnvTest,
		MaxRequestBody:  1024,
		MaxHeaderSize:   2048,
		FetchTimeout:    5 * time.Second,
		DefaultPageSize: 5,
	}
}

// newTestServer wires the full stack against an upstream replying with status and body
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *data.SessionStore) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tabledata.Path {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	store := data.NewSessionStore(tabledata.NewClient(upstream.URL), data.WithMaxSessions(10))
	t.Cleanup(store.Close)

	cfg := testConfig()
	handler := handlers.NewHTTPHandler(store, validation.NewDataValidator(), health.NewHealthChecker(store, time.Now()))
	srv := httptest.NewServer(NewServer(cfg, handler).Handler())
	t.Cleanup(srv.Close)

	return srv, store
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("Invalid JSON %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func ids(t *testing.T, body map[string]any) []float64 {
	t.Helper()
	items, ok := body["items"].([]any)
	if !ok {
		t.Fatalf("Body has no items: %v", body)
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		out = append(out, item.(map[string]any)["id"].(float64))
	}
	return out
}

func TestSessionEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, upstreamBody)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions?wait=true", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	if body["status"] != "ready" {
		t.Fatalf("Expected ready session, got %v", body)
	}
	sessionURL := srv.URL + resp.Header.Get("Location")

	resp, body = doJSON(t, http.MethodPut, sessionURL+"/filters/description", `{"value":"pain"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 on edit, got %d: %v", resp.StatusCode, body)
	}

	_, body = doJSON(t, http.MethodPost, sessionURL+"/filters/apply", "")
	if got := ids(t, body); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("Expected [1 3] after apply, got %v", got)
	}

	doJSON(t, http.MethodPost, sessionURL+"/sort/toggle", "")
	_, body = doJSON(t, http.MethodPost, sessionURL+"/sort/toggle", "")
	if body["sort"] != "desc" {
		t.Errorf("Expected desc after two toggles, got %v", body["sort"])
	}
	if got := ids(t, body); len(got) != 2 || got[0] != 3 {
		t.Errorf("Expected [3 1] descending, got %v", got)
	}

	_, body = doJSON(t, http.MethodPost, sessionURL+"/reset", "")
	if got := ids(t, body); len(got) != 5 {
		t.Errorf("Expected the full first page after reset, got %v", got)
	}

	resp, _ = doJSON(t, http.MethodPut, sessionURL+"/page-size/3", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 on page size change, got %d", resp.StatusCode)
	}
	_, body = doJSON(t, http.MethodPut, sessionURL+"/page/1", "")
	if got := ids(t, body); len(got) != 2 || got[0] != 4 {
		t.Errorf("Expected [4 5] on the second page of 3, got %v", got)
	}

	resp, _ = doJSON(t, http.MethodDelete, sessionURL, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204 on delete, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, sessionURL, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestUpstreamFailure(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, `oops`)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions?wait=true", "")
	if body["status"] != "failed" {
		t.Fatalf("Expected failed session, got %v", body)
	}
	if body["error"] != "Error fetching medications: Internal Server Error" {
		t.Errorf("Unexpected error %v", body["error"])
	}
	if _, ok := body["items"]; ok {
		t.Error("Failed session must not expose items")
	}

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions/"+body["id"].(string)+"/sort/toggle", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for actions on a failed session, got %d", resp.StatusCode)
	}

	resp, health := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	if resp.StatusCode != http.StatusServiceUnavailable || health["status"] != "unhealthy" {
		t.Errorf("Expected unhealthy 503, got %d %v", resp.StatusCode, health["status"])
	}
}

func TestRequestSizeLimit(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, upstreamBody)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/v1/sessions/x/filters/name", `{"value":"`+strings.Repeat("a", 2000)+`"}`)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", resp.StatusCode)
	}
}

func TestRateLimitHeaders(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, upstreamBody)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	if resp.Header.Get("X-RateLimit-Limit") != "1000" {
		t.Errorf("Expected X-RateLimit-Limit 1000, got %q", resp.Header.Get("X-RateLimit-Limit"))
	}
	if resp.Header.Get("X-RateLimit-Remaining") != "995" {
		t.Errorf("Expected 995 tokens left after a health check, got %q", resp.Header.Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitExceeded(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, upstreamBody)

	var last *http.Response
	for i := 0; i < 11; i++ {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/sessions", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		last = resp
	}

	if last.StatusCode != http.StatusTooManyRequests && last.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected the 11th session creation to be refused, got %d", last.StatusCode)
	}
}

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		expected int64
	}{
		{http.MethodPost, "/v1/sessions", createSessionCost},
		{http.MethodGet, "/v1/sessions/abc", 5},
		{http.MethodPost, "/v1/sessions/abc/sort/toggle", 5},
		{http.MethodGet, "/health", 5},
		{http.MethodGet, "/metrics", 0},
		{http.MethodGet, "/unknown", 20},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if got := getTokenCost(req); got != tt.expected {
			t.Errorf("%s %s: expected cost %d, got %d", tt.method, tt.path, tt.expected, got)
		}
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()
	busy := rl.getBucket("10.0.0.1")
	rl.getBucket("10.0.0.2")
	busy.TakeAvailable(10)

	if removed := rl.cleanup(); removed != 1 {
		t.Errorf("Expected 1 idle bucket removed, got %d", removed)
	}
	if len(rl.clients) != 1 {
		t.Errorf("Expected 1 bucket left, got %d", len(rl.clients))
	}

	rl.Start()
	rl.Stop()
	rl.Stop()
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, upstreamBody)

	doJSON(t, http.MethodGet, srv.URL+"/v1/sessions/unknown", "")

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(raw), `path="/v1/sessions/{id}`) {
		t.Errorf("Expected route pattern labels in metrics output")
	}
}

func TestRealIPMiddleware(t *testing.T) {
	var seen string
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", " 198.51.100.4 , 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "198.51.100.4" {
		t.Errorf("Expected first forwarded address, got %q", seen)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, upstreamBody)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin *, got %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Errorf("Expected POST in allowed methods, got %q", got)
	}
}
