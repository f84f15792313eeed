package internal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 from metrics handler, got %d", w.Code)
	}
	return w.Body.String()
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	testReq := httptest.NewRequest("GET", "/health", nil)
	testW := httptest.NewRecorder()
	router.ServeHTTP(testW, testReq)

	if testW.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", testW.Code)
	}
	if testW.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", testW.Body.String())
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	for _, metric := range []string{"http_requests_total", "http_request_duration_seconds"} {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metric '%s' not found in response", metric)
		}
	}
	if !strings.Contains(body, `path="/health"`) {
		t.Error("Expected metrics to contain path label for /health endpoint")
	}
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	metrics := NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware())
	router.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	req := httptest.NewRequest("GET", "/login", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", w.Code)
	}
	if body := scrape(t, metrics); !strings.Contains(body, `status="Too Many Requests"`) {
		t.Error("Expected metrics to contain the status text of the response")
	}
}

func TestMetricsWithChiRoutePatterns(t *testing.T) {
	metrics := NewMetrics()
	router := chi.NewRouter()
	router.Use(metrics.Middleware())

	router.Get("/devices/{id}/edit", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("device"))
	})

	testReq := httptest.NewRequest("GET", "/devices/123/edit", nil)
	testW := httptest.NewRecorder()
	router.ServeHTTP(testW, testReq)

	body := scrape(t, metrics)
	if !strings.Contains(body, `path="/devices/{id}/edit"`) {
		t.Error("Expected metrics to contain Chi route pattern, not actual path")
	}
	if strings.Contains(body, `path="/devices/123/edit"`) {
		t.Error("Expected the concrete path to stay out of the labels")
	}
}

func TestObserveBackendRequest(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveBackendRequest(http.MethodGet, http.StatusOK)
	metrics.ObserveBackendRequest(http.MethodGet, http.StatusOK)
	metrics.ObserveBackendRequest(http.MethodPost, http.StatusConflict)

	body := scrape(t, metrics)
	if !strings.Contains(body, `backend_requests_total{method="GET",status="200"} 2`) {
		t.Errorf("Expected two successful GETs in:\n%s", body)
	}
	if !strings.Contains(body, `backend_requests_total{method="POST",status="409"} 1`) {
		t.Errorf("Expected one conflicting POST in:\n%s", body)
	}
}
