package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func probeCode(t *testing.T, h *Health, path string) int {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestReadinessLifecycle(t *testing.T) {
	h := NewHealth("0.1.0")
	if code := probeCode(t, h, "/ready"); code != http.StatusServiceUnavailable {
		t.Fatalf("fresh server must not be ready, got %d", code)
	}
	h.SetReady(true)
	if code := probeCode(t, h, "/ready"); code != http.StatusOK {
		t.Fatalf("ready server returned %d", code)
	}
	if code := probeCode(t, h, "/readyz"); code != http.StatusOK {
		t.Fatalf("kubernetes alias returned %d", code)
	}
	h.SetReady(false)
	if code := probeCode(t, h, "/ready"); code != http.StatusServiceUnavailable {
		t.Fatalf("draining server still ready: %d", code)
	}
}

func TestLiveness(t *testing.T) {
	h := NewHealth("")
	if code := probeCode(t, h, "/live"); code != http.StatusOK {
		t.Fatalf("fresh server must be live, got %d", code)
	}
	h.SetLive(false)
	if code := probeCode(t, h, "/livez"); code != http.StatusServiceUnavailable {
		t.Fatalf("dead server still live: %d", code)
	}
}

func TestHealthAggregation(t *testing.T) {
	h := NewHealth("0.1.0")
	h.RegisterCheck("vector-store", VectorStoreHealthChecker(func(ctx context.Context) error {
		return nil
	}))
	h.RegisterCheck("chat", ChatModelHealthChecker("anthropic", func(ctx context.Context) error {
		return errors.New("slow")
	}))

	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("degraded is still 200, got %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != HealthStatusDegraded {
		t.Fatalf("expected degraded, got %s", resp.Status)
	}
	if len(resp.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(resp.Checks))
	}
}

func TestHealthUnhealthyStore(t *testing.T) {
	h := NewHealth("")
	h.RegisterCheck("vector-store", VectorStoreHealthChecker(func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unreachable store must be 503, got %d", rec.Code)
	}
}
